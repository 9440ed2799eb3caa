// Package analyzer computes run statistics from trade notifications and the
// per-bar portfolio value.
package analyzer

import "github.com/rxtech-lab/argo-sma/internal/types"

// Analyzer observes a run. Both methods are called from the host loop.
type Analyzer interface {
	// NotifyTrade receives every trade open and close
	NotifyTrade(trade types.Trade)
	// Next receives the portfolio value after each bar
	Next(value float64)
}

// Set bundles the analyzers attached to a single backtest run.
type Set struct {
	Trades   *TradeAnalyzer
	SQN      *SQN
	DrawDown *DrawDown
}

func NewSet() *Set {
	return &Set{
		Trades:   NewTradeAnalyzer(),
		SQN:      NewSQN(),
		DrawDown: NewDrawDown(),
	}
}

func (s *Set) All() []Analyzer {
	return []Analyzer{s.Trades, s.SQN, s.DrawDown}
}

func (s *Set) NotifyTrade(trade types.Trade) {
	for _, a := range s.All() {
		a.NotifyTrade(trade)
	}
}

func (s *Set) Next(value float64) {
	for _, a := range s.All() {
		a.Next(value)
	}
}
