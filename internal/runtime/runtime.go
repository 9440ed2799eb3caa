// Package runtime drives one strategy through a stream of bars. The backtest
// and live engines share its per-bar dispatch.
package runtime

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-sma/internal/analyzer"
	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/state"
	"github.com/rxtech-lab/argo-sma/internal/strategy"
	"github.com/rxtech-lab/argo-sma/internal/trading"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"go.uber.org/zap"
)

type RuntimeContext struct {
	// Strategy receives bars and notifications
	Strategy strategy.TradingStrategy
	// Broker fills the strategy's orders
	Broker trading.Broker
	// State records every notification; nil disables the ledger
	State *state.State
	// Analyzers observe trades and the per-bar portfolio value
	Analyzers []analyzer.Analyzer
	Logger    *logger.Logger

	bars int
}

// StepResult is what happened while processing one bar.
type StepResult struct {
	Bar    types.MarketData
	Intent optional.Option[types.Intent]
	Orders []types.Order
	Trades []types.Trade
	Value  float64
}

// Step processes one bar: the broker fills pending orders at the bar's open,
// queued notifications are delivered, then the strategy sees the bar and the
// analyzers see the resulting portfolio value.
func (r *RuntimeContext) Step(bar types.MarketData) (StepResult, error) {
	r.bars++
	r.Broker.Next(bar)

	orders, trades, err := r.dispatch()
	if err != nil {
		return StepResult{}, err
	}

	intent := r.Strategy.ProcessData(bar)
	value := r.Broker.Value()

	for _, a := range r.Analyzers {
		a.Next(value)
	}

	return StepResult{
		Bar:    bar,
		Intent: intent,
		Orders: orders,
		Trades: trades,
		Value:  value,
	}, nil
}

// Finish cancels orders still waiting for a bar, delivers the remaining
// notifications and stops the strategy. It returns the final portfolio value.
func (r *RuntimeContext) Finish(reason string) (float64, error) {
	r.Broker.CancelAll(reason)

	if _, _, err := r.dispatch(); err != nil {
		return 0, err
	}

	value := r.Broker.Value()
	r.Strategy.Stop(value)

	return value, nil
}

// Bars returns the number of bars stepped so far.
func (r *RuntimeContext) Bars() int {
	return r.bars
}

func (r *RuntimeContext) dispatch() ([]types.Order, []types.Trade, error) {
	orders, trades := r.Broker.Drain()

	for _, order := range orders {
		r.Strategy.NotifyOrder(order)
	}

	for _, trade := range trades {
		r.Strategy.NotifyTrade(trade)

		for _, a := range r.Analyzers {
			a.NotifyTrade(trade)
		}
	}

	if r.State != nil {
		if err := r.State.Update(orders, trades); err != nil {
			if r.Logger != nil {
				r.Logger.Error("failed to record notifications", zap.Error(err))
			}

			return nil, nil, err
		}
	}

	return orders, trades, nil
}
