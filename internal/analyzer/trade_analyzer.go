package analyzer

import (
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/shopspring/decimal"
)

// TradeAnalyzer counts trades, wins, losses and streaks. A closed trade is
// won when its net pnl is zero or positive.
type TradeAnalyzer struct {
	analysis types.TradeAnalysis
	open     map[string]struct{}
	gross    decimal.Decimal
	net      decimal.Decimal
}

func NewTradeAnalyzer() *TradeAnalyzer {
	return &TradeAnalyzer{
		analysis: types.TradeAnalysis{},
		open:     make(map[string]struct{}),
		gross:    decimal.Zero,
		net:      decimal.Zero,
	}
}

func (t *TradeAnalyzer) NotifyTrade(trade types.Trade) {
	if !trade.IsClosed {
		if _, seen := t.open[trade.TradeID]; !seen {
			t.open[trade.TradeID] = struct{}{}
			t.analysis.Total++
			t.analysis.Open++
		}

		return
	}

	if _, seen := t.open[trade.TradeID]; seen {
		delete(t.open, trade.TradeID)
		t.analysis.Open--
	} else {
		t.analysis.Total++
	}

	t.analysis.Closed++

	if trade.PnLComm >= 0 {
		t.analysis.Won++
		t.analysis.WinStreak.Current++
		t.analysis.LoseStreak.Current = 0
	} else {
		t.analysis.Lost++
		t.analysis.LoseStreak.Current++
		t.analysis.WinStreak.Current = 0
	}

	t.analysis.WinStreak.Longest = max(t.analysis.WinStreak.Longest, t.analysis.WinStreak.Current)
	t.analysis.LoseStreak.Longest = max(t.analysis.LoseStreak.Longest, t.analysis.LoseStreak.Current)

	t.gross = t.gross.Add(decimal.NewFromFloat(trade.PnL))
	t.net = t.net.Add(decimal.NewFromFloat(trade.PnLComm))

	closed := decimal.NewFromInt(int64(t.analysis.Closed))
	t.analysis.Gross.Total, _ = t.gross.Float64()
	t.analysis.Gross.Average, _ = t.gross.Div(closed).Float64()
	t.analysis.Net.Total, _ = t.net.Float64()
	t.analysis.Net.Average, _ = t.net.Div(closed).Float64()
}

func (t *TradeAnalyzer) Next(_ float64) {}

func (t *TradeAnalyzer) Analysis() types.TradeAnalysis {
	return t.analysis
}
