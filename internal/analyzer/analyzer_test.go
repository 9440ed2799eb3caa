package analyzer

import (
	"math"
	"testing"

	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/stretchr/testify/suite"
)

type AnalyzerTestSuite struct {
	suite.Suite
}

func TestAnalyzerSuite(t *testing.T) {
	suite.Run(t, new(AnalyzerTestSuite))
}

func closedTrade(id string, gross, net float64) types.Trade {
	return types.Trade{TradeID: id, PnL: gross, PnLComm: net, IsClosed: true}
}

func (suite *AnalyzerTestSuite) TestTradeAnalyzerCounts() {
	analyzer := NewTradeAnalyzer()

	analyzer.NotifyTrade(types.Trade{TradeID: "a"})
	analyzer.NotifyTrade(types.Trade{TradeID: "a"})
	suite.Equal(1, analyzer.Analysis().Total)
	suite.Equal(1, analyzer.Analysis().Open)

	analyzer.NotifyTrade(closedTrade("a", 10, 8))
	analyzer.NotifyTrade(types.Trade{TradeID: "b"})

	analysis := analyzer.Analysis()
	suite.Equal(2, analysis.Total)
	suite.Equal(1, analysis.Open)
	suite.Equal(1, analysis.Closed)
	suite.Equal(1, analysis.Won)
	suite.Equal(0, analysis.Lost)
}

func (suite *AnalyzerTestSuite) TestTradeAnalyzerStreaksAndPnL() {
	analyzer := NewTradeAnalyzer()

	for i, pnl := range []float64{5, 0, -3, -2, -1, 4} {
		analyzer.NotifyTrade(closedTrade(string(rune('a'+i)), pnl+1, pnl))
	}

	analysis := analyzer.Analysis()
	suite.Equal(6, analysis.Closed)
	// zero net pnl counts as a win
	suite.Equal(3, analysis.Won)
	suite.Equal(3, analysis.Lost)
	suite.Equal(2, analysis.WinStreak.Longest)
	suite.Equal(1, analysis.WinStreak.Current)
	suite.Equal(3, analysis.LoseStreak.Longest)
	suite.Equal(0, analysis.LoseStreak.Current)
	suite.InDelta(3.0, analysis.Net.Total, 1e-9)
	suite.InDelta(0.5, analysis.Net.Average, 1e-9)
	suite.InDelta(9.0, analysis.Gross.Total, 1e-9)
	suite.InDelta(1.5, analysis.Gross.Average, 1e-9)
	suite.InDelta(50.0, analysis.StrikeRate(), 1e-9)
}

func (suite *AnalyzerTestSuite) TestSQN() {
	tests := []struct {
		name     string
		pnl      []float64
		expected float64
	}{
		{name: "no trades", pnl: nil, expected: 0},
		{name: "single trade", pnl: []float64{10}, expected: 0},
		{name: "identical trades", pnl: []float64{3, 3, 3}, expected: 0},
		// mean 2, population stddev 1
		{name: "two trades", pnl: []float64{1, 3}, expected: math.Sqrt(2) * 2},
		// mean 0, stddev 1
		{name: "symmetric", pnl: []float64{-1, 1, -1, 1}, expected: 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			sqn := NewSQN()
			sqn.NotifyTrade(types.Trade{TradeID: "open"})
			for _, p := range tc.pnl {
				sqn.NotifyTrade(closedTrade("x", p, p))
			}

			suite.Equal(len(tc.pnl), sqn.Trades())
			suite.InDelta(tc.expected, sqn.Value(), 1e-9)
		})
	}
}

func (suite *AnalyzerTestSuite) TestDrawDown() {
	dd := NewDrawDown()

	for _, v := range []float64{100, 110, 99, 104, math.NaN(), 88, 120, 114} {
		dd.Next(v)
	}

	result := dd.Result()
	suite.InDelta(6.0, result.MoneyDown, 1e-9)
	suite.InDelta(5.0, result.DrawDown, 1e-9)
	suite.Equal(1, result.Length)
	suite.InDelta(22.0, result.MaxMoneyDown, 1e-9)
	suite.InDelta(20.0, result.MaxDrawDown, 1e-9)
	suite.Equal(3, result.MaxLength)
}

func (suite *AnalyzerTestSuite) TestDrawDownFlatValue() {
	dd := NewDrawDown()
	for i := 0; i < 5; i++ {
		dd.Next(100000)
	}

	suite.Equal(types.DrawDownResult{}, dd.Result())
}

func (suite *AnalyzerTestSuite) TestSetFansOut() {
	set := NewSet()
	suite.Len(set.All(), 3)

	set.NotifyTrade(closedTrade("a", 2, 1))
	set.NotifyTrade(closedTrade("b", 4, 3))
	set.Next(100)
	set.Next(90)

	suite.Equal(2, set.Trades.Analysis().Closed)
	suite.Equal(2, set.SQN.Trades())
	suite.InDelta(10.0, set.DrawDown.Result().MaxMoneyDown, 1e-9)
}
