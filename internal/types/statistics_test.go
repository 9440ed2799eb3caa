package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type StatisticsTestSuite struct {
	suite.Suite
	tempDir string
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *StatisticsTestSuite) TestWriteTradeStats() {
	stats := []TradeStats{
		{
			ID:             "run-1",
			Symbol:         "BTCUSDT",
			StrategyName:   "SMACrossover",
			Period:         15,
			InitialCapital: 100000,
			FinalValue:     100250.5,
			TradeAnalysis: TradeAnalysis{
				Total:  3,
				Closed: 2,
				Open:   1,
				Won:    1,
				Lost:   1,
				Net:    PnLStats{Total: 250.5, Average: 125.25},
			},
			SQN: 0.71,
			DrawDown: DrawDownResult{
				MaxDrawDown:  1.2,
				MaxMoneyDown: 1200,
				MaxLength:    14,
			},
		},
	}

	filePath := filepath.Join(suite.tempDir, "stats.yaml")
	suite.Require().NoError(WriteTradeStats(filePath, stats))

	data, err := os.ReadFile(filePath)
	suite.Require().NoError(err)

	var read []TradeStats
	suite.Require().NoError(yaml.Unmarshal(data, &read))
	suite.Require().Len(read, 1)
	suite.Equal(stats[0].TradeAnalysis, read[0].TradeAnalysis)
	suite.Equal(stats[0].DrawDown, read[0].DrawDown)
	suite.Contains(string(data), "max_moneydown: 1200")
}

func (suite *StatisticsTestSuite) TestWriteTradeStatsBadPath() {
	err := WriteTradeStats(filepath.Join(suite.tempDir, "missing", "stats.yaml"), nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to write trade stats")
}

func (suite *StatisticsTestSuite) TestStrikeRate() {
	tests := []struct {
		name     string
		analysis TradeAnalysis
		expected float64
	}{
		{name: "no closed trades", analysis: TradeAnalysis{}, expected: 0},
		{name: "all won", analysis: TradeAnalysis{Closed: 4, Won: 4}, expected: 100},
		{name: "half won", analysis: TradeAnalysis{Closed: 4, Won: 2, Lost: 2}, expected: 50},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.InDelta(tc.expected, tc.analysis.StrikeRate(), 1e-9)
		})
	}
}
