package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type StreakStats struct {
	Current int `yaml:"current" json:"current"`
	Longest int `yaml:"longest" json:"longest"`
}

type PnLStats struct {
	Total   float64 `yaml:"total" json:"total"`
	Average float64 `yaml:"average" json:"average"`
}

// TradeAnalysis summarizes the closed and open trades of a run.
type TradeAnalysis struct {
	Total  int `yaml:"total" json:"total"`
	Open   int `yaml:"open" json:"open"`
	Closed int `yaml:"closed" json:"closed"`
	// Won counts closed trades with net pnl >= 0.
	Won        int         `yaml:"won" json:"won"`
	Lost       int         `yaml:"lost" json:"lost"`
	WinStreak  StreakStats `yaml:"win_streak" json:"win_streak"`
	LoseStreak StreakStats `yaml:"lose_streak" json:"lose_streak"`
	Gross      PnLStats    `yaml:"gross" json:"gross"`
	Net        PnLStats    `yaml:"net" json:"net"`
}

// StrikeRate returns won/closed as a percentage, 0 when nothing closed.
func (t TradeAnalysis) StrikeRate() float64 {
	if t.Closed == 0 {
		return 0
	}

	return float64(t.Won) / float64(t.Closed) * 100
}

type DrawDownResult struct {
	// DrawDown is the current decline from peak in percent.
	DrawDown  float64 `yaml:"drawdown" json:"drawdown"`
	MoneyDown float64 `yaml:"moneydown" json:"moneydown"`
	// Length is the number of bars since the last peak.
	Length       int     `yaml:"length" json:"length"`
	MaxDrawDown  float64 `yaml:"max_drawdown" json:"max_drawdown"`
	MaxMoneyDown float64 `yaml:"max_moneydown" json:"max_moneydown"`
	MaxLength    int     `yaml:"max_length" json:"max_length"`
}

type TradeStats struct {
	// ID is the unique identifier for this run.
	ID        string    `yaml:"id" json:"id"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Symbol    string    `yaml:"symbol" json:"symbol"`
	// StrategyName and Period identify the strategy configuration of the run.
	StrategyName   string         `yaml:"strategy_name" json:"strategy_name"`
	Period         int            `yaml:"period" json:"period"`
	InitialCapital float64        `yaml:"initial_capital" json:"initial_capital"`
	FinalValue     float64        `yaml:"final_value" json:"final_value"`
	TotalFees      float64        `yaml:"total_fees" json:"total_fees"`
	Bars           int            `yaml:"bars" json:"bars"`
	TradeAnalysis  TradeAnalysis  `yaml:"trade_analysis" json:"trade_analysis"`
	SQN            float64        `yaml:"sqn" json:"sqn"`
	DrawDown       DrawDownResult `yaml:"drawdown" json:"drawdown"`
	// TradesFilePath is the path to the trades parquet file.
	TradesFilePath string `yaml:"trades_file_path" json:"trades_file_path"`
	// OrdersFilePath is the path to the orders parquet file.
	OrdersFilePath string `yaml:"orders_file_path" json:"orders_file_path"`
	// DataPath is the path to the market data file used for this run.
	DataPath string `yaml:"data_path" json:"data_path"`
}

func WriteTradeStats(path string, stats []TradeStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal trade stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write trade stats to file: %w", err)
	}

	return nil
}
