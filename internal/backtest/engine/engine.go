package engine

import (
	"context"

	"github.com/rxtech-lab/argo-sma/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-sma/internal/strategy"
	"github.com/rxtech-lab/argo-sma/internal/types"
)

// Lifecycle callback types for backtest phases.
// Callbacks with an error return abort execution when they return an error.

// OnBacktestStartCallback is called once before the first run.
type OnBacktestStartCallback func(totalRuns int, totalDataFiles int) error

// OnBacktestEndCallback is called when the backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnRunStartCallback is called when processing of a period+data file combination begins.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, period int, dataFileIndex int, dataFilePath string, totalDataPoints int) error

// OnRunEndCallback is called when processing of a period+data file combination ends.
// resultFolderPath is empty for runs that write no results.
type OnRunEndCallback func(runID string, period int, dataFilePath string, resultFolderPath string)

// OnProcessDataCallback is called for each bar processed.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProcessData   *OnProcessDataCallback
}

// OptimizeResult is the outcome of one optimization run.
type OptimizeResult struct {
	Period     int     `yaml:"period" json:"period"`
	DataPath   string  `yaml:"data_path" json:"data_path"`
	FinalValue float64 `yaml:"final_value" json:"final_value"`
}

//nolint:interfacebloat // Engine is a core interface that naturally requires multiple methods
type Engine interface {
	// Initialize the engine with the given yaml configuration.
	Initialize(config string) error
	// SetStrategyConfig overrides the strategy section of the engine configuration.
	SetStrategyConfig(config strategy.SMACrossoverConfig) error
	// SetDataPath sets the path to the market data files. Accepts glob patterns
	// for batch loading (e.g., "data/*.csv"); .csv and .parquet are supported.
	SetDataPath(path string) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// The results folder is structured as: <strategy>/period_<n>/[<start>_<end>/]<data file>
	SetResultsFolder(folder string) error
	// SetDataSource sets the data source for the engine. When unset, a data
	// source is chosen per data file from its extension.
	SetDataSource(dataSource datasource.DataSource) error
	// Run executes one strategy configuration over every data file with
	// analytics, writes the results and returns the statistics of each run.
	Run(ctx context.Context, callbacks LifecycleCallbacks) ([]types.TradeStats, error)
	// Optimize executes one run per period in [minPeriod, maxPeriod] over every
	// data file without analytics and with strategy logging off.
	Optimize(ctx context.Context, minPeriod int, maxPeriod int, callbacks LifecycleCallbacks) ([]OptimizeResult, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
