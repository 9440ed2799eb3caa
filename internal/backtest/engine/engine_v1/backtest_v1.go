package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-sma/internal/analyzer"
	"github.com/rxtech-lab/argo-sma/internal/backtest/engine"
	"github.com/rxtech-lab/argo-sma/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/report"
	"github.com/rxtech-lab/argo-sma/internal/runtime"
	"github.com/rxtech-lab/argo-sma/internal/state"
	"github.com/rxtech-lab/argo-sma/internal/strategy"
	"github.com/rxtech-lab/argo-sma/internal/trading/commission_fee"
	"github.com/rxtech-lab/argo-sma/internal/trading/paper"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const StatsFile = "stats.yaml"

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	dataPaths     []string
	resultsFolder string
	log           *logger.Logger
	datasource    datasource.DataSource
	output        io.Writer
}

// runOutcome is what a single pass over one data file produced.
type runOutcome struct {
	runID      string
	symbol     string
	finalValue float64
	bars       int
	stats      types.TradeStats
	folder     string
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		dataPaths:     nil,
		resultsFolder: "",
		log:           nil,
		datasource:    nil,
		output:        os.Stdout,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	b.config = EmptyConfig()

	if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest config", err)
	}

	if err := b.config.Validate(); err != nil {
		return err
	}

	if b.log == nil {
		var loggerError error

		b.log, loggerError = logger.NewLogger()
		if loggerError != nil {
			return loggerError
		}
	}

	b.log.Debug("Backtest engine initialized",
		zap.Float64("initial_capital", b.config.InitialCapital),
		zap.Int("period", b.config.Strategy.Period),
		zap.String("broker", string(b.config.Broker)),
	)

	return nil
}

// SetLogger replaces the engine logger. Call before Initialize to keep the
// engine from creating its own.
func (b *BacktestEngineV1) SetLogger(log *logger.Logger) {
	b.log = log
}

// SetOutput sets where reports are printed. Defaults to stdout.
func (b *BacktestEngineV1) SetOutput(w io.Writer) {
	b.output = w
}

// SetStrategyConfig implements engine.Engine.
func (b *BacktestEngineV1) SetStrategyConfig(config strategy.SMACrossoverConfig) error {
	b.config.Strategy = config

	return b.config.Validate()
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	files, err := filepath.Glob(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid data path %q", path)
	}

	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to get absolute path of %s: %w", file, err)
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths
	b.logger().Debug("Data paths set",
		zap.Strings("files", absolutePaths),
	)

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(dataSource datasource.DataSource) error {
	b.datasource = dataSource

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (result []types.TradeStats, err error) {
	if callbacks.OnBacktestEnd != nil {
		defer func() { (*callbacks.OnBacktestEnd)(err) }()
	}

	if err := b.preRunCheck(true); err != nil {
		return nil, err
	}

	if err := os.RemoveAll(b.resultsFolder); err != nil {
		return nil, fmt.Errorf("failed to clean results folder: %w", err)
	}

	if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results folder: %w", err)
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(b.dataPaths), len(b.dataPaths)); err != nil {
			return nil, err
		}
	}

	stats := make([]types.TradeStats, 0, len(b.dataPaths))

	for i, dataPath := range b.dataPaths {
		outcome, err := b.runOnce(ctx, b.config.Strategy, i, dataPath, callbacks, true)
		if err != nil {
			return nil, err
		}

		stats = append(stats, outcome.stats)
	}

	return stats, nil
}

// Optimize implements engine.Engine.
func (b *BacktestEngineV1) Optimize(ctx context.Context, minPeriod int, maxPeriod int, callbacks engine.LifecycleCallbacks) (result []engine.OptimizeResult, err error) {
	if callbacks.OnBacktestEnd != nil {
		defer func() { (*callbacks.OnBacktestEnd)(err) }()
	}

	if err := b.preRunCheck(false); err != nil {
		return nil, err
	}

	if minPeriod <= 0 || maxPeriod < minPeriod {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "invalid period range %d..%d", minPeriod, maxPeriod)
	}

	totalRuns := (maxPeriod - minPeriod + 1) * len(b.dataPaths)
	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(totalRuns, len(b.dataPaths)); err != nil {
			return nil, err
		}
	}

	results := make([]engine.OptimizeResult, 0, totalRuns)

	for period := minPeriod; period <= maxPeriod; period++ {
		config := strategy.SMACrossoverConfig{Period: period, PrintLog: false}

		for i, dataPath := range b.dataPaths {
			outcome, err := b.runOnce(ctx, config, i, dataPath, callbacks, false)
			if err != nil {
				return nil, err
			}

			results = append(results, engine.OptimizeResult{
				Period:     period,
				DataPath:   dataPath,
				FinalValue: outcome.finalValue,
			})
		}
	}

	return results, nil
}

// runOnce feeds every bar of dataPath through a fresh broker and strategy.
// With analytics it also records the ledger, writes the results folder and
// prints the report.
func (b *BacktestEngineV1) runOnce(
	ctx context.Context,
	config strategy.SMACrossoverConfig,
	dataIndex int,
	dataPath string,
	callbacks engine.LifecycleCallbacks,
	analytics bool,
) (runOutcome, error) {
	ds, owned, err := b.dataSourceFor(dataPath)
	if err != nil {
		return runOutcome{}, err
	}

	if owned {
		defer ds.Close()
	}

	if err := ds.Initialize(dataPath); err != nil {
		return runOutcome{}, fmt.Errorf("failed to initialize data source: %w", err)
	}

	count, err := ds.Count(b.config.StartTime, b.config.EndTime)
	if err != nil {
		return runOutcome{}, fmt.Errorf("failed to get data count: %w", err)
	}

	commission, err := commission_fee.GetCommissionFeeHandler(b.config.Broker, b.config.Commission)
	if err != nil {
		return runOutcome{}, err
	}

	broker, err := paper.NewPaperTrading(paper.Config{
		InitialCapital:   b.config.InitialCapital,
		Stake:            b.config.Stake,
		DecimalPrecision: b.config.DecimalPrecision,
		StrategyName:     strategy.SMACrossoverName,
	}, commission, b.log)
	if err != nil {
		return runOutcome{}, err
	}

	smaCrossover, err := strategy.NewSMACrossover(config, broker, b.log)
	if err != nil {
		return runOutcome{}, err
	}

	rt := &runtime.RuntimeContext{
		Strategy:  smaCrossover,
		Broker:    broker,
		State:     nil,
		Analyzers: nil,
		Logger:    b.log,
	}

	var analyzers *analyzer.Set

	if analytics {
		analyzers = analyzer.NewSet()
		rt.Analyzers = analyzers.All()

		rt.State, err = state.NewState(b.log)
		if err != nil {
			return runOutcome{}, fmt.Errorf("failed to create backtest state: %w", err)
		}
		defer rt.State.Close()

		if err := rt.State.Initialize(); err != nil {
			return runOutcome{}, fmt.Errorf("failed to initialize state: %w", err)
		}
	}

	outcome := runOutcome{runID: uuid.New().String()}

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(outcome.runID, config.Period, dataIndex, dataPath, count); err != nil {
			return runOutcome{}, err
		}
	}

	b.logger().Debug("Running strategy",
		zap.String("run_id", outcome.runID),
		zap.Int("period", config.Period),
		zap.String("data", dataPath),
		zap.Int("bars", count),
	)

	current := 0

	for bar, err := range ds.ReadAll(b.config.StartTime, b.config.EndTime) {
		if err != nil {
			return runOutcome{}, fmt.Errorf("failed to read data: %w", err)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return runOutcome{}, fmt.Errorf("backtest canceled: %w", ctxErr)
		}

		if outcome.symbol == "" {
			outcome.symbol = bar.Symbol
		}

		if _, err := rt.Step(bar); err != nil {
			return runOutcome{}, fmt.Errorf("failed to process data: %w", err)
		}

		current++

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(current, count); err != nil {
				return runOutcome{}, err
			}
		}
	}

	outcome.finalValue, err = rt.Finish(types.OrderReasonEndOfData)
	if err != nil {
		return runOutcome{}, fmt.Errorf("failed to finish run: %w", err)
	}

	outcome.bars = rt.Bars()

	if analytics {
		outcome.folder = getResultFolder(b, smaCrossover.Name(), config.Period, dataPath)

		outcome.stats, err = b.writeResults(rt.State, analyzers, config, dataPath, outcome)
		if err != nil {
			return runOutcome{}, fmt.Errorf("failed to write results: %w", err)
		}

		if err := report.PrintStats(b.output, outcome.stats); err != nil {
			return runOutcome{}, fmt.Errorf("failed to print report: %w", err)
		}
	}

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(outcome.runID, config.Period, dataPath, outcome.folder)
	}

	return outcome, nil
}

func (b *BacktestEngineV1) writeResults(
	ledger *state.State,
	analyzers *analyzer.Set,
	config strategy.SMACrossoverConfig,
	dataPath string,
	outcome runOutcome,
) (types.TradeStats, error) {
	if ledger == nil {
		return types.TradeStats{}, errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	totalFees, err := ledger.GetTotalFees()
	if err != nil {
		return types.TradeStats{}, fmt.Errorf("failed to get total fees: %w", err)
	}

	if err := ledger.Write(outcome.folder); err != nil {
		return types.TradeStats{}, fmt.Errorf("failed to write state: %w", err)
	}

	stats := types.TradeStats{
		ID:             outcome.runID,
		Timestamp:      time.Now(),
		Symbol:         outcome.symbol,
		StrategyName:   strategy.SMACrossoverName,
		Period:         config.Period,
		InitialCapital: b.config.InitialCapital,
		FinalValue:     outcome.finalValue,
		TotalFees:      totalFees,
		Bars:           outcome.bars,
		TradeAnalysis:  analyzers.Trades.Analysis(),
		SQN:            analyzers.SQN.Value(),
		DrawDown:       analyzers.DrawDown.Result(),
		TradesFilePath: filepath.Join(outcome.folder, state.TradesParquetFile),
		OrdersFilePath: filepath.Join(outcome.folder, state.OrdersParquetFile),
		DataPath:       dataPath,
	}

	if err := types.WriteTradeStats(filepath.Join(outcome.folder, StatsFile), []types.TradeStats{stats}); err != nil {
		return types.TradeStats{}, fmt.Errorf("failed to write stats: %w", err)
	}

	return stats, nil
}

// dataSourceFor returns the configured data source, or a new one picked from
// the file extension. owned reports whether the caller must close it.
func (b *BacktestEngineV1) dataSourceFor(dataPath string) (datasource.DataSource, bool, error) {
	if b.datasource != nil {
		return b.datasource, false, nil
	}

	ds, err := datasource.NewDataSourceForPath(dataPath, b.config.CSV, b.log)
	if err != nil {
		return nil, false, err
	}

	return ds, true, nil
}

func (b *BacktestEngineV1) logger() *logger.Logger {
	if b.log == nil {
		return logger.NewNopLogger()
	}

	return b.log
}

func (b *BacktestEngineV1) preRunCheck(requireResults bool) error {
	if b.log == nil {
		return errors.New(errors.ErrCodeBacktestInitFailed, "engine is not initialized")
	}

	if len(b.dataPaths) == 0 {
		b.log.Error("No data paths loaded")

		return errors.New(errors.ErrCodeBacktestNoDataPaths, "no data paths loaded")
	}

	if requireResults && b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	return nil
}
