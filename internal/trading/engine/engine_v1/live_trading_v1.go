package engine_v1

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-sma/internal/analyzer"
	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/metrics"
	"github.com/rxtech-lab/argo-sma/internal/report"
	"github.com/rxtech-lab/argo-sma/internal/runtime"
	"github.com/rxtech-lab/argo-sma/internal/state"
	"github.com/rxtech-lab/argo-sma/internal/strategy"
	"github.com/rxtech-lab/argo-sma/internal/trading/commission_fee"
	"github.com/rxtech-lab/argo-sma/internal/trading/engine"
	"github.com/rxtech-lab/argo-sma/internal/trading/engine/engine_v1/prefetch"
	"github.com/rxtech-lab/argo-sma/internal/trading/engine/engine_v1/session"
	"github.com/rxtech-lab/argo-sma/internal/trading/paper"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"github.com/rxtech-lab/argo-sma/pkg/marketdata/provider"
	"go.uber.org/zap"
)

const StatsFile = "stats.yaml"

// LiveTradingEngineV1 implements the LiveTradingEngine interface for real-time trading.
// Orders are filled by the paper broker.
type LiveTradingEngineV1 struct {
	config             engine.LiveTradingEngineConfig
	marketDataProvider provider.Provider
	log                *logger.Logger
	output             io.Writer
	now                func() time.Time
	initialized        bool

	sessionManager  *session.SessionManager
	prefetchManager *prefetch.PrefetchManager
}

// NewLiveTradingEngineV1 creates a new LiveTradingEngineV1 instance.
func NewLiveTradingEngineV1() (engine.LiveTradingEngine, error) {
	log, err := logger.NewLogger()
	if err != nil {
		return nil, err
	}

	return NewLiveTradingEngineV1WithLogger(log), nil
}

// NewLiveTradingEngineV1WithLogger creates an engine logging to log.
func NewLiveTradingEngineV1WithLogger(log *logger.Logger) *LiveTradingEngineV1 {
	return &LiveTradingEngineV1{
		config:             engine.LiveTradingEngineConfig{}, //nolint:exhaustruct // initialized via Initialize()
		marketDataProvider: nil,
		log:                log,
		output:             os.Stdout,
		now:                time.Now,
		initialized:        false,
		sessionManager:     nil,
		prefetchManager:    nil,
	}
}

// Initialize implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) Initialize(config engine.LiveTradingEngineConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	e.config = config
	e.prefetchManager = prefetch.NewPrefetchManager(e.log)
	e.prefetchManager.SetClock(e.now)

	if config.DataOutputPath != "" {
		e.sessionManager = session.NewSessionManager(e.log)
		if err := e.sessionManager.Initialize(config.DataOutputPath, config.Symbol, e.now()); err != nil {
			return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to initialize session manager", err)
		}
	}

	e.initialized = true

	e.log.Debug("Live trading engine initialized",
		zap.String("symbol", config.Symbol),
		zap.String("interval", string(config.Interval)),
		zap.Duration("backfill", config.Backfill),
	)

	return nil
}

// SetClock replaces the clock used for the backfill window and session folder.
func (e *LiveTradingEngineV1) SetClock(now func() time.Time) {
	e.now = now

	if e.prefetchManager != nil {
		e.prefetchManager.SetClock(now)
	}
}

// SetMarketDataProvider implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) SetMarketDataProvider(marketProvider provider.Provider) error {
	e.marketDataProvider = marketProvider
	e.log.Debug("Market data provider set")

	return nil
}

// SetOutput implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) SetOutput(w io.Writer) {
	e.output = w
}

// GetConfigSchema implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) GetConfigSchema() (string, error) {
	return engine.GetConfigSchema()
}

// liveRun holds what one call to Run builds.
type liveRun struct {
	runID     string
	strategy  *strategy.SMACrossover
	runtime   *runtime.RuntimeContext
	analyzers *analyzer.Set
	ledger    *state.State
	callbacks engine.LiveTradingCallbacks
}

// Run implements engine.LiveTradingEngine. Bars of the backfill window are
// processed first, then streamed bars until the context is canceled or the
// stream fails. Orders still pending are canceled and the strategy is
// stopped on every exit path once it was set up.
func (e *LiveTradingEngineV1) Run(ctx context.Context, callbacks engine.LiveTradingCallbacks) (runErr error) {
	var run *liveRun

	var metricsServer *http.Server

	defer func() {
		if run != nil {
			if err := e.finish(run); err != nil && runErr == nil {
				runErr = err
			}
		}

		if metricsServer != nil {
			if err := metrics.Shutdown(metricsServer, 5*time.Second); err != nil {
				e.log.Warn("Failed to stop metrics server", zap.Error(err))
			}
		}

		if callbacks.OnStatusUpdate != nil {
			_ = (*callbacks.OnStatusUpdate)(types.EngineStatusStopped)
		}

		if callbacks.OnEngineStop != nil {
			(*callbacks.OnEngineStop)(runErr)
		}
	}()

	if err := e.preRunCheck(); err != nil {
		return err
	}

	run, err := e.setup(callbacks)
	if err != nil {
		return err
	}

	if e.config.MetricsAddr != "" {
		metricsServer = metrics.Serve(e.config.MetricsAddr, e.log)
	}

	if callbacks.OnEngineStart != nil {
		if err := (*callbacks.OnEngineStart)([]string{e.config.Symbol}, string(e.config.Interval)); err != nil {
			return fmt.Errorf("OnEngineStart callback failed: %w", err)
		}
	}

	e.prefetchManager.Initialize(e.marketDataProvider, e.config.Interval, e.config.Backfill, callbacks.OnStatusUpdate)

	if _, err := e.prefetchManager.ExecutePrefetch(ctx, e.config.Symbol, e.handler(run, metrics.SourceBackfill)); err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	if !e.prefetchManager.IsEnabled() && callbacks.OnStatusUpdate != nil {
		if err := (*callbacks.OnStatusUpdate)(types.EngineStatusRunning); err != nil {
			return err
		}
	}

	streamHandler := e.handler(run, metrics.SourceStream)
	firstDataReceived := false

	for data, err := range e.marketDataProvider.Stream(ctx, []string{e.config.Symbol}, e.config.Interval) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			metrics.StreamErrorsTotal.WithLabelValues(string(e.config.Provider)).Inc()

			if callbacks.OnError != nil {
				(*callbacks.OnError)(err)
			}

			e.log.Error("Market data stream failed", zap.Error(err))

			return err
		}

		if !firstDataReceived {
			firstDataReceived = true

			if e.prefetchManager.IsEnabled() {
				if err := e.prefetchManager.HandleStreamStart(ctx, data.Time, e.config.Symbol, streamHandler); err != nil {
					return fmt.Errorf("gap fill failed: %w", err)
				}
			}
		}

		if !e.prefetchManager.Accept(data) {
			e.log.Debug("Skipping bar already processed", zap.Time("time", data.Time))

			continue
		}

		if err := streamHandler(data); err != nil {
			return err
		}
	}

	return ctx.Err()
}

// setup builds the broker, the strategy and the ledger of one run.
func (e *LiveTradingEngineV1) setup(callbacks engine.LiveTradingCallbacks) (*liveRun, error) {
	commission, err := commission_fee.GetCommissionFeeHandler(e.config.Broker, e.config.Commission)
	if err != nil {
		return nil, err
	}

	broker, err := paper.NewPaperTrading(paper.Config{
		InitialCapital:   e.config.InitialCapital,
		Stake:            e.config.Stake,
		DecimalPrecision: e.config.DecimalPrecision,
		StrategyName:     strategy.SMACrossoverName,
	}, commission, e.log)
	if err != nil {
		return nil, err
	}

	smaCrossover, err := strategy.NewSMACrossover(e.config.StrategyConfig(), broker, e.log)
	if err != nil {
		return nil, err
	}

	ledger, err := state.NewState(e.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create state: %w", err)
	}

	if err := ledger.Initialize(); err != nil {
		_ = ledger.Close()

		return nil, fmt.Errorf("failed to initialize state: %w", err)
	}

	analyzers := analyzer.NewSet()

	run := &liveRun{
		runID:    uuid.New().String(),
		strategy: smaCrossover,
		runtime: &runtime.RuntimeContext{
			Strategy:  smaCrossover,
			Broker:    broker,
			State:     ledger,
			Analyzers: analyzers.All(),
			Logger:    e.log,
		},
		analyzers: analyzers,
		ledger:    ledger,
		callbacks: callbacks,
	}

	e.log.Info("Strategy initialized",
		zap.String("run_id", run.runID),
		zap.String("name", smaCrossover.Name()),
		zap.Int("period", e.config.Period),
		zap.String("symbol", e.config.Symbol),
	)

	return run, nil
}

// handler returns the per-bar step of the engine loop.
func (e *LiveTradingEngineV1) handler(run *liveRun, source string) prefetch.BarHandler {
	return func(bar types.MarketData) error {
		if run.callbacks.OnMarketData != nil {
			if err := (*run.callbacks.OnMarketData)(bar); err != nil {
				return fmt.Errorf("OnMarketData callback failed: %w", err)
			}
		}

		result, err := run.runtime.Step(bar)
		if err != nil {
			return fmt.Errorf("failed to process data: %w", err)
		}

		var intent *types.Intent
		if result.Intent.IsSome() {
			value := result.Intent.Unwrap()
			intent = &value
		}

		metrics.RecordBar(source, bar, intent, result.Orders, result.Value)

		return e.notify(run.callbacks, result.Orders, result.Trades)
	}
}

func (e *LiveTradingEngineV1) notify(callbacks engine.LiveTradingCallbacks, orders []types.Order, trades []types.Trade) error {
	if callbacks.OnOrder != nil {
		for _, order := range orders {
			if err := (*callbacks.OnOrder)(order); err != nil {
				return fmt.Errorf("OnOrder callback failed: %w", err)
			}
		}
	}

	if callbacks.OnTrade != nil {
		for _, trade := range trades {
			if err := (*callbacks.OnTrade)(trade); err != nil {
				return fmt.Errorf("OnTrade callback failed: %w", err)
			}
		}
	}

	return nil
}

// finish cancels pending orders, stops the strategy and, with a session
// folder, writes the ledger and the stats before printing the report.
func (e *LiveTradingEngineV1) finish(run *liveRun) error {
	defer run.ledger.Close()

	finalValue, err := run.runtime.Finish(types.OrderReasonEngineStopped)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	totalFees, err := run.ledger.GetTotalFees()
	if err != nil {
		return fmt.Errorf("failed to get total fees: %w", err)
	}

	stats := types.TradeStats{
		ID:             run.runID,
		Timestamp:      e.now(),
		Symbol:         e.config.Symbol,
		StrategyName:   run.strategy.Name(),
		Period:         e.config.Period,
		InitialCapital: e.config.InitialCapital,
		FinalValue:     finalValue,
		TotalFees:      totalFees,
		Bars:           run.runtime.Bars(),
		TradeAnalysis:  run.analyzers.Trades.Analysis(),
		SQN:            run.analyzers.SQN.Value(),
		DrawDown:       run.analyzers.DrawDown.Result(),
	}

	if e.sessionManager != nil {
		folder := e.sessionManager.GetCurrentRunPath()

		if err := run.ledger.Write(folder); err != nil {
			return fmt.Errorf("failed to write state: %w", err)
		}

		stats.TradesFilePath = e.sessionManager.GetFilePath(state.TradesParquetFile)
		stats.OrdersFilePath = e.sessionManager.GetFilePath(state.OrdersParquetFile)

		if err := types.WriteTradeStats(e.sessionManager.GetFilePath(StatsFile), []types.TradeStats{stats}); err != nil {
			return fmt.Errorf("failed to write stats: %w", err)
		}
	}

	if err := report.PrintStats(e.output, stats); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}

	return nil
}

// preRunCheck validates that all required components are configured before running.
func (e *LiveTradingEngineV1) preRunCheck() error {
	if !e.initialized {
		return errors.New(errors.ErrCodeBacktestInitFailed, "engine not initialized - call Initialize() first")
	}

	if e.marketDataProvider == nil {
		return errors.New(errors.ErrCodeBacktestInitFailed, "market data provider not set - call SetMarketDataProvider() first")
	}

	return nil
}

// Verify LiveTradingEngineV1 implements engine.LiveTradingEngine interface.
var _ engine.LiveTradingEngine = (*LiveTradingEngineV1)(nil)
