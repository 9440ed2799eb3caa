package engine

import (
	"context"
	"io"

	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/marketdata/provider"
)

// Lifecycle callback types for live trading phases.
// Callbacks returning an error abort the run.

// OnEngineStartCallback is called once the strategy is set up, before the backfill.
type OnEngineStartCallback func(symbols []string, interval string) error

// OnEngineStopCallback is called when the engine stops (always called via defer).
type OnEngineStopCallback func(err error)

// OnMarketDataCallback is called for each closed bar, backfilled or streamed.
type OnMarketDataCallback func(data types.MarketData) error

// OnOrderCallback is called for each order notification delivered to the strategy.
type OnOrderCallback func(order types.Order) error

// OnTradeCallback is called when a trade opens or closes.
type OnTradeCallback func(trade types.Trade) error

// OnErrorCallback is called when the market data stream reports an error.
type OnErrorCallback func(err error)

// OnStatusUpdateCallback is called when the engine changes phase.
type OnStatusUpdateCallback func(status types.EngineStatus) error

// LiveTradingCallbacks holds all lifecycle callback functions for the live trading engine.
// All fields are pointers - nil means no callback will be invoked.
type LiveTradingCallbacks struct {
	OnEngineStart  *OnEngineStartCallback
	OnEngineStop   *OnEngineStopCallback
	OnMarketData   *OnMarketDataCallback
	OnOrder        *OnOrderCallback
	OnTrade        *OnTradeCallback
	OnError        *OnErrorCallback
	OnStatusUpdate *OnStatusUpdateCallback
}

// LiveTradingEngine runs the strategy on a backfill window and then on bars
// streamed from a market data provider.
type LiveTradingEngine interface {
	// Initialize validates the configuration and prepares the session folder.
	Initialize(config LiveTradingEngineConfig) error

	// SetMarketDataProvider configures the provider bars are backfilled and streamed from.
	SetMarketDataProvider(provider provider.Provider) error

	// SetOutput sets where the final report is printed.
	SetOutput(w io.Writer)

	// Run blocks until the context is canceled or the stream fails.
	Run(ctx context.Context, callbacks LiveTradingCallbacks) error

	// GetConfigSchema returns the JSON schema for engine configuration.
	GetConfigSchema() (string, error)
}
