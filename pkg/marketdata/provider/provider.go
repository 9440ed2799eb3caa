package provider

import (
	"context"
	"iter"
	"time"

	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

type Provider interface {
	// Backfill yields the closed bars of symbol opening between start and end,
	// oldest first. A bar still forming at end is not yielded.
	// example:
	// Backfill(ctx, "BTCUSDT", IntervalOneMinute, time.Now().Add(-50*time.Minute), time.Now())
	Backfill(ctx context.Context, symbol string, interval Interval, start time.Time, end time.Time) iter.Seq2[types.MarketData, error]
	// Stream returns an iterator that yields closed bars via WebSocket as they
	// complete. Cancel the context to stop streaming.
	Stream(ctx context.Context, symbols []string, interval Interval) iter.Seq2[types.MarketData, error]
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
// apiKey is required by polygon and ignored by binance.
func NewMarketDataProvider(providerType ProviderType, apiKey string) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		return NewPolygonClient(apiKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

func validateStream(symbols []string, interval Interval) error {
	if len(symbols) == 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "no symbols provided")
	}

	_, err := ParseInterval(string(interval))

	return err
}
