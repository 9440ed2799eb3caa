// Package prefetch replays recent history through the live engine before the
// stream starts and fills the gap between the two.
package prefetch

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/trading/engine"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// BarHandler processes one closed bar in the engine loop.
type BarHandler func(bar types.MarketData) error

// PrefetchManager handles historical data prefetching and gap filling.
type PrefetchManager struct {
	provider       provider.Provider
	interval       provider.Interval
	window         time.Duration
	logger         *logger.Logger
	onStatusUpdate *engine.OnStatusUpdateCallback
	now            func() time.Time
	// last holds the open time of the newest bar handed to the engine per symbol
	last map[string]time.Time
}

// NewPrefetchManager creates a new PrefetchManager instance.
func NewPrefetchManager(log *logger.Logger) *PrefetchManager {
	return &PrefetchManager{
		provider:       nil,
		interval:       "",
		window:         0,
		logger:         log,
		onStatusUpdate: nil,
		now:            time.Now,
		last:           make(map[string]time.Time),
	}
}

// Initialize sets up the prefetch manager with required components.
func (p *PrefetchManager) Initialize(
	prov provider.Provider,
	interval provider.Interval,
	window time.Duration,
	onStatusUpdate *engine.OnStatusUpdateCallback,
) {
	p.provider = prov
	p.interval = interval
	p.window = window
	p.onStatusUpdate = onStatusUpdate
}

// SetClock replaces the clock used to compute the backfill window.
func (p *PrefetchManager) SetClock(now func() time.Time) {
	p.now = now
}

func (p *PrefetchManager) emitStatus(status types.EngineStatus) error {
	if p.onStatusUpdate != nil {
		return (*p.onStatusUpdate)(status)
	}

	return nil
}

// IsEnabled returns whether a backfill window is configured.
func (p *PrefetchManager) IsEnabled() bool {
	return p.window > 0
}

// ExecutePrefetch hands every closed bar of the backfill window to handle,
// oldest first. It returns the number of bars handled.
func (p *PrefetchManager) ExecutePrefetch(ctx context.Context, symbol string, handle BarHandler) (int, error) {
	if !p.IsEnabled() {
		p.logger.Info("Prefetch is disabled, skipping")

		return 0, nil
	}

	if err := p.emitStatus(types.EngineStatusPrefetching); err != nil {
		return 0, err
	}

	end := p.now()
	start := end.Add(-p.window)

	p.logger.Info("Starting historical data prefetch",
		zap.String("symbol", symbol),
		zap.Time("start_time", start),
		zap.Time("end_time", end),
		zap.String("interval", string(p.interval)),
	)

	count, err := p.replay(ctx, symbol, start, end, handle)
	if err != nil {
		return count, err
	}

	p.logger.Info("Prefetch completed",
		zap.String("symbol", symbol),
		zap.Int("bars", count),
	)

	return count, nil
}

// LastBarTime returns the open time of the newest bar handed to the engine.
func (p *PrefetchManager) LastBarTime(symbol string) (time.Time, bool) {
	last, ok := p.last[symbol]

	return last, ok
}

// DetectGap returns how much time is missing between the newest handled bar
// and the first streamed bar. It is 0 when nothing was prefetched.
func (p *PrefetchManager) DetectGap(firstStreamTime time.Time, symbol string) time.Duration {
	last, ok := p.last[symbol]
	if !ok {
		return 0
	}

	gap := firstStreamTime.Sub(last.Add(p.interval.Duration()))
	if gap <= 0 {
		return 0
	}

	p.logger.Info("Gap detected",
		zap.String("symbol", symbol),
		zap.Time("last_bar", last),
		zap.Time("first_stream", firstStreamTime),
		zap.Duration("gap", gap),
	)

	return gap
}

// HandleStreamStart fills the gap before the first streamed bar, then
// reports the running status.
func (p *PrefetchManager) HandleStreamStart(ctx context.Context, firstStreamTime time.Time, symbol string, handle BarHandler) error {
	if gap := p.DetectGap(firstStreamTime, symbol); gap > 0 {
		if err := p.emitStatus(types.EngineStatusGapFilling); err != nil {
			return err
		}

		from := p.last[symbol].Add(p.interval.Duration())

		count, err := p.replay(ctx, symbol, from, firstStreamTime, handle)
		if err != nil {
			return err
		}

		p.logger.Info("Gap filled",
			zap.String("symbol", symbol),
			zap.Int("bars", count),
		)
	}

	return p.emitStatus(types.EngineStatusRunning)
}

// Accept reports whether bar is newer than every bar handled so far and
// records it. Streams may redeliver the bar that closed during the backfill.
func (p *PrefetchManager) Accept(bar types.MarketData) bool {
	if last, ok := p.last[bar.Symbol]; ok && !bar.Time.After(last) {
		return false
	}

	p.last[bar.Symbol] = bar.Time

	return true
}

func (p *PrefetchManager) replay(ctx context.Context, symbol string, start time.Time, end time.Time, handle BarHandler) (int, error) {
	count := 0

	for bar, err := range p.provider.Backfill(ctx, symbol, p.interval, start, end) {
		if err != nil {
			return count, err
		}

		if !p.Accept(bar) {
			continue
		}

		if err := handle(bar); err != nil {
			return count, err
		}

		count++
	}

	return count, nil
}
