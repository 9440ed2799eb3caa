package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
)

// SMA is the simple moving average of the last period closes.
// The mean is recomputed over the window on every update so that a NaN close
// only affects the bars whose window contains it.
type SMA struct {
	period int
	window *ringBuffer
	value  float64
	seen   int
}

// NewSMA creates a new SMA indicator. period must be positive.
func NewSMA(period int) (*SMA, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return &SMA{
		period: period,
		window: newRingBuffer(period),
		value:  math.NaN(),
		seen:   0,
	}, nil
}

func (s *SMA) Name() IndicatorType {
	return IndicatorTypeSMA
}

func (s *SMA) Period() int {
	return s.period
}

func (s *SMA) Update(bar types.MarketData) float64 {
	s.window.Add(bar.Close)
	s.seen++

	if s.window.Len() < s.period {
		s.value = math.NaN()

		return s.value
	}

	sum := 0.0
	for _, v := range s.window.Values() {
		sum += v
	}

	// NaN propagates through the sum
	s.value = sum / float64(s.period)

	return s.value
}

func (s *SMA) Value() float64 {
	return s.value
}

func (s *SMA) Ready() bool {
	return s.seen >= s.period
}

// Current returns the last value or an InsufficientDataError while warming up.
func (s *SMA) Current(symbol string) (float64, error) {
	if !s.Ready() {
		return math.NaN(), errors.NewInsufficientDataErrorf(s.period, s.seen, symbol,
			"sma(%d) needs %d closes, have %d", s.period, s.period, s.seen)
	}

	return s.value, nil
}

func (s *SMA) Reset() {
	s.window.Reset()
	s.value = math.NaN()
	s.seen = 0
}
