package indicator

import "github.com/rxtech-lab/argo-sma/internal/types"

type IndicatorType string

const (
	IndicatorTypeSMA IndicatorType = "sma"
)

// Indicator is a streaming indicator fed one bar at a time.
type Indicator interface {
	// Name returns the name of the indicator
	Name() IndicatorType
	// Update pushes the bar into the indicator and returns the new value
	Update(bar types.MarketData) float64
	// Value returns the last computed value, NaN while warming up
	Value() float64
	// Ready reports whether enough bars were seen to produce a value
	Ready() bool
	Reset()
}
