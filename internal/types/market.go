package types

import (
	"math"
	"time"
)

// MarketData is one OHLCV bar. Missing prices are represented as NaN.
type MarketData struct {
	Symbol string    `csv:"symbol" yaml:"symbol" json:"symbol"`
	Time   time.Time `csv:"time" yaml:"time" json:"time"`
	Open   float64   `csv:"open" yaml:"open" json:"open"`
	High   float64   `csv:"high" yaml:"high" json:"high"`
	Low    float64   `csv:"low" yaml:"low" json:"low"`
	Close  float64   `csv:"close" yaml:"close" json:"close"`
	Volume float64   `csv:"volume" yaml:"volume" json:"volume"`
}

// HasMissingPrice reports whether the open or close of the bar is NaN.
func (m MarketData) HasMissingPrice() bool {
	return math.IsNaN(m.Open) || math.IsNaN(m.Close)
}
