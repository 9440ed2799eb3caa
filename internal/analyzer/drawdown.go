package analyzer

import (
	"math"

	"github.com/rxtech-lab/argo-sma/internal/types"
)

// DrawDown tracks the decline of the portfolio value from its running peak.
type DrawDown struct {
	result  types.DrawDownResult
	peak    float64
	started bool
}

func NewDrawDown() *DrawDown {
	return &DrawDown{
		result:  types.DrawDownResult{},
		peak:    0,
		started: false,
	}
}

func (d *DrawDown) NotifyTrade(_ types.Trade) {}

func (d *DrawDown) Next(value float64) {
	if math.IsNaN(value) {
		return
	}

	if !d.started || value > d.peak {
		d.peak = value
		d.started = true
	}

	d.result.MoneyDown = d.peak - value
	if d.peak > 0 {
		d.result.DrawDown = 100 * d.result.MoneyDown / d.peak
	} else {
		d.result.DrawDown = 0
	}

	if d.result.MoneyDown > 0 {
		d.result.Length++
	} else {
		d.result.Length = 0
	}

	d.result.MaxDrawDown = math.Max(d.result.MaxDrawDown, d.result.DrawDown)
	d.result.MaxMoneyDown = math.Max(d.result.MaxMoneyDown, d.result.MoneyDown)
	d.result.MaxLength = max(d.result.MaxLength, d.result.Length)
}

func (d *DrawDown) Result() types.DrawDownResult {
	return d.result
}
