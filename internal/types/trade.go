package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one round trip: opened by a buy fill and closed by the matching sell fill.
type Trade struct {
	TradeID         string    `yaml:"trade_id" json:"trade_id"`
	Symbol          string    `yaml:"symbol" json:"symbol"`
	Quantity        float64   `yaml:"quantity" json:"quantity"`
	EntryPrice      float64   `yaml:"entry_price" json:"entry_price"`
	ExitPrice       float64   `yaml:"exit_price" json:"exit_price"`
	EntryCommission float64   `yaml:"entry_commission" json:"entry_commission"`
	ExitCommission  float64   `yaml:"exit_commission" json:"exit_commission"`
	OpenedAt        time.Time `yaml:"opened_at" json:"opened_at"`
	ClosedAt        time.Time `yaml:"closed_at" json:"closed_at"`
	BarOpen         int       `yaml:"bar_open" json:"bar_open"`
	BarClose        int       `yaml:"bar_close" json:"bar_close"`
	// PnL is the gross profit and loss, (exit - entry) * quantity.
	PnL float64 `yaml:"pnl" json:"pnl"`
	// PnLComm is PnL minus both commissions.
	PnLComm  float64 `yaml:"pnl_comm" json:"pnl_comm"`
	IsClosed bool    `yaml:"is_closed" json:"is_closed"`
}

// Commission returns the total commission paid on both legs.
func (t Trade) Commission() float64 {
	total, _ := decimal.NewFromFloat(t.EntryCommission).Add(decimal.NewFromFloat(t.ExitCommission)).Float64()

	return total
}

// Close settles the trade at the exit fill and computes gross and net pnl with decimal arithmetic.
func (t *Trade) Close(exitPrice float64, exitCommission float64, at time.Time, bar int) {
	qty := decimal.NewFromFloat(t.Quantity)
	entry := qty.Mul(decimal.NewFromFloat(t.EntryPrice))
	exit := qty.Mul(decimal.NewFromFloat(exitPrice))
	gross := exit.Sub(entry)
	net := gross.Sub(decimal.NewFromFloat(t.EntryCommission)).Sub(decimal.NewFromFloat(exitCommission))

	t.ExitPrice = exitPrice
	t.ExitCommission = exitCommission
	t.ClosedAt = at
	t.BarClose = bar
	t.PnL, _ = gross.Float64()
	t.PnLComm, _ = net.Float64()
	t.IsClosed = true
}

// HoldingBars returns the number of bars between entry and exit fills.
func (t Trade) HoldingBars() int {
	if !t.IsClosed {
		return 0
	}

	return t.BarClose - t.BarOpen
}
