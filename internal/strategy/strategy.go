// Package strategy holds the signal engines driven bar by bar by the backtest
// and live hosts.
package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-sma/internal/types"
)

// TradingStrategy receives every bar and every broker notification from a
// single host loop, in order.
type TradingStrategy interface {
	// Name returns the name of the strategy
	Name() string
	// ProcessData evaluates one bar and returns the intent it submitted, if any
	ProcessData(bar types.MarketData) optional.Option[types.Intent]
	// NotifyOrder receives every order status change
	NotifyOrder(order types.Order)
	// NotifyTrade receives trade opens and closes
	NotifyTrade(trade types.Trade)
	// Stop is called once after the last bar with the final portfolio value
	Stop(finalValue float64)
}
