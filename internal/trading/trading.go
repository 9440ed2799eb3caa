package trading

import "github.com/rxtech-lab/argo-sma/internal/types"

// OrderSink accepts market orders sized by the sink's own sizer.
type OrderSink interface {
	// Buy submits a market buy for symbol and returns the submitted order
	Buy(symbol string) (types.Order, error)
	// Sell submits a market sell of the current holding of symbol
	Sell(symbol string) (types.Order, error)
}

// Broker is an OrderSink that fills its orders against incoming bars and
// queues the resulting order and trade notifications.
type Broker interface {
	OrderSink
	// Next fills pending orders against bar and records its close for valuation
	Next(bar types.MarketData)
	// Drain returns the queued order and trade notifications, in delivery order,
	// and empties the queue
	Drain() ([]types.Order, []types.Trade)
	// CancelAll cancels every pending order with reason
	CancelAll(reason string)
	// Value returns cash plus holdings marked at the last valid close
	Value() float64
	Cash() float64
	Position(symbol string) types.Position
}
