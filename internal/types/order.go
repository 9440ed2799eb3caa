package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
)

type PurchaseType string

type OrderType string

// OrderStatus is the lifecycle state reported for an order by the broker.
type OrderStatus string

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

const (
	OrderTypeMarket OrderType = "MARKET"
)

const (
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	OrderStatusAccepted  OrderStatus = "ACCEPTED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
	OrderStatusMargin    OrderStatus = "MARGIN"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

const (
	OrderReasonEnterLong        string = "close_above_sma"
	OrderReasonExitToFlat       string = "close_below_sma"
	OrderReasonInvalidPrice     string = "invalid_price"
	OrderReasonInsufficientCash string = "insufficient_cash"
	OrderReasonNoHoldings       string = "no_holdings"
	OrderReasonEndOfData        string = "end_of_data"
	OrderReasonEngineStopped    string = "engine_stopped"
)

// IsTerminal reports whether no further notification follows this status.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCanceled, OrderStatusMargin, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// IsFailure reports whether the order ended without execution.
func (s OrderStatus) IsFailure() bool {
	return s == OrderStatusCanceled || s == OrderStatusMargin || s == OrderStatusRejected
}

// ExecutionDetail holds what the broker actually did with a completed order.
type ExecutionDetail struct {
	Price      float64   `yaml:"price" json:"price"`
	Quantity   float64   `yaml:"quantity" json:"quantity"`
	Value      float64   `yaml:"value" json:"value"`
	Commission float64   `yaml:"commission" json:"commission"`
	ExecutedAt time.Time `yaml:"executed_at" json:"executed_at"`
}

type Order struct {
	OrderID   string       `yaml:"order_id" json:"order_id" validate:"required,uuid"`
	Symbol    string       `yaml:"symbol" json:"symbol" validate:"required"`
	Side      PurchaseType `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	OrderType OrderType    `yaml:"order_type" json:"order_type" validate:"required,oneof=MARKET"`
	Quantity  float64      `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	Status    OrderStatus  `yaml:"status" json:"status" validate:"required"`
	CreatedAt time.Time    `yaml:"created_at" json:"created_at"`
	// Reason is a short machine-readable tag such as "close_above_sma" or "insufficient_cash".
	Reason       string `yaml:"reason" json:"reason"`
	StrategyName string `yaml:"strategy_name" json:"strategy_name" validate:"required"`
	// Executed is zero until the order is COMPLETED.
	Executed ExecutionDetail `yaml:"executed" json:"executed"`
}

func (o Order) IsBuy() bool {
	return o.Side == PurchaseTypeBuy
}

func (o Order) IsSell() bool {
	return o.Side == PurchaseTypeSell
}

// WithStatus returns a copy of the order carrying status and reason.
func (o Order) WithStatus(status OrderStatus, reason string) Order {
	o.Status = status
	if reason != "" {
		o.Reason = reason
	}

	return o
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}
