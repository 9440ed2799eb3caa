// Package paper implements a simulated broker that fills market orders at
// the open of the bar after submission.
package paper

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/trading"
	"github.com/rxtech-lab/argo-sma/internal/trading/commission_fee"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/internal/utils"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	// InitialCapital is the starting cash.
	InitialCapital float64 `yaml:"initial_capital" validate:"gt=0"`
	// Stake is the fixed quantity of every buy order.
	Stake float64 `yaml:"stake" validate:"gt=0"`
	// DecimalPrecision is the number of decimals kept on order quantities.
	DecimalPrecision int    `yaml:"decimal_precision" validate:"gte=0,lte=12"`
	StrategyName     string `yaml:"strategy_name" validate:"required"`
}

// PaperTrading is a single-symbol simulated broker.
type PaperTrading struct {
	config     Config
	commission commission_fee.CommissionFee
	validate   *validator.Validate
	log        *logger.Logger

	cash      decimal.Decimal
	positions map[string]types.Position
	lastClose map[string]float64
	openTrade map[string]types.Trade
	pending   []types.Order

	orderEvents []types.Order
	tradeEvents []types.Trade

	bar     int
	barTime time.Time
}

var _ trading.Broker = (*PaperTrading)(nil)

func NewPaperTrading(config Config, commission commission_fee.CommissionFee, log *logger.Logger) (*PaperTrading, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid paper trading config", err)
	}

	if commission == nil {
		commission = commission_fee.NewZeroCommissionFee()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &PaperTrading{
		config:      config,
		commission:  commission,
		validate:    validate,
		log:         log,
		cash:        decimal.NewFromFloat(config.InitialCapital),
		positions:   make(map[string]types.Position),
		lastClose:   make(map[string]float64),
		openTrade:   make(map[string]types.Trade),
		pending:     []types.Order{},
		orderEvents: []types.Order{},
		tradeEvents: []types.Trade{},
		bar:         0,
		barTime:     time.Time{},
	}, nil
}

// Buy implements trading.OrderSink.
func (p *PaperTrading) Buy(symbol string) (types.Order, error) {
	quantity := utils.RoundToDecimalPrecision(p.config.Stake, p.config.DecimalPrecision)

	return p.submit(symbol, types.PurchaseTypeBuy, quantity)
}

// Sell implements trading.OrderSink. The whole holding is sold; there is no short selling.
func (p *PaperTrading) Sell(symbol string) (types.Order, error) {
	position := p.Position(symbol)
	if position.Quantity <= 0 {
		return types.Order{}, errors.Newf(errors.ErrCodeNoHoldings, "no holdings of %s to sell", symbol)
	}

	return p.submit(symbol, types.PurchaseTypeSell, position.Quantity)
}

func (p *PaperTrading) submit(symbol string, side types.PurchaseType, quantity float64) (types.Order, error) {
	order := types.Order{
		OrderID:      uuid.New().String(),
		Symbol:       symbol,
		Side:         side,
		OrderType:    types.OrderTypeMarket,
		Quantity:     quantity,
		Status:       types.OrderStatusSubmitted,
		CreatedAt:    p.barTime,
		Reason:       "",
		StrategyName: p.config.StrategyName,
		Executed:     types.ExecutionDetail{},
	}

	if err := p.validate.Struct(order); err != nil {
		return types.Order{}, errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	p.pending = append(p.pending, order)
	p.orderEvents = append(p.orderEvents, order, order.WithStatus(types.OrderStatusAccepted, ""))

	p.log.Debug("order submitted",
		zap.String("order_id", order.OrderID),
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Float64("quantity", quantity),
	)

	return order, nil
}

// Next implements trading.Broker.
func (p *PaperTrading) Next(bar types.MarketData) {
	p.bar++
	p.barTime = bar.Time

	pending := p.pending
	p.pending = []types.Order{}

	for _, order := range pending {
		if order.Symbol != bar.Symbol && bar.Symbol != "" {
			p.pending = append(p.pending, order)

			continue
		}

		p.fill(order, bar)
	}

	if !math.IsNaN(bar.Close) && bar.Close > 0 {
		p.lastClose[bar.Symbol] = bar.Close
	}
}

func (p *PaperTrading) fill(order types.Order, bar types.MarketData) {
	price := bar.Open
	if math.IsNaN(price) || price <= 0 {
		p.reject(order, types.OrderStatusRejected, types.OrderReasonInvalidPrice)

		return
	}

	quantity := decimal.NewFromFloat(order.Quantity)
	value := quantity.Mul(decimal.NewFromFloat(price))
	commission := decimal.NewFromFloat(p.commission.Calculate(order.Quantity, price))

	if order.IsBuy() {
		if value.Add(commission).GreaterThan(p.cash) {
			cash, _ := p.cash.Float64()
			p.log.Debug("insufficient cash",
				zap.String("order_id", order.OrderID),
				zap.Float64("cash", cash),
				zap.Float64("cost", value.Add(commission).InexactFloat64()),
			)
			p.reject(order, types.OrderStatusMargin, types.OrderReasonInsufficientCash)

			return
		}

		p.cash = p.cash.Sub(value).Sub(commission)
	} else {
		if p.Position(order.Symbol).Quantity < order.Quantity {
			p.reject(order, types.OrderStatusRejected, types.OrderReasonNoHoldings)

			return
		}

		p.cash = p.cash.Add(value).Sub(commission)
	}

	valueF, _ := value.Float64()
	commissionF, _ := commission.Float64()

	completed := order.WithStatus(types.OrderStatusCompleted, "")
	completed.Executed = types.ExecutionDetail{
		Price:      price,
		Quantity:   order.Quantity,
		Value:      valueF,
		Commission: commissionF,
		ExecutedAt: bar.Time,
	}
	p.orderEvents = append(p.orderEvents, completed)

	p.updatePosition(completed)
}

func (p *PaperTrading) updatePosition(order types.Order) {
	symbol := order.Symbol
	position := p.positions[symbol]
	detail := order.Executed

	if order.IsBuy() {
		total := decimal.NewFromFloat(position.Quantity).Mul(decimal.NewFromFloat(position.AveragePrice)).
			Add(decimal.NewFromFloat(detail.Value))
		qty := decimal.NewFromFloat(position.Quantity).Add(decimal.NewFromFloat(detail.Quantity))

		position.Symbol = symbol
		position.Quantity, _ = qty.Float64()
		position.AveragePrice, _ = total.Div(qty).Float64()
		p.positions[symbol] = position

		trade, ok := p.openTrade[symbol]
		if !ok {
			trade = types.Trade{
				TradeID:         uuid.New().String(),
				Symbol:          symbol,
				Quantity:        0,
				EntryCommission: 0,
				OpenedAt:        detail.ExecutedAt,
				BarOpen:         p.bar,
			}
		}

		trade.Quantity = position.Quantity
		trade.EntryPrice = position.AveragePrice
		trade.EntryCommission, _ = decimal.NewFromFloat(trade.EntryCommission).
			Add(decimal.NewFromFloat(detail.Commission)).Float64()
		p.openTrade[symbol] = trade
		p.tradeEvents = append(p.tradeEvents, trade)

		return
	}

	remaining, _ := decimal.NewFromFloat(position.Quantity).Sub(decimal.NewFromFloat(detail.Quantity)).Float64()
	if remaining > 0 {
		position.Quantity = remaining
		p.positions[symbol] = position

		return
	}

	delete(p.positions, symbol)

	trade := p.openTrade[symbol]
	trade.Close(detail.Price, detail.Commission, detail.ExecutedAt, p.bar)
	delete(p.openTrade, symbol)

	p.tradeEvents = append(p.tradeEvents, trade)
}

func (p *PaperTrading) reject(order types.Order, status types.OrderStatus, reason string) {
	p.log.Debug("order not filled",
		zap.String("order_id", order.OrderID),
		zap.String("status", string(status)),
		zap.String("reason", reason),
	)

	p.orderEvents = append(p.orderEvents, order.WithStatus(status, reason))
}

// Drain implements trading.Broker.
func (p *PaperTrading) Drain() ([]types.Order, []types.Trade) {
	orders := p.orderEvents
	trades := p.tradeEvents
	p.orderEvents = []types.Order{}
	p.tradeEvents = []types.Trade{}

	return orders, trades
}

// CancelAll implements trading.Broker.
func (p *PaperTrading) CancelAll(reason string) {
	for _, order := range p.pending {
		p.orderEvents = append(p.orderEvents, order.WithStatus(types.OrderStatusCanceled, reason))
	}

	p.pending = []types.Order{}
}

// Pending returns the orders waiting for the next bar.
func (p *PaperTrading) Pending() []types.Order {
	return append([]types.Order(nil), p.pending...)
}

// Value implements trading.Broker.
func (p *PaperTrading) Value() float64 {
	value := p.cash
	for symbol, position := range p.positions {
		value = value.Add(decimal.NewFromFloat(position.Quantity).Mul(decimal.NewFromFloat(p.lastClose[symbol])))
	}

	result, _ := value.Float64()

	return result
}

// Cash implements trading.Broker.
func (p *PaperTrading) Cash() float64 {
	cash, _ := p.cash.Float64()

	return cash
}

// Position implements trading.Broker.
func (p *PaperTrading) Position(symbol string) types.Position {
	position, ok := p.positions[symbol]
	if !ok {
		return types.Position{Symbol: symbol, Quantity: 0, AveragePrice: 0}
	}

	return position
}

// OpenTrade returns the trade currently open for symbol, if any.
func (p *PaperTrading) OpenTrade(symbol string) optional.Option[types.Trade] {
	trade, ok := p.openTrade[symbol]
	if !ok {
		return optional.None[types.Trade]()
	}

	return optional.Some(trade)
}
