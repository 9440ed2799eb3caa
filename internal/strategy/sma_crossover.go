package strategy

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-sma/internal/indicator"
	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/trading"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"go.uber.org/zap"
)

const SMACrossoverName = "SMACrossover"

type SMACrossoverConfig struct {
	Period   int  `yaml:"period" json:"period" jsonschema:"title=Period,description=Number of closes in the moving average,minimum=1,default=15" validate:"gt=0"`
	PrintLog bool `yaml:"print_log" json:"print_log" jsonschema:"title=Print Log,description=Log every bar and order event,default=false"`
}

// DefaultBacktestConfig returns the configuration used for historical runs.
func DefaultBacktestConfig() SMACrossoverConfig {
	return SMACrossoverConfig{Period: 15, PrintLog: false}
}

// DefaultLiveConfig returns the configuration used when streaming live bars.
func DefaultLiveConfig() SMACrossoverConfig {
	return SMACrossoverConfig{Period: 1, PrintLog: true}
}

// SMACrossoverState is a snapshot of the strategy's bookkeeping.
type SMACrossoverState struct {
	Position    types.PositionState
	Pending     optional.Option[types.Order]
	BuyPrice    float64
	BuyComm     float64
	BarExecuted int
	Bar         int
}

// SMACrossover goes long when the close crosses above its simple moving
// average and back to flat when it crosses below. At most one order is
// outstanding at any time.
type SMACrossover struct {
	config SMACrossoverConfig
	sink   trading.OrderSink
	sma    *indicator.SMA
	log    *logger.Logger

	position    types.PositionState
	pending     optional.Option[types.Order]
	buyPrice    float64
	buyComm     float64
	barExecuted int
	bar         int
	current     types.MarketData
}

var _ TradingStrategy = (*SMACrossover)(nil)

func NewSMACrossover(config SMACrossoverConfig, sink trading.OrderSink, log *logger.Logger) (*SMACrossover, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid sma crossover config", err)
	}

	if sink == nil {
		return nil, errors.New(errors.ErrCodeStrategyConfigError, "order sink is required")
	}

	sma, err := indicator.NewSMA(config.Period)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &SMACrossover{
		config:      config,
		sink:        sink,
		sma:         sma,
		log:         log,
		position:    types.PositionFlat,
		pending:     optional.None[types.Order](),
		buyPrice:    0,
		buyComm:     0,
		barExecuted: 0,
		bar:         0,
		current:     types.MarketData{},
	}, nil
}

func (s *SMACrossover) Name() string {
	return SMACrossoverName
}

func (s *SMACrossover) Config() SMACrossoverConfig {
	return s.config
}

func (s *SMACrossover) State() SMACrossoverState {
	return SMACrossoverState{
		Position:    s.position,
		Pending:     s.pending,
		BuyPrice:    s.buyPrice,
		BuyComm:     s.buyComm,
		BarExecuted: s.barExecuted,
		Bar:         s.bar,
	}
}

// ProcessData implements TradingStrategy.
func (s *SMACrossover) ProcessData(bar types.MarketData) optional.Option[types.Intent] {
	s.bar++
	s.current = bar
	average := s.sma.Update(bar)

	s.logf("Open, %.2f, Close, %.2f, SMA, %.2f", bar.Open, bar.Close, average)

	if bar.HasMissingPrice() || math.IsNaN(average) {
		return optional.None[types.Intent]()
	}

	if s.pending.IsSome() {
		return optional.None[types.Intent]()
	}

	switch {
	case s.position == types.PositionFlat && bar.Close > average:
		s.logf("BUY CREATE, %.2f", bar.Close)

		order, err := s.sink.Buy(bar.Symbol)
		if err != nil {
			s.log.Warn("buy refused", zap.String("symbol", bar.Symbol), zap.Error(err))

			return optional.None[types.Intent]()
		}

		return s.submitted(order, types.IntentEnterLong, bar, average)
	case s.position == types.PositionLong && bar.Close < average:
		s.logf("SELL CREATE, %.2f", bar.Close)

		order, err := s.sink.Sell(bar.Symbol)
		if err != nil {
			s.log.Warn("sell refused", zap.String("symbol", bar.Symbol), zap.Error(err))

			return optional.None[types.Intent]()
		}

		return s.submitted(order, types.IntentExitToFlat, bar, average)
	default:
		return optional.None[types.Intent]()
	}
}

func (s *SMACrossover) submitted(order types.Order, intent types.IntentType, bar types.MarketData, average float64) optional.Option[types.Intent] {
	s.pending = optional.Some(order)

	return optional.Some(types.Intent{
		Type:    intent,
		Symbol:  bar.Symbol,
		Time:    bar.Time,
		Close:   bar.Close,
		Average: average,
		OrderID: order.OrderID,
	})
}

// NotifyOrder implements TradingStrategy.
func (s *SMACrossover) NotifyOrder(order types.Order) {
	pending, err := s.pending.Take()
	if err != nil || pending.OrderID != order.OrderID {
		s.log.Debug("ignoring notification for unknown order",
			zap.String("order_id", order.OrderID),
			zap.String("status", string(order.Status)),
		)

		return
	}

	switch order.Status {
	case types.OrderStatusSubmitted, types.OrderStatusAccepted:
		return
	case types.OrderStatusCompleted:
		detail := order.Executed
		if order.IsBuy() {
			s.position = types.PositionLong
			s.buyPrice = detail.Price
			s.buyComm = detail.Commission
			s.logf("BUY EXECUTED, Price: %.2f, Cost: %.2f, Comm %.2f", detail.Price, detail.Value, detail.Commission)
		} else {
			s.position = types.PositionFlat
			s.logf("SELL EXECUTED, Price: %.2f, Cost: %.2f, Comm %.2f", detail.Price, detail.Value, detail.Commission)
		}

		s.barExecuted = s.bar
	case types.OrderStatusCanceled, types.OrderStatusMargin, types.OrderStatusRejected:
		s.logf("Order Canceled/Margin/Rejected: %s", order.Status)
	default:
		s.log.Warn("unknown order status", zap.String("status", string(order.Status)))

		return
	}

	s.pending = optional.None[types.Order]()
}

// NotifyTrade implements TradingStrategy.
func (s *SMACrossover) NotifyTrade(trade types.Trade) {
	if !trade.IsClosed {
		return
	}

	s.logf("OPERATION PROFIT, GROSS %.2f, NET %.2f", trade.PnL, trade.PnLComm)
}

// Stop implements TradingStrategy.
func (s *SMACrossover) Stop(finalValue float64) {
	s.log.Info(fmt.Sprintf("(MA Period %2d) Ending Value %.2f", s.config.Period, finalValue),
		zap.String("strategy", s.Name()),
		zap.Int("period", s.config.Period),
		zap.Float64("ending_value", finalValue),
	)
}

func (s *SMACrossover) logf(format string, args ...any) {
	if !s.config.PrintLog {
		return
	}

	s.log.Info(fmt.Sprintf(format, args...),
		zap.String("symbol", s.current.Symbol),
		zap.Time("time", s.current.Time),
	)
}
