package strategy

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/mocks"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type SMACrossoverTestSuite struct {
	suite.Suite
	ctrl  *gomock.Controller
	sink  *mocks.MockOrderSink
	logs  *observer.ObservedLogs
	log   *logger.Logger
	start time.Time
	index int
}

func TestSMACrossoverSuite(t *testing.T) {
	suite.Run(t, new(SMACrossoverTestSuite))
}

func (suite *SMACrossoverTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.sink = mocks.NewMockOrderSink(suite.ctrl)

	core, logs := observer.New(zap.InfoLevel)
	suite.logs = logs
	suite.log = &logger.Logger{Logger: zap.New(core)}
	suite.start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	suite.index = 0
}

func (suite *SMACrossoverTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *SMACrossoverTestSuite) newStrategy(period int, printLog bool) *SMACrossover {
	s, err := NewSMACrossover(SMACrossoverConfig{Period: period, PrintLog: printLog}, suite.sink, suite.log)
	suite.Require().NoError(err)

	return s
}

func (suite *SMACrossoverTestSuite) nextBar(open, close float64) types.MarketData {
	bar := types.MarketData{
		Symbol: "AAPL",
		Time:   suite.start.Add(time.Duration(suite.index) * 24 * time.Hour),
		Open:   open,
		High:   math.Max(open, close),
		Low:    math.Min(open, close),
		Close:  close,
		Volume: 1000,
	}
	suite.index++

	return bar
}

func newOrder(side types.PurchaseType) types.Order {
	return types.Order{
		OrderID:      uuid.New().String(),
		Symbol:       "AAPL",
		Side:         side,
		OrderType:    types.OrderTypeMarket,
		Quantity:     1,
		Status:       types.OrderStatusSubmitted,
		StrategyName: SMACrossoverName,
	}
}

func completed(order types.Order, price, commission float64) types.Order {
	done := order.WithStatus(types.OrderStatusCompleted, "")
	done.Executed = types.ExecutionDetail{
		Price:      price,
		Quantity:   order.Quantity,
		Value:      price * order.Quantity,
		Commission: commission,
	}

	return done
}

// feed pushes closes through the strategy and returns the index of every bar that produced an intent.
func (suite *SMACrossoverTestSuite) feed(s *SMACrossover, closes ...float64) map[int]types.Intent {
	intents := map[int]types.Intent{}

	for i, c := range closes {
		intent := s.ProcessData(suite.nextBar(c, c))
		if intent.IsSome() {
			intents[i+1] = intent.Unwrap()
		}
	}

	return intents
}

func (suite *SMACrossoverTestSuite) TestInvalidConfig() {
	_, err := NewSMACrossover(SMACrossoverConfig{Period: 0}, suite.sink, nil)
	suite.Error(err)
	suite.Equal(errors.ErrCodeStrategyConfigError, errors.GetCode(err))

	_, err = NewSMACrossover(DefaultBacktestConfig(), nil, nil)
	suite.Error(err)
}

func (suite *SMACrossoverTestSuite) TestDefaults() {
	suite.Equal(SMACrossoverConfig{Period: 15, PrintLog: false}, DefaultBacktestConfig())
	suite.Equal(SMACrossoverConfig{Period: 1, PrintLog: true}, DefaultLiveConfig())

	s := suite.newStrategy(15, false)
	suite.Equal(SMACrossoverName, s.Name())
	suite.Equal(types.PositionFlat, s.State().Position)
	suite.True(s.State().Pending.IsNone())
}

func (suite *SMACrossoverTestSuite) TestCrossoverScenario() {
	s := suite.newStrategy(3, false)

	buy := newOrder(types.PurchaseTypeBuy)
	sell := newOrder(types.PurchaseTypeSell)

	gomock.InOrder(
		suite.sink.EXPECT().Buy("AAPL").Return(buy, nil).Times(1),
		suite.sink.EXPECT().Sell("AAPL").Return(sell, nil).Times(1),
	)

	intents := suite.feed(s, 10, 10, 10, 12)
	suite.Require().Len(intents, 1)
	suite.Equal(types.IntentEnterLong, intents[4].Type)
	suite.Equal(buy.OrderID, intents[4].OrderID)
	suite.InDelta(32.0/3.0, intents[4].Average, 1e-9)

	s.NotifyOrder(buy.WithStatus(types.OrderStatusAccepted, ""))
	suite.Equal(types.PositionFlat, s.State().Position)
	s.NotifyOrder(completed(buy, 12, 0))
	suite.Equal(types.PositionLong, s.State().Position)
	suite.Equal(4, s.State().BarExecuted)

	intent := s.ProcessData(suite.nextBar(8, 8))
	suite.Require().True(intent.IsSome())
	suite.Equal(types.IntentExitToFlat, intent.Unwrap().Type)
	suite.InDelta(10.0, intent.Unwrap().Average, 1e-9)

	s.NotifyOrder(completed(sell, 8, 0))
	suite.Equal(types.PositionFlat, s.State().Position)
	suite.True(s.State().Pending.IsNone())
}

func (suite *SMACrossoverTestSuite) TestNeverTwoOutstandingOrders() {
	s := suite.newStrategy(2, false)

	buy := newOrder(types.PurchaseTypeBuy)
	suite.sink.EXPECT().Buy("AAPL").Return(buy, nil).Times(1)

	intents := suite.feed(s, 10, 12, 14, 16, 18)
	suite.Len(intents, 1)
	suite.True(s.State().Pending.IsSome())
	suite.Equal(types.PositionFlat, s.State().Position)
}

func (suite *SMACrossoverTestSuite) TestNoIntentWhileWarmingUp() {
	s := suite.newStrategy(5, false)
	suite.sink.EXPECT().Buy(gomock.Any()).Times(0)

	intents := suite.feed(s, 1, 2, 3, 4)
	suite.Empty(intents)
}

func (suite *SMACrossoverTestSuite) TestNaNSkipsBar() {
	tests := []struct {
		name  string
		open  float64
		close float64
	}{
		{name: "nan close", open: 20, close: math.NaN()},
		{name: "nan open", open: math.NaN(), close: 20},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.SetupTest()
			s := suite.newStrategy(2, false)
			suite.sink.EXPECT().Buy(gomock.Any()).Times(0)

			s.ProcessData(suite.nextBar(10, 10))
			// without the NaN this bar would cross above the average
			intent := s.ProcessData(suite.nextBar(tc.open, tc.close))
			suite.True(intent.IsNone())
		})
	}
}

func (suite *SMACrossoverTestSuite) TestNaNInWindowSkipsUntilItLeaves() {
	s := suite.newStrategy(2, false)

	buy := newOrder(types.PurchaseTypeBuy)
	suite.sink.EXPECT().Buy("AAPL").Return(buy, nil).Times(1)

	// the window holds the NaN on bars 2 and 3; bar 4 averages 10 and 14
	intents := suite.feed(s, 10, math.NaN(), 10, 14)
	suite.Len(intents, 1)
	suite.Contains(intents, 4)
}

func (suite *SMACrossoverTestSuite) TestBuyOnlyAboveAverage() {
	s := suite.newStrategy(2, false)
	suite.sink.EXPECT().Buy(gomock.Any()).Times(0)
	suite.sink.EXPECT().Sell(gomock.Any()).Times(0)

	// equal or falling closes never cross above; flat never sells
	intents := suite.feed(s, 10, 10, 9, 8, 8)
	suite.Empty(intents)
}

func (suite *SMACrossoverTestSuite) TestRejectedClearsPendingAndResubmits() {
	s := suite.newStrategy(2, false)

	first := newOrder(types.PurchaseTypeBuy)
	second := newOrder(types.PurchaseTypeBuy)
	gomock.InOrder(
		suite.sink.EXPECT().Buy("AAPL").Return(first, nil),
		suite.sink.EXPECT().Buy("AAPL").Return(second, nil),
	)

	suite.feed(s, 10, 11)
	suite.True(s.State().Pending.IsSome())

	s.NotifyOrder(first.WithStatus(types.OrderStatusRejected, types.OrderReasonInvalidPrice))
	suite.True(s.State().Pending.IsNone())
	suite.Equal(types.PositionFlat, s.State().Position)

	intent := s.ProcessData(suite.nextBar(12, 12))
	suite.True(intent.IsSome())
	suite.Equal(second.OrderID, s.State().Pending.Unwrap().OrderID)
}

func (suite *SMACrossoverTestSuite) TestMarginAndCanceledClearPending() {
	for _, status := range []types.OrderStatus{types.OrderStatusMargin, types.OrderStatusCanceled} {
		suite.Run(string(status), func() {
			suite.SetupTest()
			s := suite.newStrategy(2, false)

			buy := newOrder(types.PurchaseTypeBuy)
			suite.sink.EXPECT().Buy("AAPL").Return(buy, nil)

			suite.feed(s, 10, 11)
			s.NotifyOrder(buy.WithStatus(status, ""))

			suite.True(s.State().Pending.IsNone())
			suite.Equal(types.PositionFlat, s.State().Position)
		})
	}
}

func (suite *SMACrossoverTestSuite) TestSinkRefusalDropsIntent() {
	s := suite.newStrategy(2, false)

	buy := newOrder(types.PurchaseTypeBuy)
	gomock.InOrder(
		suite.sink.EXPECT().Buy("AAPL").Return(types.Order{}, errors.New(errors.ErrCodeInvalidOrder, "refused")),
		suite.sink.EXPECT().Buy("AAPL").Return(buy, nil),
	)

	intents := suite.feed(s, 10, 11)
	suite.Empty(intents)
	suite.True(s.State().Pending.IsNone())

	intents = suite.feed(s, 12)
	suite.Len(intents, 1)
}

func (suite *SMACrossoverTestSuite) TestBuyExecutionRecordsPriceAndCommission() {
	s := suite.newStrategy(2, false)

	buy := newOrder(types.PurchaseTypeBuy)
	suite.sink.EXPECT().Buy("AAPL").Return(buy, nil)

	suite.feed(s, 99, 100)
	s.ProcessData(suite.nextBar(100, 101))
	s.NotifyOrder(completed(buy, 100, 1.0))

	state := s.State()
	suite.Equal(100.0, state.BuyPrice)
	suite.Equal(1.0, state.BuyComm)
	suite.Equal(3, state.BarExecuted)
	suite.Equal(types.PositionLong, state.Position)
}

func (suite *SMACrossoverTestSuite) TestUnknownOrderNotificationIgnored() {
	s := suite.newStrategy(2, false)

	buy := newOrder(types.PurchaseTypeBuy)
	suite.sink.EXPECT().Buy("AAPL").Return(buy, nil)
	suite.feed(s, 10, 11)

	other := newOrder(types.PurchaseTypeBuy)
	s.NotifyOrder(completed(other, 11, 0))

	suite.Equal(types.PositionFlat, s.State().Position)
	suite.Equal(buy.OrderID, s.State().Pending.Unwrap().OrderID)
}

func (suite *SMACrossoverTestSuite) TestPrintLogGatesBarLogs() {
	s := suite.newStrategy(2, false)
	suite.feed(s, 10, 9)
	s.NotifyTrade(types.Trade{IsClosed: true, PnL: 1, PnLComm: 0.5})
	s.Stop(100000)

	entries := suite.logs.All()
	suite.Require().Len(entries, 1)
	suite.Equal("(MA Period  2) Ending Value 100000.00", entries[0].Message)
}

func (suite *SMACrossoverTestSuite) TestPrintLogEnabled() {
	s := suite.newStrategy(2, true)

	buy := newOrder(types.PurchaseTypeBuy)
	suite.sink.EXPECT().Buy("AAPL").Return(buy, nil)

	suite.feed(s, 10, 11)
	s.NotifyOrder(completed(buy, 11.5, 0.25))
	s.NotifyTrade(types.Trade{IsClosed: false})
	s.NotifyTrade(types.Trade{IsClosed: true, PnL: 2, PnLComm: 1.5})

	messages := []string{}
	for _, entry := range suite.logs.All() {
		messages = append(messages, entry.Message)
	}

	suite.Contains(messages, "Open, 11.00, Close, 11.00, SMA, 10.50")
	suite.Contains(messages, "BUY CREATE, 11.00")
	suite.Contains(messages, fmt.Sprintf("BUY EXECUTED, Price: %.2f, Cost: %.2f, Comm %.2f", 11.5, 11.5, 0.25))
	suite.Contains(messages, "OPERATION PROFIT, GROSS 2.00, NET 1.50")
	suite.Equal(1, suite.logs.FilterMessageSnippet("OPERATION PROFIT").Len())
}
