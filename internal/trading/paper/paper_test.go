package paper

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-sma/internal/trading/commission_fee"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type PaperTradingTestSuite struct {
	suite.Suite
	broker *PaperTrading
	start  time.Time
}

func TestPaperTradingSuite(t *testing.T) {
	suite.Run(t, new(PaperTradingTestSuite))
}

func (suite *PaperTradingTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	suite.broker = suite.newBroker(10000, 1, commission_fee.NewZeroCommissionFee())
}

func (suite *PaperTradingTestSuite) newBroker(cash float64, stake float64, fee commission_fee.CommissionFee) *PaperTrading {
	broker, err := NewPaperTrading(Config{
		InitialCapital:   cash,
		Stake:            stake,
		DecimalPrecision: 4,
		StrategyName:     "SMACrossover",
	}, fee, nil)
	suite.Require().NoError(err)

	return broker
}

func (suite *PaperTradingTestSuite) bar(i int, open, close float64) types.MarketData {
	return types.MarketData{
		Symbol: "AAPL",
		Time:   suite.start.Add(time.Duration(i) * time.Minute),
		Open:   open,
		High:   math.Max(open, close),
		Low:    math.Min(open, close),
		Close:  close,
		Volume: 100,
	}
}

func statuses(orders []types.Order) []types.OrderStatus {
	result := make([]types.OrderStatus, 0, len(orders))
	for _, o := range orders {
		result = append(result, o.Status)
	}

	return result
}

func (suite *PaperTradingTestSuite) TestInvalidConfig() {
	_, err := NewPaperTrading(Config{InitialCapital: 0, Stake: 1, StrategyName: "s"}, nil, nil)
	suite.Error(err)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))

	_, err = NewPaperTrading(Config{InitialCapital: 100, Stake: 0, StrategyName: "s"}, nil, nil)
	suite.Error(err)
}

func (suite *PaperTradingTestSuite) TestBuyQueuesSubmittedAndAccepted() {
	suite.broker.Next(suite.bar(0, 100, 100))

	order, err := suite.broker.Buy("AAPL")
	suite.Require().NoError(err)
	suite.Equal(types.OrderStatusSubmitted, order.Status)
	suite.Equal(1.0, order.Quantity)
	suite.Equal(suite.start, order.CreatedAt)
	suite.Len(suite.broker.Pending(), 1)

	orders, trades := suite.broker.Drain()
	suite.Equal([]types.OrderStatus{types.OrderStatusSubmitted, types.OrderStatusAccepted}, statuses(orders))
	suite.Empty(trades)
	suite.Equal(order.OrderID, orders[1].OrderID)

	orders, _ = suite.broker.Drain()
	suite.Empty(orders)
}

func (suite *PaperTradingTestSuite) TestBuyFillsAtNextOpen() {
	suite.broker.Next(suite.bar(0, 100, 101))
	order, err := suite.broker.Buy("AAPL")
	suite.Require().NoError(err)
	suite.broker.Drain()

	suite.broker.Next(suite.bar(1, 102, 105))

	orders, trades := suite.broker.Drain()
	suite.Require().Len(orders, 1)
	suite.Equal(types.OrderStatusCompleted, orders[0].Status)
	suite.Equal(order.OrderID, orders[0].OrderID)
	suite.Equal(102.0, orders[0].Executed.Price)
	suite.Equal(102.0, orders[0].Executed.Value)
	suite.Equal(suite.start.Add(time.Minute), orders[0].Executed.ExecutedAt)

	suite.Require().Len(trades, 1)
	suite.False(trades[0].IsClosed)
	suite.Equal(102.0, trades[0].EntryPrice)

	suite.Equal(9898.0, suite.broker.Cash())
	suite.Equal(10003.0, suite.broker.Value())
	suite.Equal(1.0, suite.broker.Position("AAPL").Quantity)
	suite.True(suite.broker.OpenTrade("AAPL").IsSome())
	suite.Empty(suite.broker.Pending())
}

func (suite *PaperTradingTestSuite) TestRoundTripWithCommission() {
	fee, err := commission_fee.NewPercentageCommissionFee(0.01)
	suite.Require().NoError(err)
	broker := suite.newBroker(10000, 1, fee)

	broker.Next(suite.bar(0, 99, 99))
	_, err = broker.Buy("AAPL")
	suite.Require().NoError(err)
	broker.Next(suite.bar(1, 100, 104))

	orders, _ := broker.Drain()
	suite.Equal(1.0, orders[len(orders)-1].Executed.Commission)

	_, err = broker.Sell("AAPL")
	suite.Require().NoError(err)
	broker.Next(suite.bar(2, 110, 108))

	orders, trades := broker.Drain()
	suite.Equal([]types.OrderStatus{
		types.OrderStatusSubmitted, types.OrderStatusAccepted, types.OrderStatusCompleted,
	}, statuses(orders))
	suite.InDelta(1.1, orders[2].Executed.Commission, 1e-9)

	suite.Require().Len(trades, 1)
	trade := trades[0]
	suite.True(trade.IsClosed)
	suite.InDelta(10.0, trade.PnL, 1e-9)
	suite.InDelta(7.9, trade.PnLComm, 1e-9)
	suite.InDelta(trade.PnL-trade.Commission(), trade.PnLComm, 1e-9)
	suite.Equal(1, trade.HoldingBars())

	suite.True(broker.Position("AAPL").IsFlat())
	suite.InDelta(10007.9, broker.Cash(), 1e-9)
	suite.InDelta(10007.9, broker.Value(), 1e-9)
	suite.True(broker.OpenTrade("AAPL").IsNone())
}

func (suite *PaperTradingTestSuite) TestSellWithoutHoldings() {
	_, err := suite.broker.Sell("AAPL")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoHoldings))

	orders, _ := suite.broker.Drain()
	suite.Empty(orders)
}

func (suite *PaperTradingTestSuite) TestRejectedOnMissingOpen() {
	for _, open := range []float64{math.NaN(), 0, -1} {
		broker := suite.newBroker(10000, 1, nil)
		_, err := broker.Buy("AAPL")
		suite.Require().NoError(err)
		broker.Drain()

		broker.Next(suite.bar(1, open, 100))

		orders, trades := broker.Drain()
		suite.Require().Len(orders, 1)
		suite.Equal(types.OrderStatusRejected, orders[0].Status)
		suite.Equal(types.OrderReasonInvalidPrice, orders[0].Reason)
		suite.Empty(trades)
		suite.Equal(10000.0, broker.Cash())
	}
}

func (suite *PaperTradingTestSuite) TestMarginWhenCashIsShort() {
	broker := suite.newBroker(100, 1, commission_fee.NewInteractiveBrokerCommissionFee())

	_, err := broker.Buy("AAPL")
	suite.Require().NoError(err)
	broker.Drain()

	// 100 cost + 1.0 minimum commission > 100 cash
	broker.Next(suite.bar(1, 100, 100))

	orders, _ := broker.Drain()
	suite.Require().Len(orders, 1)
	suite.Equal(types.OrderStatusMargin, orders[0].Status)
	suite.Equal(types.OrderReasonInsufficientCash, orders[0].Reason)
	suite.True(broker.Position("AAPL").IsFlat())
	suite.Equal(100.0, broker.Cash())
}

func (suite *PaperTradingTestSuite) TestCancelAll() {
	_, err := suite.broker.Buy("AAPL")
	suite.Require().NoError(err)
	suite.broker.Drain()

	suite.broker.CancelAll(types.OrderReasonEndOfData)

	orders, _ := suite.broker.Drain()
	suite.Require().Len(orders, 1)
	suite.Equal(types.OrderStatusCanceled, orders[0].Status)
	suite.Equal(types.OrderReasonEndOfData, orders[0].Reason)
	suite.Empty(suite.broker.Pending())
}

func (suite *PaperTradingTestSuite) TestValueIgnoresNaNClose() {
	suite.broker.Next(suite.bar(0, 100, 100))
	_, err := suite.broker.Buy("AAPL")
	suite.Require().NoError(err)
	suite.broker.Next(suite.bar(1, 100, 120))
	suite.broker.Next(suite.bar(2, 121, math.NaN()))

	// holdings stay marked at the last valid close
	suite.Equal(10020.0, suite.broker.Value())
}

func (suite *PaperTradingTestSuite) TestStakeRespectsPrecision() {
	broker, err := NewPaperTrading(Config{
		InitialCapital:   1000,
		Stake:            0.123456,
		DecimalPrecision: 3,
		StrategyName:     "SMACrossover",
	}, nil, nil)
	suite.Require().NoError(err)

	order, err := broker.Buy("BTCUSDT")
	suite.Require().NoError(err)
	suite.Equal(0.123, order.Quantity)
}
