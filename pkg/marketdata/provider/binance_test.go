package provider

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// mockBinanceAPIClient implements BinanceAPIClient for testing.
type mockBinanceAPIClient struct {
	klinesPerCall [][]*binance.Kline
	errorsPerCall []error
	callCount     int
	startTimes    []int64
}

func (m *mockBinanceAPIClient) NewKlinesService() BinanceKlinesService {
	return &mockBinanceKlinesService{client: m}
}

type mockBinanceKlinesService struct {
	client   *mockBinanceAPIClient
	symbol   string
	interval string
	start    int64
	end      int64
}

func (m *mockBinanceKlinesService) Symbol(symbol string) BinanceKlinesService {
	m.symbol = symbol

	return m
}

func (m *mockBinanceKlinesService) Interval(interval string) BinanceKlinesService {
	m.interval = interval

	return m
}

func (m *mockBinanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	m.start = startTime

	return m
}

func (m *mockBinanceKlinesService) EndTime(endTime int64) BinanceKlinesService {
	m.end = endTime

	return m
}

func (m *mockBinanceKlinesService) Do(_ context.Context) ([]*binance.Kline, error) {
	idx := m.client.callCount
	m.client.callCount++
	m.client.startTimes = append(m.client.startTimes, m.start)

	var err error
	if idx < len(m.client.errorsPerCall) {
		err = m.client.errorsPerCall[idx]
	}

	if idx < len(m.client.klinesPerCall) {
		return m.client.klinesPerCall[idx], err
	}

	return nil, err
}

// mockBinanceWebSocket replays events for the subscribed symbol and then
// blocks until the stream is stopped.
type mockBinanceWebSocket struct {
	events   []*BinanceWsKlineEvent
	wsErr    error
	startErr error
	stops    []chan struct{}
}

func (m *mockBinanceWebSocket) WsKlineServe(symbol string, _ string, handler WsKlineHandler, errHandler WsErrorHandler) (chan struct{}, chan struct{}, error) {
	if m.startErr != nil {
		return nil, nil, m.startErr
	}

	doneC := make(chan struct{})
	stopC := make(chan struct{})
	m.stops = append(m.stops, stopC)

	go func() {
		defer close(doneC)

		for _, event := range m.events {
			if event.Symbol == symbol {
				handler(event)
			}
		}

		if m.wsErr != nil {
			errHandler(m.wsErr)
		}

		<-stopC
	}()

	return doneC, stopC, nil
}

func minuteKlines(start time.Time, count int, firstClose float64) []*binance.Kline {
	klines := make([]*binance.Kline, 0, count)

	for i := range count {
		openTime := start.Add(time.Duration(i) * time.Minute)
		price := fmt.Sprintf("%.2f", firstClose+float64(i))
		klines = append(klines, &binance.Kline{
			OpenTime:  openTime.UnixMilli(),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    "10",
			CloseTime: openTime.Add(time.Minute).UnixMilli() - 1,
		})
	}

	return klines
}

func wsEvent(symbol string, start time.Time, closePrice string, final bool) *BinanceWsKlineEvent {
	return &BinanceWsKlineEvent{
		Symbol: symbol,
		Kline: BinanceWsKline{
			StartTime: start.UnixMilli(),
			EndTime:   start.Add(time.Minute).UnixMilli() - 1,
			Open:      closePrice,
			High:      closePrice,
			Low:       closePrice,
			Close:     closePrice,
			Volume:    "1",
			IsFinal:   final,
		},
	}
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

type BinanceClientTestSuite struct {
	suite.Suite
	start time.Time
}

func TestBinanceClientSuite(t *testing.T) {
	suite.Run(t, new(BinanceClientTestSuite))
}

func (suite *BinanceClientTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
}

func (suite *BinanceClientTestSuite) collect(client *BinanceClient, end time.Time) ([]types.MarketData, error) {
	var bars []types.MarketData

	for bar, err := range client.Backfill(context.Background(), "BTCUSDT", IntervalOneMinute, suite.start, end) {
		if err != nil {
			return bars, err
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func (suite *BinanceClientTestSuite) TestNewBinanceClient() {
	client, err := NewBinanceClient()
	suite.Require().NoError(err)

	binanceClient, ok := client.(*BinanceClient)
	suite.Require().True(ok)
	suite.NotNil(binanceClient.api)
	suite.NotNil(binanceClient.ws)
}

func (suite *BinanceClientTestSuite) TestNewBinanceClientWithAPI() {
	mockAPI := &mockBinanceAPIClient{}
	client := NewBinanceClientWithAPI(mockAPI)
	suite.Equal(mockAPI, client.api)
}

func (suite *BinanceClientTestSuite) TestBackfillSinglePage() {
	mockAPI := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{minuteKlines(suite.start, 3, 100)}}
	client := NewBinanceClientWithAPI(mockAPI)

	bars, err := suite.collect(client, suite.start.Add(3*time.Minute))
	suite.Require().NoError(err)
	suite.Require().Len(bars, 3)
	suite.Equal(1, mockAPI.callCount)

	suite.Equal("BTCUSDT", bars[0].Symbol)
	suite.Equal(suite.start, bars[0].Time)
	suite.InDelta(100.0, bars[0].Open, 1e-9)
	suite.InDelta(102.0, bars[2].Close, 1e-9)
	suite.InDelta(10.0, bars[2].Volume, 1e-9)
}

func (suite *BinanceClientTestSuite) TestBackfillDropsFormingBar() {
	mockAPI := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{minuteKlines(suite.start, 3, 100)}}
	client := NewBinanceClientWithAPI(mockAPI)

	bars, err := suite.collect(client, suite.start.Add(2*time.Minute+30*time.Second))
	suite.Require().NoError(err)
	suite.Require().Len(bars, 2)
	suite.Equal(suite.start.Add(time.Minute), bars[1].Time)
}

func (suite *BinanceClientTestSuite) TestBackfillPagination() {
	firstPage := minuteKlines(suite.start, binancePageSize, 100)
	secondPage := minuteKlines(suite.start.Add(binancePageSize*time.Minute), 2, 600)
	mockAPI := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{firstPage, secondPage}}
	client := NewBinanceClientWithAPI(mockAPI)

	bars, err := suite.collect(client, suite.start.Add(time.Duration(binancePageSize+2)*time.Minute))
	suite.Require().NoError(err)
	suite.Len(bars, binancePageSize+2)
	suite.Equal(2, mockAPI.callCount)
	suite.Equal(suite.start.UnixMilli(), mockAPI.startTimes[0])
	suite.Equal(firstPage[len(firstPage)-1].CloseTime+1, mockAPI.startTimes[1])
}

func (suite *BinanceClientTestSuite) TestBackfillStopsWhenConsumerBreaks() {
	mockAPI := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{
		minuteKlines(suite.start, binancePageSize, 100),
		minuteKlines(suite.start.Add(binancePageSize*time.Minute), 2, 600),
	}}
	client := NewBinanceClientWithAPI(mockAPI)

	count := 0
	for _, err := range client.Backfill(context.Background(), "BTCUSDT", IntervalOneMinute, suite.start, suite.start.Add(time.Hour*24)) {
		suite.Require().NoError(err)

		count++
		if count == 3 {
			break
		}
	}

	suite.Equal(3, count)
	suite.Equal(1, mockAPI.callCount)
}

func (suite *BinanceClientTestSuite) TestBackfillFetchError() {
	mockAPI := &mockBinanceAPIClient{errorsPerCall: []error{stderrors.New("rate limited")}}
	client := NewBinanceClientWithAPI(mockAPI)

	_, err := suite.collect(client, suite.start.Add(time.Hour))
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeMarketDataFetchFailed, errors.GetCode(err))
	suite.Contains(err.Error(), "rate limited")
}

func (suite *BinanceClientTestSuite) TestBackfillInvalidInterval() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{})

	for _, err := range client.Backfill(context.Background(), "BTCUSDT", Interval("7m"), suite.start, suite.start.Add(time.Hour)) {
		suite.Require().Error(err)
		suite.Equal(errors.ErrCodeInvalidInterval, errors.GetCode(err))
	}
}

func (suite *BinanceClientTestSuite) TestBackfillWithoutAPI() {
	client := NewBinanceClientWithWebSocket(nil, nil)

	_, err := suite.collect(client, suite.start.Add(time.Hour))
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeDataSourceUnavailable, errors.GetCode(err))
}

func (suite *BinanceClientTestSuite) TestStreamYieldsFinalKlinesOnly() {
	ws := &mockBinanceWebSocket{events: []*BinanceWsKlineEvent{
		wsEvent("BTCUSDT", suite.start, "100", false),
		wsEvent("BTCUSDT", suite.start, "101", true),
		wsEvent("BTCUSDT", suite.start.Add(time.Minute), "102", false),
		wsEvent("BTCUSDT", suite.start.Add(time.Minute), "103", true),
	}}
	client := NewBinanceClientWithWebSocket(&mockBinanceAPIClient{}, ws)

	var bars []types.MarketData

	for bar, err := range client.Stream(context.Background(), []string{"BTCUSDT"}, IntervalOneMinute) {
		suite.Require().NoError(err)

		bars = append(bars, bar)
		if len(bars) == 2 {
			break
		}
	}

	suite.Require().Len(bars, 2)
	suite.InDelta(101.0, bars[0].Close, 1e-9)
	suite.Equal(suite.start, bars[0].Time)
	suite.InDelta(103.0, bars[1].Close, 1e-9)

	suite.Require().Len(ws.stops, 1)
	suite.True(isClosed(ws.stops[0]))
}

func (suite *BinanceClientTestSuite) TestStreamMultipleSymbols() {
	ws := &mockBinanceWebSocket{events: []*BinanceWsKlineEvent{
		wsEvent("BTCUSDT", suite.start, "100", true),
		wsEvent("ETHUSDT", suite.start, "10", true),
	}}
	client := NewBinanceClientWithWebSocket(&mockBinanceAPIClient{}, ws)

	symbols := make([]string, 0, 2)

	for bar, err := range client.Stream(context.Background(), []string{"BTCUSDT", "ETHUSDT"}, IntervalOneMinute) {
		suite.Require().NoError(err)

		symbols = append(symbols, bar.Symbol)
		if len(symbols) == 2 {
			break
		}
	}

	suite.ElementsMatch([]string{"BTCUSDT", "ETHUSDT"}, symbols)
	suite.Len(ws.stops, 2)
}

func (suite *BinanceClientTestSuite) TestStreamWebSocketError() {
	ws := &mockBinanceWebSocket{wsErr: stderrors.New("connection reset")}
	client := NewBinanceClientWithWebSocket(&mockBinanceAPIClient{}, ws)

	for _, err := range client.Stream(context.Background(), []string{"BTCUSDT"}, IntervalOneMinute) {
		suite.Require().Error(err)
		suite.Equal(errors.ErrCodeMarketDataStreamClosed, errors.GetCode(err))
		suite.Contains(err.Error(), "connection reset")

		break
	}
}

func (suite *BinanceClientTestSuite) TestStreamStartError() {
	ws := &mockBinanceWebSocket{startErr: stderrors.New("dial failed")}
	client := NewBinanceClientWithWebSocket(&mockBinanceAPIClient{}, ws)

	errCount := 0

	for _, err := range client.Stream(context.Background(), []string{"BTCUSDT"}, IntervalOneMinute) {
		suite.Require().Error(err)
		suite.Equal(errors.ErrCodeMarketDataFetchFailed, errors.GetCode(err))

		errCount++
	}

	suite.Equal(1, errCount)
}

func (suite *BinanceClientTestSuite) TestStreamValidation() {
	client := NewBinanceClientWithWebSocket(&mockBinanceAPIClient{}, &mockBinanceWebSocket{})

	for _, err := range client.Stream(context.Background(), nil, IntervalOneMinute) {
		suite.Require().Error(err)
		suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
	}

	for _, err := range client.Stream(context.Background(), []string{"BTCUSDT"}, Interval("bad")) {
		suite.Require().Error(err)
		suite.Equal(errors.ErrCodeInvalidInterval, errors.GetCode(err))
	}
}

func (suite *BinanceClientTestSuite) TestStreamStopsOnContextCancel() {
	ws := &mockBinanceWebSocket{}
	client := NewBinanceClientWithWebSocket(&mockBinanceAPIClient{}, ws)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count := 0
	for range client.Stream(ctx, []string{"BTCUSDT"}, IntervalOneMinute) {
		count++
	}

	suite.Equal(0, count)
	suite.Require().Len(ws.stops, 1)
	suite.True(isClosed(ws.stops[0]))
}

func (suite *BinanceClientTestSuite) TestParseDecimal() {
	suite.InDelta(1.5, parseDecimal("1.5"), 1e-9)
	suite.True(types.MarketData{Open: parseDecimal("abc")}.HasMissingPrice())
}
