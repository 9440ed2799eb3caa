package provider

import (
	"context"
	"iter"
	"math"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
)

// binancePageSize is the default kline limit of one REST request.
const binancePageSize = 500

// BinanceKlinesService is the part of binance.KlinesService used for backfill.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

// BinanceWsKline is a kline pushed over the websocket. Prices are decimal strings.
type BinanceWsKline struct {
	StartTime int64
	EndTime   int64
	Open      string
	High      string
	Low       string
	Close     string
	Volume    string
	IsFinal   bool
}

type BinanceWsKlineEvent struct {
	Symbol string
	Kline  BinanceWsKline
}

type WsKlineHandler func(event *BinanceWsKlineEvent)

type WsErrorHandler func(err error)

// BinanceWebSocketService starts a kline stream for one symbol. Closing stopC
// stops it; doneC is closed once it has stopped.
type BinanceWebSocketService interface {
	WsKlineServe(symbol string, interval string, handler WsKlineHandler, errHandler WsErrorHandler) (doneC chan struct{}, stopC chan struct{}, err error)
}

type binanceAPIClient struct {
	client *binance.Client
}

func (c *binanceAPIClient) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesService{service: c.client.NewKlinesService()}
}

type binanceKlinesService struct {
	service *binance.KlinesService
}

func (s *binanceKlinesService) Symbol(symbol string) BinanceKlinesService {
	s.service.Symbol(symbol)

	return s
}

func (s *binanceKlinesService) Interval(interval string) BinanceKlinesService {
	s.service.Interval(interval)

	return s
}

func (s *binanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	s.service.StartTime(startTime)

	return s
}

func (s *binanceKlinesService) EndTime(endTime int64) BinanceKlinesService {
	s.service.EndTime(endTime)

	return s
}

func (s *binanceKlinesService) Do(ctx context.Context) ([]*binance.Kline, error) {
	return s.service.Do(ctx)
}

type binanceWebSocket struct{}

func (binanceWebSocket) WsKlineServe(symbol string, interval string, handler WsKlineHandler, errHandler WsErrorHandler) (chan struct{}, chan struct{}, error) {
	return binance.WsKlineServe(symbol, interval, func(event *binance.WsKlineEvent) {
		handler(&BinanceWsKlineEvent{
			Symbol: event.Symbol,
			Kline: BinanceWsKline{
				StartTime: event.Kline.StartTime,
				EndTime:   event.Kline.EndTime,
				Open:      event.Kline.Open,
				High:      event.Kline.High,
				Low:       event.Kline.Low,
				Close:     event.Kline.Close,
				Volume:    event.Kline.Volume,
				IsFinal:   event.Kline.IsFinal,
			},
		})
	}, binance.ErrHandler(errHandler))
}

type BinanceClient struct {
	api BinanceAPIClient
	ws  BinanceWebSocketService
}

// NewBinanceClient uses the public market data endpoints; no API key is needed.
func NewBinanceClient() (Provider, error) {
	return NewBinanceClientWithWebSocket(&binanceAPIClient{client: binance.NewClient("", "")}, binanceWebSocket{}), nil
}

// NewBinanceClientWithAPI creates a client with a custom REST client.
func NewBinanceClientWithAPI(api BinanceAPIClient) *BinanceClient {
	return NewBinanceClientWithWebSocket(api, binanceWebSocket{})
}

// NewBinanceClientWithWebSocket creates a client with custom REST and websocket services.
func NewBinanceClientWithWebSocket(api BinanceAPIClient, ws BinanceWebSocketService) *BinanceClient {
	return &BinanceClient{
		api: api,
		ws:  ws,
	}
}

// Backfill implements Provider. Klines are requested page by page starting
// after the close time of the last kline received.
func (c *BinanceClient) Backfill(ctx context.Context, symbol string, interval Interval, start time.Time, end time.Time) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		if _, err := ParseInterval(string(interval)); err != nil {
			yield(types.MarketData{}, err)

			return
		}

		if c.api == nil {
			yield(types.MarketData{}, errors.New(errors.ErrCodeDataSourceUnavailable, "binance REST client is not configured"))

			return
		}

		endMillis := end.UnixMilli()
		currentStart := start.UnixMilli()

		for currentStart < endMillis {
			klines, err := c.api.NewKlinesService().
				Symbol(symbol).
				Interval(string(interval)).
				StartTime(currentStart).
				EndTime(endMillis).
				Do(ctx)
			if err != nil {
				yield(types.MarketData{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch klines from Binance", err))

				return
			}

			for _, k := range klines {
				bar := klineToMarketData(symbol, k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume)
				if !interval.closedBy(bar.Time, end) {
					continue
				}

				if !yield(bar, nil) {
					return
				}
			}

			if len(klines) < binancePageSize {
				return
			}

			currentStart = klines[len(klines)-1].CloseTime + 1
		}
	}
}

// Stream implements Provider. Only final klines are yielded.
func (c *BinanceClient) Stream(ctx context.Context, symbols []string, interval Interval) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		if err := validateStream(symbols, interval); err != nil {
			yield(types.MarketData{}, err)

			return
		}

		bars := make(chan types.MarketData, 64)
		errs := make(chan error, len(symbols))
		done := make(chan struct{})
		stops := make([]chan struct{}, 0, len(symbols))

		defer func() {
			close(done)

			for _, stopC := range stops {
				close(stopC)
			}
		}()

		handler := func(event *BinanceWsKlineEvent) {
			if !event.Kline.IsFinal {
				return
			}

			k := event.Kline
			bar := klineToMarketData(event.Symbol, k.StartTime, k.Open, k.High, k.Low, k.Close, k.Volume)

			select {
			case bars <- bar:
			case <-done:
			}
		}

		errHandler := func(err error) {
			select {
			case errs <- err:
			default:
			}
		}

		for _, symbol := range symbols {
			_, stopC, err := c.ws.WsKlineServe(symbol, string(interval), handler, errHandler)
			if err != nil {
				yield(types.MarketData{}, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to start websocket for %s", symbol))

				return
			}

			stops = append(stops, stopC)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case bar := <-bars:
				if !yield(bar, nil) {
					return
				}
			case err := <-errs:
				if !yield(types.MarketData{}, errors.Wrap(errors.ErrCodeMarketDataStreamClosed, "binance websocket error", err)) {
					return
				}
			}
		}
	}
}

func klineToMarketData(symbol string, openTime int64, open, high, low, closePrice, volume string) types.MarketData {
	return types.MarketData{
		Symbol: symbol,
		Time:   time.UnixMilli(openTime).UTC(),
		Open:   parseDecimal(open),
		High:   parseDecimal(high),
		Low:    parseDecimal(low),
		Close:  parseDecimal(closePrice),
		Volume: parseDecimal(volume),
	}
}

// parseDecimal returns NaN for values that do not parse.
func parseDecimal(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}

	return v
}
