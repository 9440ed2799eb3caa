package provider

import (
	"context"
	"iter"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	polygonws "github.com/polygon-io/client-go/websocket"
	wsmodels "github.com/polygon-io/client-go/websocket/models"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
)

// PolygonAggsIterator is the iterator returned by the aggregates endpoint.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

// PolygonWebSocketService is the part of the polygon websocket client used for streaming.
type PolygonWebSocketService interface {
	Connect() error
	Subscribe(topic polygonws.Topic, tickers ...string) error
	Unsubscribe(topic polygonws.Topic, tickers ...string) error
	Output() <-chan any
	Error() <-chan error
	Close()
}

type polygonAPIClient struct {
	client *polygon.Client
}

func (c *polygonAPIClient) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return c.client.ListAggs(ctx, params, options...)
}

type PolygonClient struct {
	api PolygonAPIClient
	ws  PolygonWebSocketService
}

func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "apiKey is required")
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	ws, err := polygonws.New(polygonws.Config{
		APIKey: apiKey,
		Feed:   polygonws.RealTime,
		Market: polygonws.Stocks,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create polygon websocket client", err)
	}

	return NewPolygonClientWithWebSocket(&polygonAPIClient{client: polygon.New(apiKey)}, ws), nil
}

// NewPolygonClientWithAPI creates a client with a custom REST client and no websocket.
func NewPolygonClientWithAPI(api PolygonAPIClient) *PolygonClient {
	return NewPolygonClientWithWebSocket(api, nil)
}

// NewPolygonClientWithWebSocket creates a client with custom REST and websocket services.
func NewPolygonClientWithWebSocket(api PolygonAPIClient, ws PolygonWebSocketService) *PolygonClient {
	return &PolygonClient{
		api: api,
		ws:  ws,
	}
}

// Backfill implements Provider.
func (c *PolygonClient) Backfill(ctx context.Context, symbol string, interval Interval, start time.Time, end time.Time) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		if _, err := ParseInterval(string(interval)); err != nil {
			yield(types.MarketData{}, err)

			return
		}

		if c.api == nil {
			yield(types.MarketData{}, errors.New(errors.ErrCodeDataSourceUnavailable, "polygon REST client is not configured"))

			return
		}

		//nolint:exhaustruct // third-party struct with many optional fields
		params := models.ListAggsParams{
			Ticker:     symbol,
			Multiplier: interval.Multiplier(),
			Timespan:   interval.Timespan(),
			From:       models.Millis(start),
			To:         models.Millis(end),
		}.WithLimit(50000)

		aggs := c.api.ListAggs(ctx, params)

		for aggs.Next() {
			agg := aggs.Item()

			bar := types.MarketData{
				Symbol: symbol,
				Time:   time.Time(agg.Timestamp).UTC(),
				Open:   agg.Open,
				High:   agg.High,
				Low:    agg.Low,
				Close:  agg.Close,
				Volume: agg.Volume,
			}

			if !interval.closedBy(bar.Time, end) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := aggs.Err(); err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "error iterating polygon aggregates", err))
		}
	}
}

// Stream implements Provider. Polygon pushes second and minute aggregates
// only, so interval must be 1s or 1m.
func (c *PolygonClient) Stream(ctx context.Context, symbols []string, interval Interval) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		if err := validateStream(symbols, interval); err != nil {
			yield(types.MarketData{}, err)

			return
		}

		var topic polygonws.Topic

		switch interval {
		case IntervalOneSecond:
			topic = polygonws.StocksSecAggs
		case IntervalOneMinute:
			topic = polygonws.StocksMinAggs
		default:
			yield(types.MarketData{}, errors.Newf(errors.ErrCodeInvalidInterval, "invalid interval %q for polygon streaming, expected 1s or 1m", interval))

			return
		}

		if c.ws == nil {
			yield(types.MarketData{}, errors.New(errors.ErrCodeDataSourceUnavailable, "polygon websocket client is not configured"))

			return
		}

		if err := c.ws.Connect(); err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to connect to polygon websocket", err))

			return
		}
		defer c.ws.Close()

		if err := c.ws.Subscribe(topic, symbols...); err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to subscribe to polygon aggregates", err))

			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-c.ws.Error():
				if !ok {
					yield(types.MarketData{}, errors.New(errors.ErrCodeMarketDataStreamClosed, "polygon websocket closed"))

					return
				}

				if !yield(types.MarketData{}, errors.Wrap(errors.ErrCodeMarketDataStreamClosed, "polygon websocket error", err)) {
					return
				}
			case msg, ok := <-c.ws.Output():
				if !ok {
					yield(types.MarketData{}, errors.New(errors.ErrCodeMarketDataStreamClosed, "polygon websocket closed"))

					return
				}

				bar, isAgg := equityAggToMarketData(msg)
				if !isAgg {
					continue
				}

				if !yield(bar, nil) {
					return
				}
			}
		}
	}
}

func equityAggToMarketData(msg any) (types.MarketData, bool) {
	var agg wsmodels.EquityAgg

	switch m := msg.(type) {
	case wsmodels.EquityAgg:
		agg = m
	case *wsmodels.EquityAgg:
		agg = *m
	default:
		return types.MarketData{}, false
	}

	return types.MarketData{
		Symbol: agg.Symbol,
		Time:   time.UnixMilli(agg.StartTimestamp).UTC(),
		Open:   agg.Open,
		High:   agg.High,
		Low:    agg.Low,
		Close:  agg.Close,
		Volume: agg.Volume,
	}, true
}
