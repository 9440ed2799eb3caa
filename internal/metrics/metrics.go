// Package metrics exposes live trading counters in the Prometheus format.
package metrics

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"go.uber.org/zap"
)

var (
	BarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "argo_sma_bars_total", Help: "Closed bars processed by the strategy"},
		[]string{"symbol", "source"},
	)
	IntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "argo_sma_intents_total", Help: "Position intents emitted by the strategy"},
		[]string{"symbol", "intent"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "argo_sma_orders_total", Help: "Order notifications by status"},
		[]string{"symbol", "side", "status"},
	)
	StreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "argo_sma_stream_errors_total", Help: "Errors reported by the market data stream"},
		[]string{"provider"},
	)
	PortfolioValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "argo_sma_portfolio_value", Help: "Portfolio value after the last bar"},
		[]string{"symbol"},
	)
)

// Bar sources.
const (
	SourceBackfill = "backfill"
	SourceStream   = "stream"
)

func init() {
	prometheus.MustRegister(BarsTotal, IntentsTotal, OrdersTotal, StreamErrorsTotal, PortfolioValue)
}

// RecordBar counts bar and the intent and order notifications produced while
// processing it, and sets the portfolio value gauge.
func RecordBar(source string, bar types.MarketData, intent *types.Intent, orders []types.Order, value float64) {
	BarsTotal.WithLabelValues(bar.Symbol, source).Inc()

	if intent != nil {
		IntentsTotal.WithLabelValues(intent.Symbol, string(intent.Type)).Inc()
	}

	for _, order := range orders {
		OrdersTotal.WithLabelValues(order.Symbol, string(order.Side), string(order.Status)).Inc()
	}

	PortfolioValue.WithLabelValues(bar.Symbol).Set(value)
}

// Serve starts the /metrics endpoint on addr. The returned server is
// stopped with Shutdown.
func Serve(addr string, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()

	return srv
}

// Shutdown stops srv, waiting at most timeout for in-flight scrapes.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return srv.Shutdown(ctx)
}
