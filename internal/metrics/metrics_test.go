package metrics

import (
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

// value returns the value of the counter or gauge of family name whose labels
// include all of labels.
func (suite *MetricsTestSuite) value(name string, labels map[string]string) float64 {
	families, err := prometheus.DefaultGatherer.Gather()
	suite.Require().NoError(err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}

		for _, metric := range family.GetMetric() {
			matched := 0

			for _, label := range metric.GetLabel() {
				if want, ok := labels[label.GetName()]; ok && want == label.GetValue() {
					matched++
				}
			}

			if matched != len(labels) {
				continue
			}

			if metric.GetCounter() != nil {
				return metric.GetCounter().GetValue()
			}

			return metric.GetGauge().GetValue()
		}
	}

	return 0
}

func (suite *MetricsTestSuite) TestRecordBar() {
	bar := types.MarketData{Symbol: "METRICSTEST", Time: time.Now(), Open: 1, Close: 2}
	intent := &types.Intent{Type: types.IntentEnterLong, Symbol: "METRICSTEST"}
	orders := []types.Order{
		{Symbol: "METRICSTEST", Side: types.PurchaseTypeBuy, Status: types.OrderStatusSubmitted},
		{Symbol: "METRICSTEST", Side: types.PurchaseTypeBuy, Status: types.OrderStatusAccepted},
	}

	RecordBar(SourceStream, bar, intent, orders, 1234.5)
	RecordBar(SourceBackfill, bar, nil, nil, 1200)

	suite.InDelta(1.0, suite.value("argo_sma_bars_total", map[string]string{"symbol": "METRICSTEST", "source": SourceStream}), 1e-9)
	suite.InDelta(1.0, suite.value("argo_sma_bars_total", map[string]string{"symbol": "METRICSTEST", "source": SourceBackfill}), 1e-9)
	suite.InDelta(1.0, suite.value("argo_sma_intents_total", map[string]string{"symbol": "METRICSTEST", "intent": "ENTER_LONG"}), 1e-9)
	suite.InDelta(1.0, suite.value("argo_sma_orders_total", map[string]string{"symbol": "METRICSTEST", "status": "ACCEPTED"}), 1e-9)
	suite.InDelta(1200.0, suite.value("argo_sma_portfolio_value", map[string]string{"symbol": "METRICSTEST"}), 1e-9)
}

func (suite *MetricsTestSuite) TestServeExposesMetrics() {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	suite.Require().NoError(err)
	addr := listener.Addr().String()
	suite.Require().NoError(listener.Close())

	StreamErrorsTotal.WithLabelValues("servetest").Inc()

	srv := Serve(addr, logger.NewNopLogger())
	defer func() { suite.NoError(Shutdown(srv, time.Second)) }()

	var body []byte

	suite.Eventually(func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)

		return err == nil && resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	suite.Contains(string(body), `argo_sma_stream_errors_total{provider="servetest"} 1`)
}
