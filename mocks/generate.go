package mocks

//go:generate mockgen -destination=./mock_order_sink.go -package=mocks github.com/rxtech-lab/argo-sma/internal/trading OrderSink
//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-sma/internal/backtest/engine/engine_v1/datasource DataSource
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-sma/pkg/marketdata/provider Provider
