// Package marketdata downloads historical bars from a market data provider
// into parquet files that the backtest engine reads.
package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"github.com/rxtech-lab/argo-sma/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-sma/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  provider.ProviderType `validate:"required,oneof=polygon binance"`
	DataPath      string                `validate:"required"`
	PolygonApiKey string                `validate:"required_if=ProviderType polygon"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker    string            `validate:"required"`
	StartDate time.Time         `validate:"required"`
	EndDate   time.Time         `validate:"required,gtfield=StartDate"`
	Interval  provider.Interval `validate:"required"`
}

// OnDownloadProgress reports the number of bars written against the number expected.
type OnDownloadProgress func(current float64, total float64, message string)

// Client downloads bars from a provider and stores them with a writer.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress OnDownloadProgress
	log        *logger.Logger
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress OnDownloadProgress, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, config.PolygonApiKey)
	if err != nil {
		return nil, err
	}

	return newClient(config, marketProvider, onProgress, log, validate), nil
}

// NewClientWithProvider creates a client that downloads from the given provider.
func NewClientWithProvider(config ClientConfig, marketProvider provider.Provider, onProgress OnDownloadProgress, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	return newClient(config, marketProvider, onProgress, log, validate), nil
}

func newClient(config ClientConfig, marketProvider provider.Provider, onProgress OnDownloadProgress, log *logger.Logger, validate *validator.Validate) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		provider:   marketProvider,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
		log:        log,
	}
}

// Download writes the closed bars of params.Ticker between the start and end
// date to a parquet file and returns its path. No file is left behind when
// the download fails or the context is canceled.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	if _, err := provider.ParseInterval(string(params.Interval)); err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.config.DataPath, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to create data directory", err)
	}

	outputPath := filepath.Join(c.config.DataPath, outputFileName(params))

	marketWriter := writer.NewDuckDBWriter(outputPath, c.log)
	if err := marketWriter.Initialize(); err != nil {
		return "", err
	}

	defer func() {
		if err := marketWriter.Close(); err != nil {
			c.log.Warn("Failed to close writer", zap.Error(err))
		}
	}()

	total := float64(params.EndDate.Sub(params.StartDate) / params.Interval.Duration())
	written := 0

	c.log.Info("Downloading market data",
		zap.String("provider", string(c.config.ProviderType)),
		zap.String("ticker", params.Ticker),
		zap.String("interval", string(params.Interval)),
		zap.Time("start", params.StartDate),
		zap.Time("end", params.EndDate),
	)

	for bar, err := range c.provider.Backfill(ctx, params.Ticker, params.Interval, params.StartDate, params.EndDate) {
		if err != nil {
			return "", err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("download canceled: %w", ctxErr)
		}

		if err := marketWriter.Write(bar); err != nil {
			return "", err
		}

		written++

		if c.onProgress != nil {
			c.onProgress(float64(written), total, fmt.Sprintf("Downloaded %d bars of %s", written, params.Ticker))
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("download canceled: %w", ctxErr)
	}

	if written == 0 {
		return "", errors.Newf(errors.ErrCodeDataNotFound, "no bars returned for %s", params.Ticker)
	}

	path, err := marketWriter.Finalize()
	if err != nil {
		return "", err
	}

	if c.onProgress != nil {
		c.onProgress(float64(written), float64(written), "Download complete")
	}

	return path, nil
}

// outputFileName is TICKER_START_END_INTERVAL.parquet.
func outputFileName(params DownloadParams) string {
	return fmt.Sprintf("%s_%s_%s_%s.parquet",
		params.Ticker,
		params.StartDate.Format("2006-01-02"),
		params.EndDate.Format("2006-01-02"),
		params.Interval)
}
