package writer

import (
	"github.com/rxtech-lab/argo-sma/internal/types"
)

// MarketDataWriter persists downloaded bars to a file the backtest engine can read.
type MarketDataWriter interface {
	// Initialize sets up the writer, creating tables or files.
	Initialize() error
	// Write persists a single bar.
	Write(data types.MarketData) error
	// Finalize commits pending writes and exports the output file.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
