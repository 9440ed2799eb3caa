package datasource

import (
	"iter"
	"path/filepath"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
)

type DataSource interface {
	// Initialize initializes the data source with the given data path
	Initialize(path string) error
	// ReadAll yields every bar between start and end (inclusive) in time order
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.MarketData, error]
	// Count returns the number of bars between start and end
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}

// NewDataSourceForPath returns the data source matching the file extension of
// path: .parquet is read through DuckDB, .csv through the generic csv reader.
func NewDataSourceForPath(path string, columns CSVColumns, log *logger.Logger) (DataSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return NewDuckDBDataSource(":memory:", log)
	case ".csv":
		return NewCSVDataSource(columns, log)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported data file %q, expected .csv or .parquet", path)
	}
}

func inWindow(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}
