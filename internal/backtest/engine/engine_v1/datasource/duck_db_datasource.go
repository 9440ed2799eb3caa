package datasource

import (
	"database/sql"
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/internal/utils"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBDataSource reads bars from a parquet file with columns
// time, symbol, open, high, low, close, volume.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBDataSource opens a DuckDB database at path; use ":memory:" for a transient one.
func NewDuckDBDataSource(path string, log *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDBDataSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	_, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return fmt.Errorf("failed to drop existing view: %w", err)
	}

	// squirrel has no CREATE VIEW
	_, err = d.db.Exec(fmt.Sprintf(`CREATE VIEW market_data AS SELECT * FROM read_parquet(%s);`, utils.QuoteSQLString(path)))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to read parquet file %s", path)
	}

	return nil
}

func (d *DuckDBDataSource) window(query squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		query = query.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		query = query.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return query
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	var count int

	err := d.window(d.sq.Select("COUNT(*)").From("market_data"), start, end).
		RunWith(d.db).
		QueryRow().
		Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// ReadAll implements DataSource. NULL prices are returned as NaN.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		rows, err := d.window(
			d.sq.Select("time", "symbol", "open", "high", "low", "close", "volume").From("market_data"),
			start, end,
		).
			OrderBy("time ASC").
			RunWith(d.db).
			Query()
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				timestamp                      time.Time
				symbol                         string
				open, high, low, close, volume sql.NullFloat64
			)

			if err := rows.Scan(&timestamp, &symbol, &open, &high, &low, &close, &volume); err != nil {
				yield(types.MarketData{}, errors.Wrap(errors.ErrCodeMalformedBar, "failed to scan bar", err))

				return
			}

			bar := types.MarketData{
				Symbol: symbol,
				Time:   timestamp,
				Open:   nullToNaN(open),
				High:   nullToNaN(high),
				Low:    nullToNaN(low),
				Close:  nullToNaN(close),
				Volume: nullToNaN(volume),
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.MarketData{}, fmt.Errorf("error iterating bars: %w", err))
		}
	}
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}

	return v.Float64
}
