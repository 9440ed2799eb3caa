package datasource

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-sma/internal/logger"
	"github.com/rxtech-lab/argo-sma/internal/types"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"go.uber.org/zap"
)

const (
	// DTFormatUnix parses the datetime column as unix seconds.
	DTFormatUnix = "unix"
	// DTFormatUnixMilli parses the datetime column as unix milliseconds.
	DTFormatUnixMilli = "unix_ms"
	// ColumnAbsent marks a column that is not present in the file.
	ColumnAbsent = -1
)

// CSVColumns maps bar fields to zero-based column indexes of a csv file.
type CSVColumns struct {
	DateTime int `yaml:"datetime" json:"datetime" jsonschema:"title=Datetime Column,default=1" validate:"gte=0"`
	Open     int `yaml:"open" json:"open" jsonschema:"title=Open Column,default=2" validate:"gte=-1"`
	High     int `yaml:"high" json:"high" jsonschema:"title=High Column,default=3" validate:"gte=-1"`
	Low      int `yaml:"low" json:"low" jsonschema:"title=Low Column,default=4" validate:"gte=-1"`
	Close    int `yaml:"close" json:"close" jsonschema:"title=Close Column,default=5" validate:"gte=0"`
	Volume   int `yaml:"volume" json:"volume" jsonschema:"title=Volume Column,default=-1" validate:"gte=-1"`
	// DTFormat is "unix", "unix_ms" or a Go time layout.
	DTFormat string `yaml:"dtformat" json:"dtformat" jsonschema:"title=Datetime Format,default=unix" validate:"required"`
	// Symbol is assigned to every bar; csv files carry a single instrument.
	Symbol string `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol" validate:"required"`
	// Header skips the first row when true.
	Header bool `yaml:"header" json:"header" jsonschema:"title=Has Header,default=true"`
}

// DefaultCSVColumns returns the layout of a pandas-exported minute bar file
// whose first column is the row index.
func DefaultCSVColumns() CSVColumns {
	return CSVColumns{
		DateTime: 1,
		Open:     2,
		High:     3,
		Low:      4,
		Close:    5,
		Volume:   ColumnAbsent,
		DTFormat: DTFormatUnix,
		Symbol:   "DATA",
		Header:   true,
	}
}

func (c CSVColumns) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidColumnMapping, "invalid csv column mapping", err)
	}

	return nil
}

// CSVDataSource reads bars from a csv file using a column mapping. Empty or
// unparseable price cells become NaN.
type CSVDataSource struct {
	columns CSVColumns
	path    string
	logger  *logger.Logger
}

func NewCSVDataSource(columns CSVColumns, log *logger.Logger) (*CSVDataSource, error) {
	if err := columns.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &CSVDataSource{columns: columns, path: "", logger: log}, nil
}

// Initialize implements DataSource.
func (c *CSVDataSource) Initialize(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "csv file %s not found", path)
	}

	c.path = path

	return nil
}

// ReadAll implements DataSource.
func (c *CSVDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		file, err := os.Open(c.path)
		if err != nil {
			yield(types.MarketData{}, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open %s", c.path))

			return
		}
		defer file.Close()

		reader := csv.NewReader(file)
		reader.FieldsPerRecord = -1
		reader.ReuseRecord = true

		line := 0

		for {
			record, err := reader.Read()
			if err == io.EOF {
				return
			}

			line++

			if err != nil {
				yield(types.MarketData{}, errors.Wrapf(errors.ErrCodeMalformedBar, err, "failed to read line %d", line))

				return
			}

			if line == 1 && c.columns.Header {
				continue
			}

			bar, err := c.parse(record)
			if err != nil {
				yield(types.MarketData{}, errors.Wrapf(errors.ErrCodeMalformedBar, err, "line %d", line))

				return
			}

			if !inWindow(bar.Time, start, end) {
				continue
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (c *CSVDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, err := range c.ReadAll(start, end) {
		if err != nil {
			return 0, err
		}

		count++
	}

	return count, nil
}

// Close implements DataSource.
func (c *CSVDataSource) Close() error {
	return nil
}

func (c *CSVDataSource) parse(record []string) (types.MarketData, error) {
	if c.columns.DateTime >= len(record) {
		return types.MarketData{}, fmt.Errorf("datetime column %d out of range", c.columns.DateTime)
	}

	timestamp, err := c.parseTime(strings.TrimSpace(record[c.columns.DateTime]))
	if err != nil {
		return types.MarketData{}, err
	}

	return types.MarketData{
		Symbol: c.columns.Symbol,
		Time:   timestamp,
		Open:   c.value(record, c.columns.Open),
		High:   c.value(record, c.columns.High),
		Low:    c.value(record, c.columns.Low),
		Close:  c.value(record, c.columns.Close),
		Volume: c.value(record, c.columns.Volume),
	}, nil
}

func (c *CSVDataSource) parseTime(raw string) (time.Time, error) {
	switch c.columns.DTFormat {
	case DTFormatUnix, DTFormatUnixMilli:
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid unix timestamp %q: %w", raw, err)
		}

		if c.columns.DTFormat == DTFormatUnixMilli {
			return time.UnixMilli(int64(value)).UTC(), nil
		}

		sec, frac := math.Modf(value)

		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	default:
		t, err := time.Parse(c.columns.DTFormat, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid datetime %q: %w", raw, err)
		}

		return t, nil
	}
}

func (c *CSVDataSource) value(record []string, index int) float64 {
	if index == ColumnAbsent || index >= len(record) {
		return math.NaN()
	}

	raw := strings.TrimSpace(record[index])

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.logger.Debug("treating cell as missing", zap.String("value", raw), zap.Int("column", index))

		return math.NaN()
	}

	return v
}
