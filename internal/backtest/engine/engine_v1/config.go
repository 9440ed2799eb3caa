package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-sma/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-sma/internal/strategy"
	"github.com/rxtech-lab/argo-sma/internal/trading/commission_fee"
	"github.com/rxtech-lab/argo-sma/internal/version"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1Config struct {
	// Version is the engine version the file was written for.
	Version          string                      `yaml:"version" json:"version,omitempty" jsonschema:"title=Version,description=Engine version this configuration targets"`
	InitialCapital   float64                     `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting cash for the backtest,minimum=0,default=100000" validate:"gt=0"`
	Stake            float64                     `yaml:"stake" json:"stake" jsonschema:"title=Stake,description=Quantity bought by every entry order,default=1" validate:"gt=0"`
	Broker           commission_fee.Broker       `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=The broker to use for commission calculations"`
	Commission       float64                     `yaml:"commission" json:"commission" jsonschema:"title=Commission,description=Commission rate as a fraction of the traded value (percentage broker only),minimum=0,default=0" validate:"gte=0,lt=1"`
	DecimalPrecision int                         `yaml:"decimal_precision" json:"decimal_precision" jsonschema:"title=Decimal Precision,description=Decimals kept on order quantities,minimum=0,default=8" validate:"gte=0,lte=12"`
	StartTime        optional.Option[time.Time]  `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime          optional.Option[time.Time]  `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	Strategy         strategy.SMACrossoverConfig `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy,description=SMA crossover parameters"`
	CSV              datasource.CSVColumns       `yaml:"csv" json:"csv" jsonschema:"title=CSV Columns,description=Column mapping used for csv data files"`
}

// UnmarshalYAML implements yaml.Unmarshaler. Keys missing from the document
// keep their current values, so decoding into EmptyConfig() yields defaults.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type config struct {
		Version          string                      `yaml:"version"`
		InitialCapital   float64                     `yaml:"initial_capital"`
		Stake            float64                     `yaml:"stake"`
		Broker           commission_fee.Broker       `yaml:"broker"`
		Commission       float64                     `yaml:"commission"`
		DecimalPrecision int                         `yaml:"decimal_precision"`
		StartTime        *time.Time                  `yaml:"start_time"`
		EndTime          *time.Time                  `yaml:"end_time"`
		Strategy         strategy.SMACrossoverConfig `yaml:"strategy"`
		CSV              datasource.CSVColumns       `yaml:"csv"`
	}

	raw := config{
		Version:          c.Version,
		InitialCapital:   c.InitialCapital,
		Stake:            c.Stake,
		Broker:           c.Broker,
		Commission:       c.Commission,
		DecimalPrecision: c.DecimalPrecision,
		StartTime:        nil,
		EndTime:          nil,
		Strategy:         c.Strategy,
		CSV:              c.CSV,
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.Version = raw.Version
	c.InitialCapital = raw.InitialCapital
	c.Stake = raw.Stake
	c.Broker = raw.Broker
	c.Commission = raw.Commission
	c.DecimalPrecision = raw.DecimalPrecision
	c.Strategy = raw.Strategy
	c.CSV = raw.CSV

	if raw.StartTime != nil {
		c.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		c.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// Validate checks field constraints, the broker name, the time window and
// the config version against the running engine.
func (c BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	if err := commission_fee.CheckRate(c.Broker, c.Commission); err != nil {
		return err
	}

	if _, err := commission_fee.GetCommissionFeeHandler(c.Broker, c.Commission); err != nil {
		return err
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end_time is before start_time")
	}

	return version.CheckVersionCompatibility(version.GetVersion(), c.Version)
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

func TestConfig(startTime time.Time, endTime time.Time, broker commission_fee.Broker) BacktestEngineV1Config {
	config := EmptyConfig()
	config.InitialCapital = 10000
	config.Broker = broker
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		Version:          "",
		InitialCapital:   100000,
		Stake:            1,
		Broker:           commission_fee.BrokerZero,
		Commission:       0,
		DecimalPrecision: 8,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		Strategy:         strategy.DefaultBacktestConfig(),
		CSV:              datasource.DefaultCSVColumns(),
	}
}
