package engine

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rxtech-lab/argo-sma/internal/strategy"
	"github.com/rxtech-lab/argo-sma/internal/trading/commission_fee"
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"github.com/rxtech-lab/argo-sma/pkg/marketdata/provider"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "ARGO_SMA"

// LiveTradingEngineConfig holds the configuration for the live trading engine.
type LiveTradingEngineConfig struct {
	Provider      provider.ProviderType `yaml:"provider" json:"provider" envconfig:"PROVIDER" default:"binance" jsonschema:"description=Market data provider,enum=binance,enum=polygon" validate:"required,oneof=polygon binance"`
	PolygonApiKey string                `yaml:"-" json:"-" envconfig:"POLYGON_API_KEY" validate:"required_if=Provider polygon"`
	Symbol        string                `yaml:"symbol" json:"symbol" envconfig:"SYMBOL" default:"BTCUSDT" jsonschema:"description=Symbol to trade" validate:"required"`
	Interval      provider.Interval     `yaml:"interval" json:"interval" envconfig:"INTERVAL" default:"1m" jsonschema:"description=Bar interval" validate:"required"`
	// Backfill is how far back bars are replayed before streaming starts; 0 disables it.
	Backfill time.Duration `yaml:"backfill" json:"backfill" envconfig:"BACKFILL" default:"50m" jsonschema:"description=Backfill window in nanoseconds" validate:"gte=0"`

	Period   int  `yaml:"period" json:"period" envconfig:"PERIOD" default:"1" jsonschema:"description=SMA period,minimum=1" validate:"gt=0"`
	PrintLog bool `yaml:"print_log" json:"print_log" envconfig:"PRINT_LOG" default:"true" jsonschema:"description=Log every bar and order event"`

	InitialCapital   float64               `yaml:"initial_capital" json:"initial_capital" envconfig:"INITIAL_CAPITAL" default:"100000" validate:"gt=0"`
	Stake            float64               `yaml:"stake" json:"stake" envconfig:"STAKE" default:"10" validate:"gt=0"`
	Broker           commission_fee.Broker `yaml:"broker" json:"broker" envconfig:"BROKER" default:"zero_commission"`
	Commission       float64               `yaml:"commission" json:"commission" envconfig:"COMMISSION" default:"0" validate:"gte=0,lt=1"`
	DecimalPrecision int                   `yaml:"decimal_precision" json:"decimal_precision" envconfig:"DECIMAL_PRECISION" default:"8" validate:"gte=0,lte=12"`

	// DataOutputPath is the base directory of the per-run session folders; empty disables result files.
	DataOutputPath string `yaml:"data_output_path" json:"data_output_path" envconfig:"DATA_OUTPUT_PATH"`
	// MetricsAddr is the listen address of the Prometheus endpoint; empty disables it.
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr" envconfig:"METRICS_ADDR" default:":9090"`
}

// StrategyConfig returns the SMA crossover configuration of the live run.
func (c LiveTradingEngineConfig) StrategyConfig() strategy.SMACrossoverConfig {
	return strategy.SMACrossoverConfig{Period: c.Period, PrintLog: c.PrintLog}
}

// Validate checks the struct constraints, the interval and the broker.
func (c LiveTradingEngineConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid live trading config", err)
	}

	if _, err := provider.ParseInterval(string(c.Interval)); err != nil {
		return err
	}

	if err := commission_fee.CheckRate(c.Broker, c.Commission); err != nil {
		return err
	}

	if _, err := commission_fee.GetCommissionFeeHandler(c.Broker, c.Commission); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the configuration from ARGO_SMA_* environment variables.
// envFiles are loaded first without overriding variables already set;
// missing files are ignored.
func LoadConfig(envFiles ...string) (LiveTradingEngineConfig, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return LiveTradingEngineConfig{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to load env file %s", file)
		}
	}

	var config LiveTradingEngineConfig
	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return LiveTradingEngineConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read environment", err)
	}

	if err := config.Validate(); err != nil {
		return LiveTradingEngineConfig{}, err
	}

	return config, nil
}

// GetConfigSchema returns the JSON schema for LiveTradingEngineConfig with
// every definition inlined.
func GetConfigSchema() (string, error) {
	reflector := &jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(LiveTradingEngineConfig{}) //nolint:exhaustruct // Empty config for schema generation

	data, err := json.Marshal(schema)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal live config schema", err)
	}

	return string(data), nil
}
