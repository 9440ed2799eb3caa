package commission_fee

import (
	"github.com/rxtech-lab/argo-sma/pkg/errors"
)

type CommissionFee interface {
	// Calculate returns the commission charged for filling quantity units at price.
	Calculate(quantity float64, price float64) float64
}

type Broker string

const (
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerZero              Broker = "zero_commission"
	BrokerPercentage        Broker = "percentage"
)

var AllBrokers = []any{
	BrokerInteractiveBroker,
	BrokerZero,
	BrokerPercentage,
}

// GetCommissionFeeHandler returns the fee model for broker. rate is only used
// by the percentage model, where it is a fraction of the traded value.
func GetCommissionFeeHandler(broker Broker, rate float64) (CommissionFee, error) {
	switch broker {
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee(), nil
	case BrokerZero, "":
		return NewZeroCommissionFee(), nil
	case BrokerPercentage:
		return NewPercentageCommissionFee(rate)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown broker %q", broker)
	}
}

// CheckRate rejects a commission rate that broker would ignore. Only the
// percentage model charges a rate.
func CheckRate(broker Broker, rate float64) error {
	if rate > 0 && broker != BrokerPercentage {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"commission %v requires broker %q, got %q", rate, BrokerPercentage, broker)
	}

	return nil
}
