package commission_fee

import (
	"github.com/rxtech-lab/argo-sma/pkg/errors"
	"github.com/shopspring/decimal"
)

// PercentageCommissionFee charges a fixed fraction of the traded value.
type PercentageCommissionFee struct {
	rate decimal.Decimal
}

func NewPercentageCommissionFee(rate float64) (CommissionFee, error) {
	if rate < 0 || rate >= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "commission rate must be in [0, 1), got %v", rate)
	}

	return &PercentageCommissionFee{rate: decimal.NewFromFloat(rate)}, nil
}

func (c *PercentageCommissionFee) Calculate(quantity float64, price float64) float64 {
	value := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(price)).Abs()
	fee, _ := value.Mul(c.rate).Float64()

	return fee
}
