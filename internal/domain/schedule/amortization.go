package schedule

import (
	"math"

	"github.com/shopspring/decimal"

	"credit-ledger/internal/domain/apperr"
)

// Installment returns the periodic payment of an amortizing loan, rounded
// half-up to 2 places.
//
// The periodic rate is always annualRate/12 (a monthly rate) whatever the
// installment frequency; existing credits were quoted with this figure.
func Installment(principal, annualRatePct float64, periods int) (decimal.Decimal, error) {
	if periods <= 0 {
		return decimal.Zero, apperr.Validationf("number of periods must be greater than 0")
	}
	if principal <= 0 {
		return decimal.Zero, apperr.Validationf("principal must be greater than 0")
	}
	if annualRatePct < 0 {
		return decimal.Zero, apperr.Validationf("interest rate must not be negative")
	}

	i := annualRatePct / (12 * 100)
	if i == 0 {
		return decimal.NewFromFloat(principal).
			Div(decimal.NewFromInt(int64(periods))).
			Round(2), nil
	}

	growth := math.Pow(1+i, float64(periods))
	amount := principal * i * growth / (growth - 1)
	return decimal.NewFromFloat(amount).Round(2), nil
}
