package proposal

import (
	"math"

	"credit-ledger/internal/domain/apperr"
)

type TimeUnit string

const (
	UnitDays   TimeUnit = "DAYS"
	UnitMonths TimeUnit = "MONTHS"
	UnitYears  TimeUnit = "YEARS"
)

func (u TimeUnit) Valid() bool { return u == UnitDays || u == UnitMonths || u == UnitYears }

// Longest loan_term accepted per unit: one hundred years.
const (
	MaxTermDays   = 36500
	MaxTermMonths = 1200
	MaxTermYears  = 100

	// MaxInstallments caps the entry count of an EMI schedule.
	MaxInstallments = 1200
)

// MaxTerm is the largest loan_term allowed for u, or 0 for an unknown unit.
func (u TimeUnit) MaxTerm() int {
	switch u {
	case UnitDays:
		return MaxTermDays
	case UnitMonths:
		return MaxTermMonths
	case UnitYears:
		return MaxTermYears
	}
	return 0
}

type PaymentType string

const (
	PaymentBullet PaymentType = "BULLET"
	PaymentEMI    PaymentType = "EMI"
)

type EMIFrequency string

const (
	FrequencyNone      EMIFrequency = "NONE"
	FrequencyDaily     EMIFrequency = "DAILY"
	FrequencyWeekly    EMIFrequency = "WEEKLY"
	FrequencyMonthly   EMIFrequency = "MONTHLY"
	FrequencyQuarterly EMIFrequency = "QUARTERLY"
	FrequencyYearly    EMIFrequency = "YEARLY"
)

func (f EMIFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

const maxInterestRate = 100

// Terms are the negotiable credit conditions, snapshotted onto the credit at activation.
type Terms struct {
	Principal    float64      `gorm:"column:principal;type:decimal(18,2);not null" json:"principal"`
	LoanTerm     int          `gorm:"column:loan_term;not null" json:"loan_term"`
	TimeUnit     TimeUnit     `gorm:"column:time_unit;size:8;not null" json:"time_unit"`
	InterestRate float64      `gorm:"column:interest_rate;type:decimal(7,4);not null" json:"interest_rate"`
	PaymentType  PaymentType  `gorm:"column:payment_type;size:8;not null" json:"payment_type"`
	EMIFrequency EMIFrequency `gorm:"column:emi_frequency;size:12;not null" json:"emi_frequency"`
}

// Normalize validates t and returns a copy with EMIFrequency forced to NONE for bullet loans.
func (t Terms) Normalize() (Terms, error) {
	switch {
	case t.Principal <= 0 || math.IsNaN(t.Principal) || math.IsInf(t.Principal, 0):
		return t, apperr.Validationf("principal must be greater than 0")
	case t.LoanTerm <= 0:
		return t, apperr.Validationf("loan_term must be greater than 0")
	case !t.TimeUnit.Valid():
		return t, apperr.Validationf("time_unit %q is not one of DAYS, MONTHS, YEARS", t.TimeUnit)
	case t.LoanTerm > t.TimeUnit.MaxTerm():
		return t, apperr.Validationf("loan_term must be at most %d %s", t.TimeUnit.MaxTerm(), t.TimeUnit)
	case t.InterestRate < 0 || t.InterestRate > maxInterestRate || math.IsNaN(t.InterestRate):
		return t, apperr.Validationf("interest_rate must be between 0 and %d", maxInterestRate)
	}

	switch t.PaymentType {
	case PaymentBullet:
		t.EMIFrequency = FrequencyNone
	case PaymentEMI:
		if t.EMIFrequency == "" || t.EMIFrequency == FrequencyNone {
			return t, apperr.Validationf("emi_frequency is required for payment_type EMI")
		}
		if !t.EMIFrequency.Valid() {
			return t, apperr.Validationf("emi_frequency %q is not supported", t.EMIFrequency)
		}
		if t.LoanTerm > MaxInstallments {
			return t, apperr.Validationf("an EMI schedule has at most %d installments", MaxInstallments)
		}
	default:
		return t, apperr.Validationf("payment_type %q is not one of BULLET, EMI", t.PaymentType)
	}
	return t, nil
}
