// Package schedule turns accepted credit terms into repayment due dates and
// installment figures. Everything here is pure: callers pass the start
// instant and "today" explicitly.
package schedule

import (
	"time"

	"credit-ledger/internal/domain/apperr"
	"credit-ledger/internal/domain/credit"
	"credit-ledger/internal/domain/proposal"
	"credit-ledger/pkg/clock"
)

// lastDueYear keeps every key inside the four-digit YYYY-MM-DD layout.
const lastDueYear = 9999

// Generate builds the ordered repayment schedule for terms starting at start.
// Entries dated before today start out MISSED, the rest YET_TO_PAY.
func Generate(terms proposal.Terms, start, today time.Time) ([]credit.Entry, error) {
	t, err := terms.Normalize()
	if err != nil {
		return nil, err
	}
	base := clock.DateOf(start)
	day := clock.DateOf(today)

	var dates []time.Time
	switch t.PaymentType {
	case proposal.PaymentBullet:
		dates = []time.Time{addUnits(base, t.TimeUnit, t.LoanTerm)}
	case proposal.PaymentEMI:
		dates = make([]time.Time, 0, t.LoanTerm)
		var prev time.Time
		for k := 1; k <= t.LoanTerm; k++ {
			d, err := advance(base, t.EMIFrequency, k)
			if err != nil {
				return nil, err
			}
			// month-end clamping must never fold two periods onto one day
			if !prev.IsZero() && !d.After(prev) {
				d = prev.AddDate(0, 0, 1)
			}
			dates = append(dates, d)
			prev = d
		}
	}

	out := make([]credit.Entry, 0, len(dates))
	for _, d := range dates {
		if d.Year() > lastDueYear || d.Before(base) {
			return nil, apperr.Validationf("loan_term puts a due date outside years %d-%d", base.Year(), lastDueYear)
		}
		st := credit.PaymentYetToPay
		if d.Before(day) {
			st = credit.PaymentMissed
		}
		out = append(out, credit.Entry{Date: d.Format(credit.DateLayout), Status: st})
	}
	return out, nil
}

// Periods is the number of installments the terms produce.
func Periods(terms proposal.Terms) int {
	if terms.PaymentType == proposal.PaymentEMI {
		return terms.LoanTerm
	}
	return 1
}

func addUnits(d time.Time, unit proposal.TimeUnit, n int) time.Time {
	switch unit {
	case proposal.UnitDays:
		return d.AddDate(0, 0, n)
	case proposal.UnitYears:
		return addMonths(d, 12*n)
	default:
		return addMonths(d, n)
	}
}

// advance returns base moved forward by k installment periods.
func advance(base time.Time, f proposal.EMIFrequency, k int) (time.Time, error) {
	switch f {
	case proposal.FrequencyDaily:
		return base.AddDate(0, 0, k), nil
	case proposal.FrequencyWeekly:
		return base.AddDate(0, 0, 7*k), nil
	case proposal.FrequencyMonthly:
		return addMonths(base, k), nil
	case proposal.FrequencyQuarterly:
		return addMonths(base, 3*k), nil
	case proposal.FrequencyYearly:
		return addMonths(base, 12*k), nil
	}
	return time.Time{}, apperr.Validationf("emi_frequency %q is not supported", f)
}

// addMonths adds n calendar months, clamping the day to the target month's
// length (Jan 31 + 1 month = Feb 28/29) instead of overflowing like time.AddDate.
func addMonths(d time.Time, n int) time.Time {
	y, m, day := d.Date()
	idx := int(m) - 1 + n
	ty := y + idx/12
	tm := time.Month(idx%12 + 1)
	if last := daysIn(ty, tm); day > last {
		day = last
	}
	return time.Date(ty, tm, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
