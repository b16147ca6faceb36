package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"credit-ledger/internal/domain/apperr"
	"credit-ledger/internal/domain/credit"
	"credit-ledger/pkg/clock"
)

const (
	sweepPage     = 500
	sweepAttempts = 3
)

type Usecase struct {
	repo  credit.Repository
	clock clock.Clock
	log   *slog.Logger
}

func NewUsecase(repo credit.Repository, clk clock.Clock) *Usecase {
	if clk == nil {
		clk = clock.System()
	}
	return &Usecase{repo: repo, clock: clk, log: slog.Default()}
}

func (u *Usecase) WithLogger(l *slog.Logger) *Usecase {
	u.log = l
	return u
}

// visible loads a credit the actor is party to; strangers get NotFound.
func (u *Usecase) visible(ctx context.Context, actorID, creditID string) (*credit.Credit, error) {
	c, err := u.repo.GetByCreditID(ctx, creditID)
	if err != nil {
		return nil, err
	}
	if !c.IsParty(actorID) {
		return nil, apperr.NotFoundf("credit %s", creditID)
	}
	return c, nil
}

// MarkPayment overwrites one schedule entry. Borrowers may only claim a payment;
// settling an entry is the lender's call. MISSED is set by the sweep alone and
// no entry goes back to YET_TO_PAY.
func (u *Usecase) MarkPayment(ctx context.Context, in MarkInput) (*CreditDTO, error) {
	switch {
	case !in.Status.Valid():
		return nil, apperr.Validationf("unknown payment status %q", in.Status)
	case in.Status == credit.PaymentMissed:
		return nil, apperr.Validationf("only the missed-payment sweep marks an installment %s", credit.PaymentMissed)
	case in.Status == credit.PaymentYetToPay:
		return nil, apperr.Validationf("an installment cannot be reopened to %s", credit.PaymentYetToPay)
	}
	c, err := u.visible(ctx, in.ActorID, in.CreditID)
	if err != nil {
		return nil, err
	}
	if c.Status != credit.StatusActive {
		return nil, apperr.Conflictf("credit %s is %s", c.CreditID, c.Status)
	}
	if _, ok := c.DueDates[in.DueDate]; !ok {
		return nil, apperr.Validationf("credit %s has no installment due on %q", c.CreditID, in.DueDate)
	}
	if in.ActorID == c.BorrowerID && in.ActorID != c.LenderID && in.Status != credit.PaymentBorrowerMarkedAsPaid {
		return nil, apperr.Validationf("borrower may only mark an installment as %s", credit.PaymentBorrowerMarkedAsPaid)
	}

	c.DueDates = c.DueDates.Clone()
	c.DueDates[in.DueDate] = in.Status
	if c.FullySettled() {
		c.Status = credit.StatusCompleted
	}
	if err := u.repo.SaveSchedule(ctx, c); err != nil {
		return nil, err
	}
	dto := ToDTO(c)
	return &dto, nil
}

func (u *Usecase) GetCredit(ctx context.Context, actorID, creditID string) (*CreditDTO, error) {
	c, err := u.visible(ctx, actorID, creditID)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(c)
	return &dto, nil
}

// Credit returns the raw entity for exporters; visibility rules match GetCredit.
func (u *Usecase) Credit(ctx context.Context, actorID, creditID string) (*credit.Credit, error) {
	return u.visible(ctx, actorID, creditID)
}

func (u *Usecase) ListCredits(ctx context.Context, partyID string, status credit.Status) ([]CreditDTO, error) {
	if partyID == "" {
		return nil, apperr.Validationf("party is required")
	}
	if status != "" && !status.Valid() {
		return nil, apperr.Validationf("unknown credit status %q", status)
	}
	cs, err := u.repo.ListByParty(ctx, partyID, status)
	if err != nil {
		return nil, err
	}
	out := make([]CreditDTO, 0, len(cs))
	for i := range cs {
		out = append(out, ToDTO(&cs[i]))
	}
	return out, nil
}

// Sweep marks every overdue YET_TO_PAY installment of every ACTIVE credit as MISSED.
// A failing credit is recorded in the report and the sweep moves on.
func (u *Usecase) Sweep(ctx context.Context) (*SweepReport, error) {
	today := clock.Today(u.clock)
	rep := &SweepReport{RunID: uuid.NewString(), Today: today.Format(credit.DateLayout)}
	log := u.log.With("run_id", rep.RunID)
	start := time.Now()

	after := ""
	for {
		ids, err := u.repo.ListIDsByStatus(ctx, credit.StatusActive, after, sweepPage)
		if err != nil {
			// the page query itself failing leaves nothing to iterate
			return rep, err
		}
		for _, creditID := range ids {
			rep.Scanned++
			changed, err := u.sweepOne(ctx, creditID, today)
			switch {
			case err != nil:
				rep.Failed++
				rep.Failures = append(rep.Failures, SweepFailure{CreditID: creditID, Error: err.Error()})
				log.WarnContext(ctx, "sweep: credit failed", "credit_id", creditID, "err", err)
			case changed:
				rep.Updated++
			default:
				rep.Unchanged++
			}
		}
		if len(ids) < sweepPage {
			break
		}
		after = ids[len(ids)-1]
	}

	log.InfoContext(ctx, "sweep: done",
		"today", rep.Today,
		"scanned", rep.Scanned,
		"updated", rep.Updated,
		"unchanged", rep.Unchanged,
		"failed", rep.Failed,
		"took", time.Since(start),
	)
	return rep, nil
}

// sweepOne re-reads the credit on every attempt so a concurrent MarkPayment is never overwritten.
func (u *Usecase) sweepOne(ctx context.Context, creditID string, today time.Time) (bool, error) {
	var err error
	for attempt := 1; attempt <= sweepAttempts; attempt++ {
		var changed bool
		changed, err = u.trySweep(ctx, creditID, today)
		if err == nil {
			return changed, nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			return false, err
		}
	}
	return false, err
}

func (u *Usecase) trySweep(ctx context.Context, creditID string, today time.Time) (bool, error) {
	c, err := u.repo.GetByCreditID(ctx, creditID)
	if err != nil {
		return false, err
	}
	if c.Status != credit.StatusActive {
		return false, nil
	}
	next, changed := MarkOverdue(c.DueDates, today)
	if !changed {
		return false, nil
	}
	c.DueDates = next
	c.RecoveryMode = true
	if err := u.repo.SaveSchedule(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}

// MarkOverdue returns a copy of dates with every YET_TO_PAY entry strictly before today set to MISSED.
func MarkOverdue(dates credit.DueDates, today time.Time) (credit.DueDates, bool) {
	cutoff := clock.DateOf(today).Format(credit.DateLayout)
	out := dates.Clone()
	changed := false
	for date, st := range out {
		// ISO dates order lexically
		if st == credit.PaymentYetToPay && date < cutoff {
			out[date] = credit.PaymentMissed
			changed = true
		}
	}
	return out, changed
}
