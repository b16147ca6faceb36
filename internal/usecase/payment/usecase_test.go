package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	repo "credit-ledger/internal/adapter/repository/mysql"
	"credit-ledger/internal/domain/apperr"
	"credit-ledger/internal/domain/credit"
	"credit-ledger/internal/domain/proposal"
	"credit-ledger/internal/testutil/creditmock"
	"credit-ledger/internal/testutil/sqlitedb"
	"credit-ledger/pkg/clock"

	"gorm.io/gorm"
)

const (
	lenderID   = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	borrowerID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	strangerID = "cccccccccccccccccccccccccccccccc"
)

// today is 2024-03-10 for every test in this file.
var today = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func seedCredit(t *testing.T, db *gorm.DB, creditID string, dates credit.DueDates) *credit.Credit {
	t.Helper()
	c := &credit.Credit{
		CreditID:   creditID,
		ChainID:    "chain-" + creditID,
		OfferID:    "chain-" + creditID,
		LenderID:   lenderID,
		BorrowerID: borrowerID,
		Terms: proposal.Terms{
			Principal: 30000, LoanTerm: 3, TimeUnit: proposal.UnitMonths, InterestRate: 0,
			PaymentType: proposal.PaymentEMI, EMIFrequency: proposal.FrequencyMonthly,
		},
		Status:      credit.StatusActive,
		DueDates:    dates,
		FinalizedAt: today.AddDate(0, -2, 0),
	}
	if err := repo.NewCreditRepository(db).Create(context.Background(), c); err != nil {
		t.Fatalf("seed credit: %v", err)
	}
	return c
}

func threeDates() credit.DueDates {
	return credit.DueDates{
		"2024-02-10": credit.PaymentPaid,
		"2024-03-09": credit.PaymentYetToPay,
		"2024-04-10": credit.PaymentYetToPay,
	}
}

func load(t *testing.T, db *gorm.DB, creditID string) *credit.Credit {
	t.Helper()
	c, err := repo.NewCreditRepository(db).GetByCreditID(context.Background(), creditID)
	if err != nil {
		t.Fatalf("load %s: %v", creditID, err)
	}
	return c
}

func newUsecase(db *gorm.DB) *Usecase {
	return NewUsecase(repo.NewCreditRepository(db), clock.Fixed(today))
}

// ----- mark payment -----

func TestMarkPayment_OverwritesSingleEntry(t *testing.T) {
	db := sqlitedb.Open(t)
	seedCredit(t, db, "c1", threeDates())
	uc := newUsecase(db)

	dto, err := uc.MarkPayment(context.Background(), MarkInput{
		ActorID: borrowerID, CreditID: "c1", DueDate: "2024-04-10", Status: credit.PaymentBorrowerMarkedAsPaid,
	})
	if err != nil {
		t.Fatalf("MarkPayment: %v", err)
	}
	if dto.Installment != "10000.00" {
		t.Fatalf("installment = %s", dto.Installment)
	}

	got := load(t, db, "c1")
	want := threeDates()
	want["2024-04-10"] = credit.PaymentBorrowerMarkedAsPaid
	for date, st := range want {
		if got.DueDates[date] != st {
			t.Fatalf("%s = %s, want %s", date, got.DueDates[date], st)
		}
	}
	if got.Version != 2 {
		t.Fatalf("version = %d, want 2", got.Version)
	}
}

func TestMarkPayment_Errors(t *testing.T) {
	db := sqlitedb.Open(t)
	seedCredit(t, db, "c1", threeDates())
	closed := seedCredit(t, db, "c2", threeDates())
	closed.Status = credit.StatusDefaulted
	if err := repo.NewCreditRepository(db).SaveSchedule(context.Background(), closed); err != nil {
		t.Fatalf("close c2: %v", err)
	}
	uc := newUsecase(db)

	tests := []struct {
		name string
		in   MarkInput
		want error
	}{
		{"unknown due date", MarkInput{ActorID: lenderID, CreditID: "c1", DueDate: "2024-03-10", Status: credit.PaymentPaid}, apperr.ErrValidation},
		{"unknown status", MarkInput{ActorID: lenderID, CreditID: "c1", DueDate: "2024-03-09", Status: "FORGIVEN"}, apperr.ErrValidation},
		{"borrower settles", MarkInput{ActorID: borrowerID, CreditID: "c1", DueDate: "2024-03-09", Status: credit.PaymentPaid}, apperr.ErrValidation},
		{"lender marks not-yet-due entry missed", MarkInput{ActorID: lenderID, CreditID: "c1", DueDate: "2024-04-10", Status: credit.PaymentMissed}, apperr.ErrValidation},
		{"lender reopens paid entry", MarkInput{ActorID: lenderID, CreditID: "c1", DueDate: "2024-02-10", Status: credit.PaymentYetToPay}, apperr.ErrValidation},
		{"lender rewrites open entry as open", MarkInput{ActorID: lenderID, CreditID: "c1", DueDate: "2024-03-09", Status: credit.PaymentYetToPay}, apperr.ErrValidation},
		{"borrower marks missed", MarkInput{ActorID: borrowerID, CreditID: "c1", DueDate: "2024-03-09", Status: credit.PaymentMissed}, apperr.ErrValidation},
		{"stranger", MarkInput{ActorID: strangerID, CreditID: "c1", DueDate: "2024-03-09", Status: credit.PaymentPaid}, apperr.ErrNotFound},
		{"missing credit", MarkInput{ActorID: lenderID, CreditID: "nope", DueDate: "2024-03-09", Status: credit.PaymentPaid}, apperr.ErrNotFound},
		{"inactive credit", MarkInput{ActorID: lenderID, CreditID: "c2", DueDate: "2024-03-09", Status: credit.PaymentPaid}, apperr.ErrConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := uc.MarkPayment(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}

	// nothing above may have touched c1
	got := load(t, db, "c1")
	if got.Version != 1 {
		t.Fatalf("c1 was written: version %d", got.Version)
	}
	for date, st := range threeDates() {
		if got.DueDates[date] != st {
			t.Fatalf("%s changed to %s", date, got.DueDates[date])
		}
	}
}

func TestMarkPayment_OutOfOrderAndCompletion(t *testing.T) {
	db := sqlitedb.Open(t)
	seedCredit(t, db, "c1", threeDates())
	uc := newUsecase(db)
	ctx := context.Background()

	// prepayment of the later installment first
	if _, err := uc.MarkPayment(ctx, MarkInput{ActorID: lenderID, CreditID: "c1", DueDate: "2024-04-10", Status: credit.PaymentPaid}); err != nil {
		t.Fatalf("mark 04-10: %v", err)
	}
	if got := load(t, db, "c1"); got.Status != credit.StatusActive {
		t.Fatalf("status = %s before last payment", got.Status)
	}
	dto, err := uc.MarkPayment(ctx, MarkInput{ActorID: lenderID, CreditID: "c1", DueDate: "2024-03-09", Status: credit.PaymentPaidLate})
	if err != nil {
		t.Fatalf("mark 03-09: %v", err)
	}
	if dto.Status != credit.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", dto.Status)
	}
	if got := load(t, db, "c1"); got.Status != credit.StatusCompleted {
		t.Fatalf("stored status = %s", got.Status)
	}
}

func TestMarkPayment_LostRaceIsConflict(t *testing.T) {
	stored := &credit.Credit{
		CreditID: "c1", LenderID: lenderID, BorrowerID: borrowerID, Status: credit.StatusActive,
		DueDates: threeDates(), Version: 4,
	}
	uc := NewUsecase(&creditmock.Repo{
		GetByCreditIDFn: func(context.Context, string) (*credit.Credit, error) { return stored, nil },
		SaveScheduleFn: func(context.Context, *credit.Credit) error {
			return apperr.Conflictf("credit c1 changed since version 4 was read")
		},
	}, clock.Fixed(today))

	_, err := uc.MarkPayment(context.Background(), MarkInput{ActorID: lenderID, CreditID: "c1", DueDate: "2024-03-09", Status: credit.PaymentPaid})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

// ----- queries -----

func TestListAndGetCredit(t *testing.T) {
	db := sqlitedb.Open(t)
	seedCredit(t, db, "c1", threeDates())
	seedCredit(t, db, "c2", threeDates())
	uc := newUsecase(db)
	ctx := context.Background()

	list, err := uc.ListCredits(ctx, lenderID, "")
	if err != nil {
		t.Fatalf("ListCredits: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d", len(list))
	}
	if s := list[0].Schedule; len(s) != 3 || s[0].Date != "2024-02-10" || s[2].Date != "2024-04-10" {
		t.Fatalf("schedule not sorted: %+v", s)
	}
	none, _ := uc.ListCredits(ctx, strangerID, "")
	if len(none) != 0 {
		t.Fatalf("stranger sees %d credits", len(none))
	}
	if _, err := uc.ListCredits(ctx, lenderID, "LOST"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("bad status: want ErrValidation, got %v", err)
	}

	if _, err := uc.GetCredit(ctx, borrowerID, "c1"); err != nil {
		t.Fatalf("GetCredit: %v", err)
	}
	if _, err := uc.GetCredit(ctx, strangerID, "c1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("stranger GetCredit: want ErrNotFound, got %v", err)
	}
}

// ----- sweep -----

func TestSweep_MarksOverdueOnly(t *testing.T) {
	db := sqlitedb.Open(t)
	seedCredit(t, db, "c1", threeDates())
	seedCredit(t, db, "c2", credit.DueDates{
		"2024-03-10": credit.PaymentYetToPay, // due today: not overdue yet
		"2024-03-01": credit.PaymentBorrowerMarkedAsPaid,
	})
	uc := newUsecase(db)

	rep, err := uc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if rep.RunID == "" || rep.Today != "2024-03-10" {
		t.Fatalf("report header wrong: %+v", rep)
	}
	if rep.Scanned != 2 || rep.Updated != 1 || rep.Unchanged != 1 || rep.Failed != 0 {
		t.Fatalf("report = %+v", rep)
	}

	c1 := load(t, db, "c1")
	if c1.DueDates["2024-03-09"] != credit.PaymentMissed {
		t.Fatalf("yesterday not MISSED: %s", c1.DueDates["2024-03-09"])
	}
	if c1.DueDates["2024-02-10"] != credit.PaymentPaid || c1.DueDates["2024-04-10"] != credit.PaymentYetToPay {
		t.Fatalf("sweep touched other entries: %+v", c1.DueDates)
	}
	if !c1.RecoveryMode {
		t.Fatalf("recovery mode not switched on")
	}

	c2 := load(t, db, "c2")
	if c2.Version != 1 || c2.RecoveryMode {
		t.Fatalf("unchanged credit was written: %+v", c2)
	}

	// idempotent
	again, err := uc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if again.Updated != 0 || again.Unchanged != 2 {
		t.Fatalf("second report = %+v", again)
	}
	if load(t, db, "c1").Version != c1.Version {
		t.Fatalf("second sweep rewrote c1")
	}
}

func TestSweep_SkipsInactiveCredits(t *testing.T) {
	db := sqlitedb.Open(t)
	c := seedCredit(t, db, "c1", threeDates())
	c.Status = credit.StatusCancelled
	if err := repo.NewCreditRepository(db).SaveSchedule(context.Background(), c); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	rep, err := newUsecase(db).Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if rep.Scanned != 0 {
		t.Fatalf("scanned inactive credit: %+v", rep)
	}
	if load(t, db, "c1").DueDates["2024-03-09"] != credit.PaymentYetToPay {
		t.Fatalf("inactive credit swept")
	}
}

func TestSweep_PartialFailureContinues(t *testing.T) {
	boom := errors.New("disk on fire")
	saved := map[string]bool{}
	uc := NewUsecase(&creditmock.Repo{
		ListIDsByStatusFn: func(_ context.Context, _ credit.Status, after string, _ int) ([]string, error) {
			if after != "" {
				return nil, nil
			}
			return []string{"bad", "good"}, nil
		},
		GetByCreditIDFn: func(_ context.Context, id string) (*credit.Credit, error) {
			if id == "bad" {
				return nil, boom
			}
			return &credit.Credit{CreditID: id, Status: credit.StatusActive, DueDates: threeDates(), Version: 1}, nil
		},
		SaveScheduleFn: func(_ context.Context, c *credit.Credit) error {
			saved[c.CreditID] = true
			return nil
		},
	}, clock.Fixed(today))

	rep, err := uc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if rep.Scanned != 2 || rep.Updated != 1 || rep.Failed != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if len(rep.Failures) != 1 || rep.Failures[0].CreditID != "bad" {
		t.Fatalf("failures = %+v", rep.Failures)
	}
	if !saved["good"] {
		t.Fatalf("good credit not saved after bad one failed")
	}
}

func TestSweep_RetriesLostRace(t *testing.T) {
	attempts := 0
	// a concurrent payment lands between read and write on the first attempt
	uc := NewUsecase(&creditmock.Repo{
		ListIDsByStatusFn: func(_ context.Context, _ credit.Status, after string, _ int) ([]string, error) {
			if after != "" {
				return nil, nil
			}
			return []string{"c1"}, nil
		},
		GetByCreditIDFn: func(context.Context, string) (*credit.Credit, error) {
			dates := threeDates()
			if attempts > 0 {
				dates["2024-03-09"] = credit.PaymentBorrowerMarkedAsPaid
			}
			return &credit.Credit{CreditID: "c1", Status: credit.StatusActive, DueDates: dates, Version: attempts + 1}, nil
		},
		SaveScheduleFn: func(context.Context, *credit.Credit) error {
			attempts++
			return apperr.Conflictf("stale")
		},
	}, clock.Fixed(today))

	rep, err := uc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	// fresh read shows nothing overdue, so no second write is attempted
	if attempts != 1 || rep.Unchanged != 1 || rep.Failed != 0 {
		t.Fatalf("attempts=%d report=%+v", attempts, rep)
	}
}

func TestSweep_GivesUpAfterRepeatedConflicts(t *testing.T) {
	attempts := 0
	uc := NewUsecase(&creditmock.Repo{
		ListIDsByStatusFn: func(_ context.Context, _ credit.Status, after string, _ int) ([]string, error) {
			if after != "" {
				return nil, nil
			}
			return []string{"c1"}, nil
		},
		GetByCreditIDFn: func(context.Context, string) (*credit.Credit, error) {
			return &credit.Credit{CreditID: "c1", Status: credit.StatusActive, DueDates: threeDates()}, nil
		},
		SaveScheduleFn: func(context.Context, *credit.Credit) error {
			attempts++
			return apperr.Conflictf("stale")
		},
	}, clock.Fixed(today))

	rep, _ := uc.Sweep(context.Background())
	if attempts != sweepAttempts || rep.Failed != 1 {
		t.Fatalf("attempts=%d report=%+v", attempts, rep)
	}
}

func TestMarkOverdue(t *testing.T) {
	in := threeDates()
	out, changed := MarkOverdue(in, today)
	if !changed || out["2024-03-09"] != credit.PaymentMissed {
		t.Fatalf("out=%+v changed=%v", out, changed)
	}
	if in["2024-03-09"] != credit.PaymentYetToPay {
		t.Fatalf("input mutated")
	}
	if _, changed := MarkOverdue(out, today); changed {
		t.Fatalf("second pass reported a change")
	}
}
