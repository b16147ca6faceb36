package payment

import (
	"time"

	"credit-ledger/internal/domain/credit"
	"credit-ledger/internal/domain/proposal"
	"credit-ledger/internal/domain/schedule"
)

type MarkInput struct {
	ActorID  string
	CreditID string
	DueDate  string
	Status   credit.PaymentStatus
}

type CreditDTO struct {
	CreditID     string         `json:"credit_id"`
	ChainID      string         `json:"chain_id"`
	OfferID      string         `json:"offer_id,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	LenderID     string         `json:"lender_id"`
	BorrowerID   string         `json:"borrower_id"`
	Terms        proposal.Terms `json:"terms"`
	Installment  string         `json:"installment"`
	Status       credit.Status  `json:"status"`
	Schedule     []credit.Entry `json:"schedule"`
	RecoveryMode bool           `json:"recovery_mode"`
	FinalizedAt  time.Time      `json:"finalized_at"`
}

// SweepFailure records one credit the sweep could not update.
type SweepFailure struct {
	CreditID string `json:"credit_id"`
	Error    string `json:"error"`
}

type SweepReport struct {
	RunID     string         `json:"run_id"`
	Today     string         `json:"today"`
	Scanned   int            `json:"scanned"`
	Updated   int            `json:"updated"`
	Unchanged int            `json:"unchanged"`
	Failed    int            `json:"failed"`
	Failures  []SweepFailure `json:"failures,omitempty"`
}

func ToDTO(c *credit.Credit) CreditDTO {
	dto := CreditDTO{
		CreditID:     c.CreditID,
		ChainID:      c.ChainID,
		OfferID:      c.OfferID,
		RequestID:    c.RequestID,
		LenderID:     c.LenderID,
		BorrowerID:   c.BorrowerID,
		Terms:        c.Terms,
		Status:       c.Status,
		Schedule:     c.DueDates.Entries(),
		RecoveryMode: c.RecoveryMode,
		FinalizedAt:  c.FinalizedAt,
	}
	if amt, err := schedule.Installment(c.Terms.Principal, c.Terms.InterestRate, schedule.Periods(c.Terms)); err == nil {
		dto.Installment = amt.StringFixed(2)
	}
	return dto
}
