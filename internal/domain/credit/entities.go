package credit

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"credit-ledger/internal/domain/proposal"
)

// DateLayout is the key format of a credit's due-date mapping.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusDefaulted Status = "DEFAULTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled, StatusDefaulted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentYetToPay             PaymentStatus = "YET_TO_PAY"
	PaymentBorrowerMarkedAsPaid PaymentStatus = "BORROWER_MARKED_AS_PAID"
	PaymentPaid                 PaymentStatus = "PAID"
	PaymentPaidLate             PaymentStatus = "PAID_LATE"
	PaymentMissed               PaymentStatus = "MISSED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentYetToPay, PaymentBorrowerMarkedAsPaid, PaymentPaid, PaymentPaidLate, PaymentMissed:
		return true
	}
	return false
}

// Settled reports whether the lender has confirmed the installment.
func (s PaymentStatus) Settled() bool { return s == PaymentPaid || s == PaymentPaidLate }

type Entry struct {
	Date   string        `json:"date"`
	Status PaymentStatus `json:"status"`
}

// DueDates maps an ISO calendar date to the status of the installment due that day.
// Map order is undefined; use Entries for iteration.
type DueDates map[string]PaymentStatus

// Entries returns the schedule in ascending date order.
func (d DueDates) Entries() []Entry {
	out := make([]Entry, 0, len(d))
	for date, st := range d {
		out = append(out, Entry{Date: date, Status: st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (d DueDates) Clone() DueDates {
	out := make(DueDates, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func FromEntries(entries []Entry) DueDates {
	out := make(DueDates, len(entries))
	for _, e := range entries {
		out[e.Date] = e.Status
	}
	return out
}

func (d DueDates) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]PaymentStatus(d))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *DueDates) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = DueDates{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("due_dates: unsupported column type %T", src)
	}
	out := DueDates{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("due_dates: %w", err)
		}
	}
	*d = out
	return nil
}

// Table: credits. Exactly one row per accepted proposal chain (ux_credits_chain_id).
type Credit struct {
	ID           uint64         `gorm:"primaryKey;column:id;autoIncrement" json:"-"`
	CreditID     string         `gorm:"column:credit_id;size:32;not null;uniqueIndex:ux_credits_credit_id" json:"credit_id"`
	ChainID      string         `gorm:"column:chain_id;size:32;not null;uniqueIndex:ux_credits_chain_id" json:"chain_id"`
	OfferID      string         `gorm:"column:offer_id;size:32" json:"offer_id,omitempty"`
	RequestID    string         `gorm:"column:request_id;size:32" json:"request_id,omitempty"`
	LenderID     string         `gorm:"column:lender_id;size:32;not null;index" json:"lender_id"`
	BorrowerID   string         `gorm:"column:borrower_id;size:32;not null;index" json:"borrower_id"`
	Terms        proposal.Terms `gorm:"embedded" json:"terms"`
	Status       Status         `gorm:"column:status;size:16;not null;index" json:"status"`
	DueDates     DueDates       `gorm:"column:due_dates;type:text;not null" json:"due_dates"`
	RecoveryMode bool           `gorm:"column:recovery_mode;not null;default:false" json:"recovery_mode"`
	FinalizedAt  time.Time      `gorm:"column:finalized_at;not null" json:"finalized_at"`
	Version      int            `gorm:"column:version;not null;default:1" json:"-"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Credit) TableName() string { return "credits" }

func (c *Credit) IsParty(accountID string) bool {
	return accountID != "" && (c.LenderID == accountID || c.BorrowerID == accountID)
}

// FullySettled reports whether every installment has been confirmed paid.
func (c *Credit) FullySettled() bool {
	if len(c.DueDates) == 0 {
		return false
	}
	for _, st := range c.DueDates {
		if !st.Settled() {
			return false
		}
	}
	return true
}
