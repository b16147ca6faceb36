package proposal

import (
	"database/sql/driver"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"credit-ledger/internal/domain/party"
)

// ExpiryWindow is how long a proposal version stays open for a response.
const ExpiryWindow = 7 * 24 * time.Hour

type Kind string

const (
	KindOffer   Kind = "OFFER"   // initiated by the prospective lender
	KindRequest Kind = "REQUEST" // initiated by the prospective borrower
)

func (k Kind) Valid() bool { return k == KindOffer || k == KindRequest }

type Status string

const (
	StatusProposed   Status = "PROPOSED"
	StatusNegotiated Status = "NEGOTIATED"
	StatusAccepted   Status = "ACCEPTED"
	StatusRejected   Status = "REJECTED"
	StatusExpired    Status = "EXPIRED"
)

// IsOpen reports whether a chain member at this status can still be negotiated or resolved.
func (s Status) IsOpen() bool { return s == StatusProposed || s == StatusNegotiated }

func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusExpired
}

func (s Status) Valid() bool { return s.IsOpen() || s.IsTerminal() }

var OpenStatuses = []Status{StatusProposed, StatusNegotiated}

type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported column type %T", src)
	}
	out := Metadata{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("metadata: %w", err)
		}
	}
	*m = out
	return nil
}

// Table: proposals. Every negotiation step is its own immutable row; the chain
// is the set of rows sharing ParentProposalID.
type Proposal struct {
	ID               uint64             `gorm:"primaryKey;column:id;autoIncrement" json:"-"`
	ProposalID       string             `gorm:"column:proposal_id;size:32;not null;uniqueIndex:ux_proposals_proposal_id" json:"proposal_id"`
	ParentProposalID string             `gorm:"column:parent_proposal_id;size:32;not null;uniqueIndex:ux_proposals_chain_version,priority:1" json:"parent_proposal_id"`
	VersionNumber    int                `gorm:"column:version_number;not null;uniqueIndex:ux_proposals_chain_version,priority:2" json:"version_number"`
	IsLatest         bool               `gorm:"column:is_latest;not null;index:idx_proposals_latest" json:"is_latest"`
	Kind             Kind               `gorm:"column:kind;size:16;not null" json:"kind"`
	InitiatorID      string             `gorm:"column:initiator_id;size:32;not null;index" json:"initiator_id"`
	Counterparty     party.Counterparty `gorm:"embedded;embeddedPrefix:counterparty_" json:"counterparty"`
	AuthorID         string             `gorm:"column:author_id;size:32;not null" json:"author_id"`
	Terms            Terms              `gorm:"embedded" json:"terms"`
	Status           Status             `gorm:"column:status;size:16;not null;index" json:"status"`
	ExpiryDate       time.Time          `gorm:"column:expiry_date;not null" json:"expiry_date"`
	Metadata         Metadata           `gorm:"column:metadata;type:text" json:"metadata,omitempty"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Proposal) TableName() string { return "proposals" }

// IsParty reports whether accountID is the initiator or the resolved counterparty.
func (p *Proposal) IsParty(accountID string) bool {
	return accountID != "" && (p.InitiatorID == accountID || p.Counterparty.Is(accountID))
}

// LenderBorrower maps the initiator/counterparty pair onto credit roles.
// The counterparty side is empty while it is still a pending handle.
func (p *Proposal) LenderBorrower() (lender, borrower string) {
	if p.Kind == KindOffer {
		return p.InitiatorID, p.Counterparty.AccountID
	}
	return p.Counterparty.AccountID, p.InitiatorID
}

// Expired reports whether the response window closed before now.
func (p *Proposal) Expired(now time.Time) bool { return now.After(p.ExpiryDate) }
