package proposal

import (
	"time"

	domain "credit-ledger/internal/domain/proposal"
	"credit-ledger/internal/domain/schedule"
)

type CreateInput struct {
	Kind               domain.Kind
	InitiatorID        string
	CounterpartyHandle string
	Terms              domain.Terms
	Metadata           map[string]string
}

type NegotiateInput struct {
	ActorID    string
	ProposalID string
	Terms      domain.Terms
	Metadata   map[string]string // nil keeps the previous version's metadata
}

type ResolveInput struct {
	ActorID    string
	ProposalID string
	Status     domain.Status
}

type ProposalDTO struct {
	ProposalID         string            `json:"proposal_id"`
	ParentProposalID   string            `json:"parent_proposal_id"`
	VersionNumber      int               `json:"version_number"`
	IsLatest           bool              `json:"is_latest"`
	Kind               domain.Kind       `json:"kind"`
	InitiatorID        string            `json:"initiator_id"`
	CounterpartyID     string            `json:"counterparty_id,omitempty"`
	CounterpartyHandle string            `json:"counterparty_handle,omitempty"`
	AuthorID           string            `json:"author_id"`
	Terms              domain.Terms      `json:"terms"`
	Installment        string            `json:"installment,omitempty"`
	Status             domain.Status     `json:"status"`
	ExpiryDate         time.Time         `json:"expiry_date"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

type ResolveDTO struct {
	Proposal ProposalDTO `json:"proposal"`
	CreditID string      `json:"credit_id,omitempty"`
}

type ExpireReport struct {
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
}

func toDTO(p *domain.Proposal) ProposalDTO {
	dto := ProposalDTO{
		ProposalID:         p.ProposalID,
		ParentProposalID:   p.ParentProposalID,
		VersionNumber:      p.VersionNumber,
		IsLatest:           p.IsLatest,
		Kind:               p.Kind,
		InitiatorID:        p.InitiatorID,
		CounterpartyID:     p.Counterparty.AccountID,
		CounterpartyHandle: p.Counterparty.Handle,
		AuthorID:           p.AuthorID,
		Terms:              p.Terms,
		Status:             p.Status,
		ExpiryDate:         p.ExpiryDate,
		Metadata:           p.Metadata,
		CreatedAt:          p.CreatedAt,
	}
	// informational only; a quote failure never hides the proposal
	if p.Terms.PaymentType == domain.PaymentEMI {
		if amt, err := schedule.Installment(p.Terms.Principal, p.Terms.InterestRate, schedule.Periods(p.Terms)); err == nil {
			dto.Installment = amt.StringFixed(2)
		}
	}
	return dto
}

func toDTOs(ps []domain.Proposal) []ProposalDTO {
	out := make([]ProposalDTO, 0, len(ps))
	for i := range ps {
		out = append(out, toDTO(&ps[i]))
	}
	return out
}
