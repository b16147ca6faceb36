package proposal

import (
	"context"
	"time"
)

// Filter narrows List. Zero values mean "no constraint"; history is excluded
// unless IncludeHistory is set.
type Filter struct {
	InitiatorID    string
	CounterpartyID string
	PartyID        string // initiator OR counterparty
	Kind           Kind
	Status         Status
	PaymentType    PaymentType
	MinAmount      *float64
	MaxAmount      *float64
	MinRate        *float64
	MaxRate        *float64
	IncludeHistory bool
	Limit          int
}

type Repository interface {
	Create(ctx context.Context, p *Proposal) error
	GetByProposalID(ctx context.Context, proposalID string) (*Proposal, error)

	// Latest chain member, locked for the rest of the transaction where the dialect supports it.
	GetLatestForUpdate(ctx context.Context, chainID string) (*Proposal, error)
	ListChain(ctx context.Context, chainID string) ([]Proposal, error)
	List(ctx context.Context, f Filter) ([]Proposal, error)

	// Supersede demotes p (must still be latest and open) to NEGOTIATED.
	// Returns apperr.ErrConflict when the compare-and-swap matches nothing.
	Supersede(ctx context.Context, p *Proposal) error
	// Transition moves p (must still be latest and open) to a terminal status.
	Transition(ctx context.Context, p *Proposal, to Status) error

	// ReassignHandle points every proposal still waiting on handle at accountID.
	ReassignHandle(ctx context.Context, handle, accountID string) (int64, error)
	// ListStale returns latest open members whose expiry date is before now.
	ListStale(ctx context.Context, now time.Time, limit int) ([]Proposal, error)
}
