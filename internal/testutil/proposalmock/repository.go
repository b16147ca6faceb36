package proposalmock

import (
	"context"
	"time"

	domain "credit-ledger/internal/domain/proposal"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to a nil error, reads to context.Canceled.
type Repo struct {
	CreateFn             func(ctx context.Context, p *domain.Proposal) error
	GetByProposalIDFn    func(ctx context.Context, proposalID string) (*domain.Proposal, error)
	GetLatestForUpdateFn func(ctx context.Context, chainID string) (*domain.Proposal, error)
	ListChainFn          func(ctx context.Context, chainID string) ([]domain.Proposal, error)
	ListFn               func(ctx context.Context, f domain.Filter) ([]domain.Proposal, error)
	SupersedeFn          func(ctx context.Context, p *domain.Proposal) error
	TransitionFn         func(ctx context.Context, p *domain.Proposal, to domain.Status) error
	ReassignHandleFn     func(ctx context.Context, handle, accountID string) (int64, error)
	ListStaleFn          func(ctx context.Context, now time.Time, limit int) ([]domain.Proposal, error)
}

func (m *Repo) Create(ctx context.Context, p *domain.Proposal) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *Repo) GetByProposalID(ctx context.Context, proposalID string) (*domain.Proposal, error) {
	if m.GetByProposalIDFn != nil {
		return m.GetByProposalIDFn(ctx, proposalID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetLatestForUpdate(ctx context.Context, chainID string) (*domain.Proposal, error) {
	if m.GetLatestForUpdateFn != nil {
		return m.GetLatestForUpdateFn(ctx, chainID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListChain(ctx context.Context, chainID string) ([]domain.Proposal, error) {
	if m.ListChainFn != nil {
		return m.ListChainFn(ctx, chainID)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.Filter) ([]domain.Proposal, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, context.Canceled
}

func (m *Repo) Supersede(ctx context.Context, p *domain.Proposal) error {
	if m.SupersedeFn != nil {
		return m.SupersedeFn(ctx, p)
	}
	return nil
}

func (m *Repo) Transition(ctx context.Context, p *domain.Proposal, to domain.Status) error {
	if m.TransitionFn != nil {
		return m.TransitionFn(ctx, p, to)
	}
	return nil
}

func (m *Repo) ReassignHandle(ctx context.Context, handle, accountID string) (int64, error) {
	if m.ReassignHandleFn != nil {
		return m.ReassignHandleFn(ctx, handle, accountID)
	}
	return 0, nil
}

func (m *Repo) ListStale(ctx context.Context, now time.Time, limit int) ([]domain.Proposal, error) {
	if m.ListStaleFn != nil {
		return m.ListStaleFn(ctx, now, limit)
	}
	return nil, context.Canceled
}
