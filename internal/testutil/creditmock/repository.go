package creditmock

import (
	"context"

	domain "credit-ledger/internal/domain/credit"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn          func(ctx context.Context, c *domain.Credit) error
	GetByCreditIDFn   func(ctx context.Context, creditID string) (*domain.Credit, error)
	GetByChainIDFn    func(ctx context.Context, chainID string) (*domain.Credit, error)
	ListByPartyFn     func(ctx context.Context, partyID string, status domain.Status) ([]domain.Credit, error)
	ListIDsByStatusFn func(ctx context.Context, status domain.Status, afterID string, limit int) ([]string, error)
	SaveScheduleFn    func(ctx context.Context, c *domain.Credit) error
}

func (m *Repo) Create(ctx context.Context, c *domain.Credit) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) GetByCreditID(ctx context.Context, creditID string) (*domain.Credit, error) {
	if m.GetByCreditIDFn != nil {
		return m.GetByCreditIDFn(ctx, creditID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByChainID(ctx context.Context, chainID string) (*domain.Credit, error) {
	if m.GetByChainIDFn != nil {
		return m.GetByChainIDFn(ctx, chainID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByParty(ctx context.Context, partyID string, status domain.Status) ([]domain.Credit, error) {
	if m.ListByPartyFn != nil {
		return m.ListByPartyFn(ctx, partyID, status)
	}
	return nil, context.Canceled
}

func (m *Repo) ListIDsByStatus(ctx context.Context, status domain.Status, afterID string, limit int) ([]string, error) {
	if m.ListIDsByStatusFn != nil {
		return m.ListIDsByStatusFn(ctx, status, afterID, limit)
	}
	return nil, context.Canceled
}

func (m *Repo) SaveSchedule(ctx context.Context, c *domain.Credit) error {
	if m.SaveScheduleFn != nil {
		return m.SaveScheduleFn(ctx, c)
	}
	return nil
}
