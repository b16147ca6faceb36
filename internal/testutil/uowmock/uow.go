package uowmock

import (
	"context"
	"errors"

	"credit-ledger/internal/domain/proposal"
	"credit-ledger/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn      func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinChainTxFn func(ctx context.Context, chainID string, fn func(r uow.Repos, latest *proposal.Proposal) error) error
}

// Passthrough runs every callback directly against repos, without a transaction.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinChainTxFn: func(ctx context.Context, chainID string, fn func(uow.Repos, *proposal.Proposal) error) error {
			latest, err := repos.Proposals.GetLatestForUpdate(ctx, chainID)
			if err != nil {
				return err
			}
			return fn(repos, latest)
		},
	}
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinChainTx(fn func(context.Context, string, func(uow.Repos, *proposal.Proposal) error) error) *UoW {
	m.WithinChainTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinChainTx(ctx context.Context, chainID string, fn func(r uow.Repos, latest *proposal.Proposal) error) error {
	if m.WithinChainTxFn != nil {
		return m.WithinChainTxFn(ctx, chainID, fn)
	}
	return errUnimplemented
}
