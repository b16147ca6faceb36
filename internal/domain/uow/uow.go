package uow

import (
	"context"

	"credit-ledger/internal/domain/credit"
	"credit-ledger/internal/domain/proposal"
)

type Repos struct {
	Proposals proposal.Repository
	Credits   credit.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the chain's latest member first, then pass it in
	WithinChainTx(ctx context.Context, chainID string, fn func(r Repos, latest *proposal.Proposal) error) error
}
