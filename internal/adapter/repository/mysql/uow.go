package mysql

import (
	"context"

	"credit-ledger/internal/domain/proposal"
	"credit-ledger/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinChainTx(ctx context.Context, chainID string, fn func(r uow.Repos, latest *proposal.Proposal) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the latest member up-front; the CAS in Supersede/Transition still guards dialects without row locks
		latest, err := r.Proposals.GetLatestForUpdate(ctx, chainID)
		if err != nil {
			return err
		}
		return fn(r, latest)
	})
}

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Proposals: &ProposalRepository{db: tx},
		Credits:   &CreditRepository{db: tx},
	}
}
