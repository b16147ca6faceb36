package mysql

import (
	"context"

	"credit-ledger/internal/domain/apperr"
	creditDomain "credit-ledger/internal/domain/credit"

	"gorm.io/gorm"
)

type CreditRepository struct{ db *gorm.DB }

func NewCreditRepository(db *gorm.DB) *CreditRepository { return &CreditRepository{db: db} }

func (r *CreditRepository) Create(ctx context.Context, c *creditDomain.Credit) error {
	if c.Version == 0 {
		c.Version = 1
	}
	err := r.db.WithContext(ctx).Create(c).Error
	return translate(err, "credit for chain "+c.ChainID)
}

func (r *CreditRepository) GetByCreditID(ctx context.Context, creditID string) (*creditDomain.Credit, error) {
	var out creditDomain.Credit
	res := r.db.WithContext(ctx).Where("credit_id = ?", creditID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "credit "+creditID)
	}
	return &out, nil
}

func (r *CreditRepository) GetByChainID(ctx context.Context, chainID string) (*creditDomain.Credit, error) {
	var out creditDomain.Credit
	res := r.db.WithContext(ctx).Where("chain_id = ?", chainID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "credit for chain "+chainID)
	}
	return &out, nil
}

func (r *CreditRepository) ListByParty(ctx context.Context, partyID string, status creditDomain.Status) ([]creditDomain.Credit, error) {
	q := r.db.WithContext(ctx).Where("(lender_id = ? OR borrower_id = ?)", partyID, partyID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []creditDomain.Credit
	err := q.Order("finalized_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *CreditRepository) ListIDsByStatus(ctx context.Context, status creditDomain.Status, afterID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&creditDomain.Credit{}).
		Where("status = ? AND credit_id > ?", status, afterID).
		Order("credit_id ASC").
		Limit(limit).
		Pluck("credit_id", &ids).Error
	return ids, err
}

func (r *CreditRepository) SaveSchedule(ctx context.Context, c *creditDomain.Credit) error {
	res := r.db.WithContext(ctx).
		Model(&creditDomain.Credit{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]any{
			"due_dates":     c.DueDates,
			"status":        c.Status,
			"recovery_mode": c.RecoveryMode,
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflictf("credit %s changed since version %d was read", c.CreditID, c.Version)
	}
	c.Version++
	return nil
}
