package mysql

import (
	"context"
	"time"

	"credit-ledger/internal/domain/apperr"
	proposalDomain "credit-ledger/internal/domain/proposal"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type ProposalRepository struct{ db *gorm.DB }

func NewProposalRepository(db *gorm.DB) *ProposalRepository { return &ProposalRepository{db: db} }

func (r *ProposalRepository) Create(ctx context.Context, p *proposalDomain.Proposal) error {
	err := r.db.WithContext(ctx).Create(p).Error
	return translate(err, "proposal version "+p.ParentProposalID)
}

func (r *ProposalRepository) GetByProposalID(ctx context.Context, proposalID string) (*proposalDomain.Proposal, error) {
	var out proposalDomain.Proposal
	res := r.db.WithContext(ctx).Where("proposal_id = ?", proposalID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "proposal "+proposalID)
	}
	return &out, nil
}

func (r *ProposalRepository) GetLatestForUpdate(ctx context.Context, chainID string) (*proposalDomain.Proposal, error) {
	var out proposalDomain.Proposal
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("parent_proposal_id = ? AND is_latest = ?", chainID, true).
		First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "proposal chain "+chainID)
	}
	return &out, nil
}

func (r *ProposalRepository) ListChain(ctx context.Context, chainID string) ([]proposalDomain.Proposal, error) {
	var out []proposalDomain.Proposal
	err := r.db.WithContext(ctx).
		Where("parent_proposal_id = ?", chainID).
		Order("version_number ASC").
		Find(&out).Error
	return out, err
}

func (r *ProposalRepository) List(ctx context.Context, f proposalDomain.Filter) ([]proposalDomain.Proposal, error) {
	q := r.db.WithContext(ctx).Model(&proposalDomain.Proposal{})
	if !f.IncludeHistory {
		q = q.Where("is_latest = ?", true)
	}
	if f.InitiatorID != "" {
		q = q.Where("initiator_id = ?", f.InitiatorID)
	}
	if f.CounterpartyID != "" {
		q = q.Where("counterparty_account_id = ?", f.CounterpartyID)
	}
	if f.PartyID != "" {
		q = q.Where("(initiator_id = ? OR counterparty_account_id = ?)", f.PartyID, f.PartyID)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentType != "" {
		q = q.Where("payment_type = ?", f.PaymentType)
	}
	if f.MinAmount != nil {
		q = q.Where("principal >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("principal <= ?", *f.MaxAmount)
	}
	if f.MinRate != nil {
		q = q.Where("interest_rate >= ?", *f.MinRate)
	}
	if f.MaxRate != nil {
		q = q.Where("interest_rate <= ?", *f.MaxRate)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var out []proposalDomain.Proposal
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

// casOpenLatest updates p only while it is still the chain's latest member in an open status.
func (r *ProposalRepository) casOpenLatest(ctx context.Context, p *proposalDomain.Proposal, values map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&proposalDomain.Proposal{}).
		Where("id = ? AND is_latest = ? AND status IN ?", p.ID, true, proposalDomain.OpenStatuses).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflictf("proposal %s is no longer the open latest version", p.ProposalID)
	}
	return nil
}

func (r *ProposalRepository) Supersede(ctx context.Context, p *proposalDomain.Proposal) error {
	err := r.casOpenLatest(ctx, p, map[string]any{
		"is_latest": false,
		"status":    proposalDomain.StatusNegotiated,
	})
	if err != nil {
		return err
	}
	p.IsLatest = false
	p.Status = proposalDomain.StatusNegotiated
	return nil
}

func (r *ProposalRepository) Transition(ctx context.Context, p *proposalDomain.Proposal, to proposalDomain.Status) error {
	if !to.IsTerminal() {
		return apperr.Validationf("status %s is not terminal", to)
	}
	if err := r.casOpenLatest(ctx, p, map[string]any{"status": to}); err != nil {
		return err
	}
	p.Status = to
	return nil
}

func (r *ProposalRepository) ReassignHandle(ctx context.Context, handle, accountID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&proposalDomain.Proposal{}).
		Where("counterparty_handle = ? AND counterparty_account_id = ?", handle, "").
		Updates(map[string]any{
			"counterparty_account_id": accountID,
			"counterparty_handle":     "",
		})
	return res.RowsAffected, res.Error
}

func (r *ProposalRepository) ListStale(ctx context.Context, now time.Time, limit int) ([]proposalDomain.Proposal, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var out []proposalDomain.Proposal
	err := r.db.WithContext(ctx).
		Where("is_latest = ? AND status IN ? AND expiry_date < ?", true, proposalDomain.OpenStatuses, now).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
