// Package activation turns the final member of a proposal chain into a binding credit.
package activation

import (
	"context"

	"credit-ledger/internal/domain/apperr"
	"credit-ledger/internal/domain/credit"
	"credit-ledger/internal/domain/proposal"
	"credit-ledger/internal/domain/schedule"
	"credit-ledger/internal/domain/uow"
	"credit-ledger/pkg/clock"
	"credit-ledger/pkg/id"
)

type Engine struct {
	uow   uow.UnitOfWork
	clock clock.Clock
}

func NewEngine(tx uow.UnitOfWork, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.System()
	}
	return &Engine{uow: tx, clock: clk}
}

// Activate closes chainID with final in its own transaction. For ACCEPTED the
// returned credit is the one booked; other outcomes return nil.
func (e *Engine) Activate(ctx context.Context, chainID string, final proposal.Status) (*credit.Credit, error) {
	var out *credit.Credit
	err := e.uow.WithinChainTx(ctx, chainID, func(r uow.Repos, latest *proposal.Proposal) error {
		c, err := e.Finalize(ctx, r, latest, final)
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Finalize runs inside a caller's chain transaction; latest must be the locked latest member.
func (e *Engine) Finalize(ctx context.Context, r uow.Repos, latest *proposal.Proposal, final proposal.Status) (*credit.Credit, error) {
	if !final.IsTerminal() {
		return nil, apperr.Validationf("status %s is not a final outcome", final)
	}
	if !latest.Status.IsOpen() {
		return nil, apperr.Conflictf("proposal chain %s is already %s", latest.ParentProposalID, latest.Status)
	}
	if final == proposal.StatusAccepted && !latest.Counterparty.IsResolved() {
		return nil, apperr.Conflictf("counterparty %s has not registered yet", latest.Counterparty.Handle)
	}

	if err := r.Proposals.Transition(ctx, latest, final); err != nil {
		return nil, err
	}
	if final != proposal.StatusAccepted {
		return nil, nil
	}

	terms, err := latest.Terms.Normalize()
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	entries, err := schedule.Generate(terms, now, now)
	if err != nil {
		return nil, err
	}

	lender, borrower := latest.LenderBorrower()
	c := &credit.Credit{
		CreditID:    id.NewID32(),
		ChainID:     latest.ParentProposalID,
		LenderID:    lender,
		BorrowerID:  borrower,
		Terms:       terms,
		Status:      credit.StatusActive,
		DueDates:    credit.FromEntries(entries),
		FinalizedAt: now,
		Version:     1,
	}
	if latest.Kind == proposal.KindOffer {
		c.OfferID = latest.ProposalID
	} else {
		c.RequestID = latest.ProposalID
	}

	// ux_credits_chain_id turns a racing second activation into a conflict
	if err := r.Credits.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
