package proposal

import (
	"context"
	"log/slog"

	"credit-ledger/internal/domain/apperr"
	"credit-ledger/internal/domain/party"
	domain "credit-ledger/internal/domain/proposal"
	"credit-ledger/internal/domain/uow"
	"credit-ledger/internal/usecase/activation"
	"credit-ledger/pkg/clock"
	"credit-ledger/pkg/id"
)

const (
	DefaultDialCode = "+91"
	staleBatch      = 200
)

type Usecase struct {
	repo     domain.Repository
	uow      uow.UnitOfWork
	engine   *activation.Engine
	resolver party.Resolver
	clock    clock.Clock
	dialCode string
	log      *slog.Logger
}

// NewUsecase: repo serves reads and chain creation, the UoW every chain mutation.
func NewUsecase(repo domain.Repository, tx uow.UnitOfWork, engine *activation.Engine, resolver party.Resolver, clk clock.Clock, dialCode string) *Usecase {
	if clk == nil {
		clk = clock.System()
	}
	if dialCode == "" {
		dialCode = DefaultDialCode
	}
	return &Usecase{
		repo:     repo,
		uow:      tx,
		engine:   engine,
		resolver: resolver,
		clock:    clk,
		dialCode: dialCode,
		log:      slog.Default(),
	}
}

func (u *Usecase) WithLogger(l *slog.Logger) *Usecase {
	u.log = l
	return u
}

// DialCode is the prefix handles are normalized with.
func (u *Usecase) DialCode() string { return u.dialCode }

func (u *Usecase) Create(ctx context.Context, in CreateInput) (*ProposalDTO, error) {
	if !in.Kind.Valid() {
		return nil, apperr.Validationf("kind %q is not one of OFFER, REQUEST", in.Kind)
	}
	if in.InitiatorID == "" {
		return nil, apperr.Validationf("initiator is required")
	}
	terms, err := in.Terms.Normalize()
	if err != nil {
		return nil, err
	}
	handle, err := party.NormalizeHandle(in.CounterpartyHandle, u.dialCode)
	if err != nil {
		return nil, err
	}

	cp := party.Pending(handle)
	accountID, found, err := u.resolver.ResolveAccountByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if found {
		if accountID == in.InitiatorID {
			return nil, apperr.Validationf("cannot propose credit to yourself")
		}
		cp = party.Resolved(accountID)
	}

	now := u.clock.Now()
	pid := id.NewID32()
	p := &domain.Proposal{
		ProposalID:       pid,
		ParentProposalID: pid,
		VersionNumber:    1,
		IsLatest:         true,
		Kind:             in.Kind,
		InitiatorID:      in.InitiatorID,
		Counterparty:     cp,
		AuthorID:         in.InitiatorID,
		Terms:            terms,
		Status:           domain.StatusProposed,
		ExpiryDate:       now.Add(domain.ExpiryWindow),
		Metadata:         domain.Metadata(in.Metadata),
		CreatedAt:        now,
	}
	if err := u.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	dto := toDTO(p)
	return &dto, nil
}

// member loads a proposal the actor may see; strangers get NotFound, not Forbidden.
func (u *Usecase) member(ctx context.Context, actorID, proposalID string) (*domain.Proposal, error) {
	p, err := u.repo.GetByProposalID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !p.IsParty(actorID) {
		return nil, apperr.NotFoundf("proposal %s", proposalID)
	}
	return p, nil
}

func (u *Usecase) Negotiate(ctx context.Context, in NegotiateInput) (*ProposalDTO, error) {
	terms, err := in.Terms.Normalize()
	if err != nil {
		return nil, err
	}
	m, err := u.member(ctx, in.ActorID, in.ProposalID)
	if err != nil {
		return nil, err
	}

	var dto ProposalDTO
	err = u.uow.WithinChainTx(ctx, m.ParentProposalID, func(r uow.Repos, latest *domain.Proposal) error {
		if !latest.Status.IsOpen() {
			return apperr.Conflictf("proposal chain %s is already %s", latest.ParentProposalID, latest.Status)
		}
		if latest.ProposalID != m.ProposalID {
			return apperr.NotFoundf("proposal %s is not the latest version", m.ProposalID)
		}

		if err := r.Proposals.Supersede(ctx, latest); err != nil {
			return err
		}

		meta := latest.Metadata
		if in.Metadata != nil {
			meta = domain.Metadata(in.Metadata)
		}
		now := u.clock.Now()
		next := &domain.Proposal{
			ProposalID:       id.NewID32(),
			ParentProposalID: latest.ParentProposalID,
			VersionNumber:    latest.VersionNumber + 1,
			IsLatest:         true,
			Kind:             latest.Kind,
			InitiatorID:      latest.InitiatorID,
			Counterparty:     latest.Counterparty,
			AuthorID:         in.ActorID,
			Terms:            terms,
			Status:           domain.StatusProposed,
			ExpiryDate:       now.Add(domain.ExpiryWindow),
			Metadata:         meta,
			CreatedAt:        now,
		}
		// ux_proposals_chain_version catches a racing negotiation that slipped past the CAS
		if err := r.Proposals.Create(ctx, next); err != nil {
			return err
		}
		dto = toDTO(next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (u *Usecase) Resolve(ctx context.Context, in ResolveInput) (*ResolveDTO, error) {
	if !in.Status.IsTerminal() {
		return nil, apperr.Validationf("status %q is not one of ACCEPTED, REJECTED, EXPIRED", in.Status)
	}
	m, err := u.member(ctx, in.ActorID, in.ProposalID)
	if err != nil {
		return nil, err
	}

	var out ResolveDTO
	err = u.uow.WithinChainTx(ctx, m.ParentProposalID, func(r uow.Repos, latest *domain.Proposal) error {
		if latest.Status.IsTerminal() {
			if latest.Status != in.Status {
				return apperr.Conflictf("proposal chain %s is already %s", latest.ParentProposalID, latest.Status)
			}
			// repeated resolution with the same outcome is a no-op
			out.Proposal = toDTO(latest)
			if latest.Status == domain.StatusAccepted {
				c, err := r.Credits.GetByChainID(ctx, latest.ParentProposalID)
				if err != nil {
					return err
				}
				out.CreditID = c.CreditID
			}
			return nil
		}
		if latest.ProposalID != m.ProposalID {
			return apperr.Conflictf("proposal %s was superseded by version %d", m.ProposalID, latest.VersionNumber)
		}
		if in.Status == domain.StatusAccepted {
			if latest.AuthorID == in.ActorID {
				return apperr.Conflictf("the author of version %d cannot accept it", latest.VersionNumber)
			}
			if latest.Expired(u.clock.Now()) {
				return apperr.Conflictf("proposal %s expired at %s", latest.ProposalID, latest.ExpiryDate.Format("2006-01-02 15:04"))
			}
		}

		c, err := u.engine.Finalize(ctx, r, latest, in.Status)
		if err != nil {
			return err
		}
		out.Proposal = toDTO(latest)
		if c != nil {
			out.CreditID = c.CreditID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *Usecase) Get(ctx context.Context, actorID, proposalID string) (*ProposalDTO, error) {
	p, err := u.member(ctx, actorID, proposalID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(p)
	return &dto, nil
}

// History returns every version of the chain containing proposalID, oldest first.
func (u *Usecase) History(ctx context.Context, actorID, proposalID string) ([]ProposalDTO, error) {
	p, err := u.member(ctx, actorID, proposalID)
	if err != nil {
		return nil, err
	}
	chain, err := u.repo.ListChain(ctx, p.ParentProposalID)
	if err != nil {
		return nil, err
	}
	return toDTOs(chain), nil
}

func (u *Usecase) List(ctx context.Context, f domain.Filter) ([]ProposalDTO, error) {
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, apperr.Validationf("kind %q is not one of OFFER, REQUEST", f.Kind)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validationf("unknown status %q", f.Status)
	}
	if f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		return nil, apperr.Validationf("min_amount exceeds max_amount")
	}
	if f.MinRate != nil && f.MaxRate != nil && *f.MinRate > *f.MaxRate {
		return nil, apperr.Validationf("min_rate exceeds max_rate")
	}
	ps, err := u.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return toDTOs(ps), nil
}

// ReconcileHandle hands every proposal waiting on rawHandle to the account that just registered it.
func (u *Usecase) ReconcileHandle(ctx context.Context, rawHandle, accountID string) (int64, error) {
	if accountID == "" {
		return 0, apperr.Validationf("account id is required")
	}
	handle, err := party.NormalizeHandle(rawHandle, u.dialCode)
	if err != nil {
		return 0, err
	}
	var n int64
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		n, err = r.Proposals.ReassignHandle(ctx, handle, accountID)
		return err
	})
	if err != nil {
		return 0, err
	}
	u.log.InfoContext(ctx, "pending handle reconciled", "handle", handle, "account_id", accountID, "proposals", n)
	return n, nil
}

// ExpireStale closes every open chain whose latest version is past its expiry date.
// Chains that move concurrently are skipped, not failed.
func (u *Usecase) ExpireStale(ctx context.Context) (*ExpireReport, error) {
	rep := &ExpireReport{}
	tried := map[string]bool{}
	for {
		stale, err := u.repo.ListStale(ctx, u.clock.Now(), staleBatch)
		if err != nil {
			return rep, err
		}
		expired := 0
		for _, p := range stale {
			if tried[p.ParentProposalID] {
				continue
			}
			tried[p.ParentProposalID] = true
			if _, err := u.engine.Activate(ctx, p.ParentProposalID, domain.StatusExpired); err != nil {
				u.log.WarnContext(ctx, "expire skipped", "chain_id", p.ParentProposalID, "err", err)
				rep.Skipped++
				continue
			}
			expired++
		}
		rep.Expired += expired
		if len(stale) < staleBatch || expired == 0 {
			break
		}
	}
	u.log.InfoContext(ctx, "stale proposals expired", "expired", rep.Expired, "skipped", rep.Skipped)
	return rep, nil
}
