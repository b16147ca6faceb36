package mysql

import (
	"context"
	"testing"
	"time"

	creditDomain "credit-ledger/internal/domain/credit"
	"credit-ledger/internal/domain/party"
	proposalDomain "credit-ledger/internal/domain/proposal"
	"credit-ledger/internal/testutil/sqlitedb"

	"gorm.io/gorm"
)

const (
	lenderID   = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	borrowerID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return sqlitedb.Open(t)
}

func bulletTerms(principal float64) proposalDomain.Terms {
	return proposalDomain.Terms{
		Principal:    principal,
		LoanTerm:     6,
		TimeUnit:     proposalDomain.UnitMonths,
		InterestRate: 12,
		PaymentType:  proposalDomain.PaymentBullet,
		EMIFrequency: proposalDomain.FrequencyNone,
	}
}

// makeOrigin returns version 1 of a fresh chain rooted at id.
func makeOrigin(id string, principal float64) *proposalDomain.Proposal {
	return &proposalDomain.Proposal{
		ProposalID:       id,
		ParentProposalID: id,
		VersionNumber:    1,
		IsLatest:         true,
		Kind:             proposalDomain.KindOffer,
		InitiatorID:      lenderID,
		Counterparty:     party.Resolved(borrowerID),
		AuthorID:         lenderID,
		Terms:            bulletTerms(principal),
		Status:           proposalDomain.StatusProposed,
		ExpiryDate:       baseTime.Add(proposalDomain.ExpiryWindow),
		Metadata:         proposalDomain.Metadata{"purpose": "inventory"},
	}
}

func seedProposal(t *testing.T, repo *ProposalRepository, p *proposalDomain.Proposal) *proposalDomain.Proposal {
	t.Helper()
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("seed proposal %s: %v", p.ProposalID, err)
	}
	return p
}

func makeCredit(creditID, chainID string, dates creditDomain.DueDates) *creditDomain.Credit {
	return &creditDomain.Credit{
		CreditID:    creditID,
		ChainID:     chainID,
		OfferID:     chainID,
		LenderID:    lenderID,
		BorrowerID:  borrowerID,
		Terms:       bulletTerms(1000),
		Status:      creditDomain.StatusActive,
		DueDates:    dates,
		FinalizedAt: baseTime,
	}
}
