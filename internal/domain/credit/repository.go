package credit

import "context"

type Repository interface {
	// Create inserts a new credit; a second credit for the same chain is an apperr.ErrConflict.
	Create(ctx context.Context, c *Credit) error
	GetByCreditID(ctx context.Context, creditID string) (*Credit, error)
	GetByChainID(ctx context.Context, chainID string) (*Credit, error)

	// ListByParty returns credits where partyID is lender or borrower; status may be empty.
	ListByParty(ctx context.Context, partyID string, status Status) ([]Credit, error)
	// ListIDsByStatus pages through credit ids in ascending order after the given cursor.
	ListIDsByStatus(ctx context.Context, status Status, afterID string, limit int) ([]string, error)

	// SaveSchedule writes due dates, status and recovery flag only if the stored
	// version still equals c.Version; on success c.Version is bumped.
	// A stale version yields apperr.ErrConflict.
	SaveSchedule(ctx context.Context, c *Credit) error
}
