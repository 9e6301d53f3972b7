package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that a store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Decision model related methods.
	CreateDecision(ctx context.Context, create *Decision) (*Decision, error)
	ListDecisions(ctx context.Context, find *FindDecision) ([]*Decision, error)
	// UpdateDecisionOutcome returns false when the id does not exist.
	UpdateDecisionOutcome(ctx context.Context, update *UpdateDecisionOutcome) (bool, error)

	// Pattern model related methods. UpsertPattern runs the find-or-reinforce
	// branch inside a single transaction.
	UpsertPattern(ctx context.Context, upsert *UpsertPattern) (*Pattern, error)
	ListActivePatterns(ctx context.Context, find *FindPattern) ([]*Pattern, error)
	DeactivatePattern(ctx context.Context, id string) (bool, error)

	// Knowledge model related methods. UpsertKnowledge runs upsert-by-(category,
	// key) inside a single transaction; ListKnowledge purges expired rows first.
	UpsertKnowledge(ctx context.Context, upsert *UpsertKnowledge) (*Knowledge, error)
	ListKnowledge(ctx context.Context, find *FindKnowledge) ([]*Knowledge, error)

	// Stats aggregates the three entity tables.
	Stats(ctx context.Context) (*AgentStats, error)
}
