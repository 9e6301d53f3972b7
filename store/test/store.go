package test

import (
	"context"
	"testing"

	"github.com/hindsightlabs/hindsight/internal/profile"
	"github.com/hindsightlabs/hindsight/store"
	"github.com/hindsightlabs/hindsight/store/db"
)

// NewTestingStore opens a fresh SQLite-backed store for the agent "testbot"
// under t.TempDir, migrated and ready to use.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	return NewTestingStoreForAgent(ctx, t, "testbot")
}

// NewTestingStoreForAgent opens a fresh store for the given agent name.
func NewTestingStoreForAgent(ctx context.Context, t *testing.T, agent string) *store.Store {
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		Data:   t.TempDir(),
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("failed to validate test profile: %v", err)
	}
	p.DSN = p.DSNForAgent(agent)

	driver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create test db driver: %v", err)
	}

	st := store.New(agent, driver, p)
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}
