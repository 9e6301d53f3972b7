package miner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hindsightlabs/hindsight/internal/profile"
	"github.com/hindsightlabs/hindsight/plugin/eventbus"
	"github.com/hindsightlabs/hindsight/server/memory"
)

func TestMinerAll(t *testing.T) {
	ctx := context.Background()
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		Data:   t.TempDir(),
	}
	require.NoError(t, p.Validate())

	manager := memory.NewManager(p)
	t.Cleanup(func() {
		_ = manager.Close()
	})

	hawk, err := manager.Open(ctx, "hawk")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		recordResolved(ctx, t, hawk, "ctxt", 0.5, 1, []string{"ops"})
	}

	sparse, err := manager.Open(ctx, "sparse")
	require.NoError(t, err)
	recordResolved(ctx, t, sparse, "ctxt", 0.5, 1, nil)

	eventLog := filepath.Join(t.TempDir(), "events.jsonl")
	m := NewMiner(manager, eventbus.NewFileBus(eventLog))

	results, err := m.All(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byAgent := map[string]*Result{}
	for _, r := range results {
		byAgent[r.Agent] = r
	}

	require.False(t, byAgent["hawk"].Skipped)
	require.Greater(t, byAgent["hawk"].PatternsExtracted, 0)
	require.True(t, byAgent["sparse"].Skipped)
	require.Equal(t, "insufficient_data", byAgent["sparse"].Reason)

	raw, err := os.ReadFile(eventLog)
	require.NoError(t, err)
	require.Contains(t, string(raw), eventbus.TypeLearningApplied)
	require.Contains(t, string(raw), `"agent":"hawk"`)
	require.NotContains(t, string(raw), `"agent":"sparse"`)
}

func TestMinerAllNoAgents(t *testing.T) {
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		Data:   t.TempDir(),
	}
	require.NoError(t, p.Validate())

	m := NewMiner(memory.NewManager(p), nil)
	results, err := m.All(context.Background())
	require.NoError(t, err)
	require.Empty(t, results)
}
