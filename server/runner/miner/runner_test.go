package miner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hindsightlabs/hindsight/internal/profile"
	"github.com/hindsightlabs/hindsight/server/memory"
	"github.com/hindsightlabs/hindsight/server/miner"
)

func newTestRunner(t *testing.T) (*Runner, *memory.Manager) {
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
	return NewRunner(miner.NewMiner(manager, nil), time.Hour), manager
}

func TestRunStopsOnContextCancel(t *testing.T) {
	r, _ := newTestRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after context cancellation")
	}
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	r, manager := newTestRunner(t)

	st, err := manager.Open(ctx, "hawk")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		id, err := st.RecordDecision(ctx, "ctxt", "decision", "", 0.5, []string{"ops"})
		require.NoError(t, err)
		_, err = st.RecordOutcome(ctx, id, "won", 1)
		require.NoError(t, err)
	}

	result, err := r.RunOnce(ctx, "hawk")
	require.NoError(t, err)
	require.False(t, result.Skipped)
	require.Greater(t, result.PatternsExtracted, 0)
}

func TestDefaultInterval(t *testing.T) {
	r := NewRunner(nil, 0)
	require.Equal(t, 6*time.Hour, r.interval)
}
