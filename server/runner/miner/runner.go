// Package miner runs the pattern miner on a schedule. It is the single
// in-process scheduler for mining; manual triggers from the API go through
// the same runner so two sweeps never overlap for one agent.
package miner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hindsightlabs/hindsight/server/miner"
)

type Runner struct {
	miner    *miner.Miner
	interval time.Duration

	// mu serializes scheduled sweeps with manual triggers.
	mu sync.Mutex
}

// NewRunner creates a mining runner. interval <= 0 falls back to 6 hours.
func NewRunner(m *miner.Miner, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Runner{
		miner:    m,
		interval: interval,
	}
}

// Run starts the background task. It mines once on startup, then on each
// tick, until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.mineAll(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mineAll(ctx)
		case <-ctx.Done():
			slog.Info("miner runner stopped")
			return
		}
	}
}

// RunOnce mines a single agent immediately (for manual trigger).
func (r *Runner) RunOnce(ctx context.Context, agent string) (*miner.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.miner.Agent(ctx, agent)
}

func (r *Runner) mineAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.miner.All(ctx); err != nil {
		slog.Error("scheduled mining sweep failed", "error", err)
	}
}
