package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsEmptyStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	stats, err := ts.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, "testbot", stats.Agent)
	assert.Zero(t, stats.TotalDecisions)
	assert.Zero(t, stats.ResolvedDecisions)
	assert.Zero(t, stats.ActivePatterns)
	assert.Zero(t, stats.TotalKnowledge)
	assert.Zero(t, stats.WinRate)
}

func TestStatsAggregates(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	// Three resolved decisions: two wins, one loss; one left open.
	outcomes := []struct {
		confidence float64
		score      float64
	}{
		{0.8, 0.9},
		{0.6, 0.4},
		{0.4, -0.5},
	}
	for _, o := range outcomes {
		id, err := ts.RecordDecision(ctx, "ctx", "choice", "", o.confidence, nil)
		require.NoError(t, err)
		_, err = ts.RecordOutcome(ctx, id, "done", o.score)
		require.NoError(t, err)
	}
	_, err := ts.RecordDecision(ctx, "open ctx", "open choice", "", 0.5, nil)
	require.NoError(t, err)

	_, err = ts.AddPattern(ctx, "trend", "fresh rule", 3, 0.7, nil)
	require.NoError(t, err)
	_, err = ts.SetKnowledge(ctx, "risk", "btc_vol", "high", "", 0)
	require.NoError(t, err)

	stats, err := ts.Stats(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 4, stats.TotalDecisions)
	assert.EqualValues(t, 3, stats.ResolvedDecisions)
	assert.EqualValues(t, 1, stats.UnresolvedDecisions)
	assert.EqualValues(t, 2, stats.WinCount)
	assert.EqualValues(t, 1, stats.LossCount)
	assert.InDelta(t, 66.7, stats.WinRate, 0.01)
	assert.InDelta(t, 0.6, stats.AvgConfidence, 0.001)
	assert.EqualValues(t, 1, stats.ActivePatterns)
	assert.EqualValues(t, 1, stats.TotalKnowledge)
	assert.EqualValues(t, 1, stats.RecentPatterns7d)
	assert.Greater(t, stats.DBSizeKB, 0.0)
}
