package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlabs/hindsight/store"
)

// Matches the layout the sqlite driver writes timestamps with.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func TestSetKnowledgeUpsert(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	first, err := ts.SetKnowledge(ctx, "risk", "btc_vol", "high", "feed", 0)
	require.NoError(t, err)

	second, err := ts.SetKnowledge(ctx, "risk", "btc_vol", "extreme", "feed", 0)
	require.NoError(t, err)
	assert.Equal(t, first, second, "upsert must keep the same id")

	entries, err := ts.Knowledge(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1, "exactly one live row per (category, key)")
	assert.Equal(t, "extreme", entries[0].Value)
}

func TestKnowledgeFilters(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.SetKnowledge(ctx, "risk", "btc_vol", "high", "", 0)
	require.NoError(t, err)
	_, err = ts.SetKnowledge(ctx, "risk", "eth_vol", "low", "", 0)
	require.NoError(t, err)
	_, err = ts.SetKnowledge(ctx, "market", "regime", "fear", "", 0)
	require.NoError(t, err)

	category := "risk"
	entries, err := ts.Knowledge(ctx, &store.FindKnowledge{Category: &category})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	key := "regime"
	entries, err = ts.Knowledge(ctx, &store.FindKnowledge{Key: &key})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fear", entries[0].Value)
}

func TestKnowledgeExpiry(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	id, err := ts.SetKnowledge(ctx, "risk", "btc_vol", "high", "", 1)
	require.NoError(t, err)

	entries, err := ts.Knowledge(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1, "fact must be visible before its ttl elapses")
	assert.False(t, entries[0].ExpiresAt.IsZero())

	// Backdate expires_at so "now" is already past it.
	past := time.Now().Add(-time.Minute).Format(sqliteTimeLayout)
	_, err = ts.GetDriver().GetDB().ExecContext(ctx,
		"UPDATE knowledge SET expires_at = ? WHERE id = ?", past, id)
	require.NoError(t, err)

	entries, err = ts.Knowledge(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, entries, "expired facts are purged on read with no explicit delete")

	// The purge is physical, not a hidden filter.
	var count int
	err = ts.GetDriver().GetDB().QueryRowContext(ctx, "SELECT COUNT(*) FROM knowledge").Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestKnowledgeZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.SetKnowledge(ctx, "facts", "exchange", "kalshi", "", 0)
	require.NoError(t, err)

	entries, err := ts.Knowledge(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].ExpiresAt.IsZero())
}
