package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlabs/hindsight/store"
)

func TestAddPatternReinforcement(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	first, err := ts.AddPattern(ctx, "trend", "X", 1, 0.5, nil)
	require.NoError(t, err)

	second, err := ts.AddPattern(ctx, "trend", "X", 1, 0.5, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second, "reinforcement must return the existing id")

	patterns, err := ts.ActivePatterns(ctx, nil)
	require.NoError(t, err)
	require.Len(t, patterns, 1, "reinforcement must not duplicate rows")
	assert.Equal(t, 2, patterns[0].EvidenceCount)
	assert.InDelta(t, 0.55, patterns[0].Confidence, 1e-9)
}

func TestAddPatternReinforcementCapsConfidence(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.AddPattern(ctx, "trend", "capped", 1, 0.97, nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := ts.AddPattern(ctx, "trend", "capped", 1, 0.97, nil)
		require.NoError(t, err)
	}

	patterns, err := ts.ActivePatterns(ctx, nil)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.InDelta(t, 0.99, patterns[0].Confidence, 1e-9)
	assert.Equal(t, 4, patterns[0].EvidenceCount)
}

func TestAddPatternDistinctDescriptions(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	a, err := ts.AddPattern(ctx, "trend", "X", 1, 0.5, nil)
	require.NoError(t, err)
	b, err := ts.AddPattern(ctx, "trend", "Y", 1, 0.5, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	patterns, err := ts.ActivePatterns(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, patterns, 2)
}

func TestActivePatternsOrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.AddPattern(ctx, "tag_performance", "strong", 12, 0.8, nil)
	require.NoError(t, err)
	_, err = ts.AddPattern(ctx, "tag_performance", "weak", 3, 0.45, nil)
	require.NoError(t, err)
	_, err = ts.AddPattern(ctx, "temporal", "evening edge", 20, 0.8, nil)
	require.NoError(t, err)

	patterns, err := ts.ActivePatterns(ctx, nil)
	require.NoError(t, err)
	require.Len(t, patterns, 3)
	// Ordered by confidence desc, ties broken toward more evidence.
	assert.Equal(t, "evening edge", patterns[0].Description)
	assert.Equal(t, "strong", patterns[1].Description)
	assert.Equal(t, "weak", patterns[2].Description)

	typ := "tag_performance"
	patterns, err = ts.ActivePatterns(ctx, &store.FindPattern{PatternType: &typ})
	require.NoError(t, err)
	assert.Len(t, patterns, 2)

	patterns, err = ts.ActivePatterns(ctx, &store.FindPattern{MinConfidence: 0.5})
	require.NoError(t, err)
	assert.Len(t, patterns, 2)
}

func TestDeactivatePattern(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	id, err := ts.AddPattern(ctx, "trend", "wrong rule", 2, 0.6, nil)
	require.NoError(t, err)

	found, err := ts.DeactivatePattern(ctx, id)
	require.NoError(t, err)
	assert.True(t, found)

	patterns, err := ts.ActivePatterns(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, patterns, "deactivated patterns are excluded from active reads")

	found, err = ts.DeactivatePattern(ctx, "pat_0000000000")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAddPatternAfterDeactivationInsertsFresh(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	id, err := ts.AddPattern(ctx, "trend", "X", 5, 0.7, nil)
	require.NoError(t, err)
	_, err = ts.DeactivatePattern(ctx, id)
	require.NoError(t, err)

	// The uniqueness constraint only covers active rows, so a retired rule
	// can be relearned from scratch.
	fresh, err := ts.AddPattern(ctx, "trend", "X", 1, 0.5, nil)
	require.NoError(t, err)
	assert.NotEqual(t, id, fresh)

	patterns, err := ts.ActivePatterns(ctx, nil)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, 1, patterns[0].EvidenceCount)
	assert.InDelta(t, 0.5, patterns[0].Confidence, 1e-9)
}
