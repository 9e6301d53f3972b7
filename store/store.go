package store

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/hindsightlabs/hindsight/internal/profile"
)

// Bounded field lengths, enforced at this boundary by truncation, never
// rejection.
const (
	maxTextLen        = 2000 // context, decision, reasoning, outcome
	maxPatternTypeLen = 100
	maxDescriptionLen = 1000
	maxCategoryLen    = 200
	maxKeyLen         = 200
	maxValueLen       = 5000
	maxSourceLen      = 100
)

// Reinforcement constants: each reinforcing add moves confidence toward the
// cap by a fixed increment, regardless of how much evidence arrived.
const (
	ReinforceIncrement = 0.05
	ConfidenceCap      = 0.99
)

// Store provides database access to one agent's learning memory.
type Store struct {
	agent   string
	profile *profile.Profile
	driver  Driver
	loc     *time.Location
}

// New creates a new instance of Store for the given agent.
func New(agent string, driver Driver, p *profile.Profile) *Store {
	return &Store{
		agent:   agent,
		profile: p,
		driver:  driver,
		loc:     p.Location(),
	}
}

func (s *Store) Agent() string {
	return s.agent
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// Now returns the current time in the agent's configured zone.
func (s *Store) Now() time.Time {
	return time.Now().In(s.loc)
}

// RecordDecision logs a decision the agent made. Returns the decision id.
func (s *Store) RecordDecision(ctx context.Context, contextText, decisionText, reasoning string, confidence float64, tags []string) (string, error) {
	d := &Decision{
		ID:         NewID("dec"),
		Timestamp:  s.Now(),
		Context:    truncate(contextText, maxTextLen),
		Decision:   truncate(decisionText, maxTextLen),
		Reasoning:  truncate(reasoning, maxTextLen),
		Confidence: clamp(confidence, 0.0, 1.0),
		Tags:       tags,
	}
	if _, err := s.driver.CreateDecision(ctx, d); err != nil {
		return "", err
	}
	return d.ID, nil
}

// RecordOutcome records the outcome of a past decision, marking it resolved.
// Returns false when the id does not exist.
func (s *Store) RecordOutcome(ctx context.Context, id, outcome string, score float64) (bool, error) {
	return s.driver.UpdateDecisionOutcome(ctx, &UpdateDecisionOutcome{
		ID:      id,
		Outcome: truncate(outcome, maxTextLen),
		Score:   clamp(score, -1.0, 1.0),
	})
}

// RecentDecisions returns recent decisions, newest first.
func (s *Store) RecentDecisions(ctx context.Context, limit int, resolvedOnly bool) ([]*Decision, error) {
	return s.driver.ListDecisions(ctx, &FindDecision{
		ResolvedOnly: resolvedOnly,
		Limit:        limit,
	})
}

// SearchDecisions matches a raw substring against context or decision text.
func (s *Store) SearchDecisions(ctx context.Context, query string, limit int) ([]*Decision, error) {
	return s.driver.ListDecisions(ctx, &FindDecision{
		Query: &query,
		Limit: limit,
	})
}

// ListDecisions exposes the raw find surface for callers that compose their
// own filters, such as the relevance retriever.
func (s *Store) ListDecisions(ctx context.Context, find *FindDecision) ([]*Decision, error) {
	return s.driver.ListDecisions(ctx, find)
}

// AddPattern stores a learned rule. When an active pattern with the same
// (type, description) already exists it is reinforced instead: evidence sums
// and confidence moves up by ReinforceIncrement, capped at ConfidenceCap.
// Returns the pattern id either way.
func (s *Store) AddPattern(ctx context.Context, patternType, description string, evidenceCount int, confidence float64, tags []string) (string, error) {
	if evidenceCount < 1 {
		evidenceCount = 1
	}
	p, err := s.driver.UpsertPattern(ctx, &UpsertPattern{
		PatternType:   truncate(patternType, maxPatternTypeLen),
		Description:   truncate(description, maxDescriptionLen),
		EvidenceCount: evidenceCount,
		Confidence:    clamp(confidence, 0.0, 1.0),
		Tags:          tags,
	})
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// ActivePatterns returns active learned patterns, best first.
func (s *Store) ActivePatterns(ctx context.Context, find *FindPattern) ([]*Pattern, error) {
	if find == nil {
		find = &FindPattern{}
	}
	return s.driver.ListActivePatterns(ctx, find)
}

// DeactivatePattern retires a pattern that turned out to be wrong.
// Returns false when the id does not exist.
func (s *Store) DeactivatePattern(ctx context.Context, id string) (bool, error) {
	return s.driver.DeactivatePattern(ctx, id)
}

// SetKnowledge stores an agent-specific fact, upserting by (category, key).
// A ttl of 0 hours means the fact never expires.
func (s *Store) SetKnowledge(ctx context.Context, category, key, value, source string, ttlHours int) (string, error) {
	k, err := s.driver.UpsertKnowledge(ctx, &UpsertKnowledge{
		Category: truncate(category, maxCategoryLen),
		Key:      truncate(key, maxKeyLen),
		Value:    truncate(value, maxValueLen),
		Source:   truncate(source, maxSourceLen),
		TTLHours: ttlHours,
	})
	if err != nil {
		return "", err
	}
	return k.ID, nil
}

// Knowledge returns knowledge entries, auto-purging expired ones first.
func (s *Store) Knowledge(ctx context.Context, find *FindKnowledge) ([]*Knowledge, error) {
	if find == nil {
		find = &FindKnowledge{}
	}
	return s.driver.ListKnowledge(ctx, find)
}

// Stats returns the aggregate health view of this store.
func (s *Store) Stats(ctx context.Context) (*AgentStats, error) {
	stats, err := s.driver.Stats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Agent = s.agent
	return stats, nil
}

// NewID builds an opaque id like "dec_4f3a9c01b2" from a random uuid.
func NewID(prefix string) string {
	u := uuid.New()
	return prefix + "_" + hex.EncodeToString(u[:])[:10]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
