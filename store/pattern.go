package store

import "time"

// Pattern is a learned rule extracted from decision history.
//
// Patterns are reinforced rather than duplicated: adding a pattern whose
// (type, description) matches an existing active row sums its evidence and
// nudges confidence toward 0.99. Deactivated patterns are kept for audit but
// excluded from every active read path.
type Pattern struct {
	ID          string
	PatternType string
	Description string
	// EvidenceCount is the accumulated number of observations behind the rule.
	EvidenceCount int
	// Confidence is in [0, 1]; reinforcement caps it at 0.99.
	Confidence float64
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Tags       []string
}

// UpsertPattern creates a pattern or reinforces the matching active one.
type UpsertPattern struct {
	PatternType   string
	Description   string
	EvidenceCount int
	Confidence    float64
	Tags          []string
}

// FindPattern specifies the conditions for finding active patterns.
// Results are ordered by confidence, then evidence count, both descending.
type FindPattern struct {
	PatternType   *string
	MinConfidence float64
}
