package store

import "time"

// Decision represents one choice an agent made, with outcome tracking.
type Decision struct {
	ID        string
	Timestamp time.Time
	Context   string
	Decision  string
	Reasoning string
	// Confidence the agent stated at decision time, clamped to [0, 1].
	Confidence float64
	// Outcome is empty until the decision is resolved.
	Outcome string
	// OutcomeScore is in [-1, 1]; 0 until resolved.
	OutcomeScore float64
	Resolved     bool
	Tags         []string
}

// FindDecision specifies the conditions for finding decisions.
// Results are always ordered newest first.
type FindDecision struct {
	ID *string
	// ResolvedOnly keeps only decisions that have a recorded outcome.
	ResolvedOnly bool
	// Query matches a raw case-sensitive substring against context or decision text.
	Query *string
	// Keywords match when the lower-cased context contains any of them.
	Keywords []string
	Limit    int
}

// UpdateDecisionOutcome resolves a decision with its ground-truth outcome.
type UpdateDecisionOutcome struct {
	ID      string
	Outcome string
	Score   float64
}
