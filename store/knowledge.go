package store

import "time"

// Knowledge is an agent-scoped fact with an optional time-to-live.
// At most one live row exists per (category, key) pair.
type Knowledge struct {
	ID       string
	Category string
	Key      string
	Value    string
	// Source is a provenance label for where the fact came from.
	Source string
	// TTLHours is 0 for facts that never expire.
	TTLHours  int
	CreatedAt time.Time
	// ExpiresAt is zero when TTLHours is 0.
	ExpiresAt time.Time
}

// UpsertKnowledge creates or overwrites the fact stored under (category, key).
type UpsertKnowledge struct {
	Category string
	Key      string
	Value    string
	Source   string
	TTLHours int
}

// FindKnowledge specifies the conditions for finding knowledge entries.
// Every read purges expired rows store-wide first; results are newest first.
type FindKnowledge struct {
	Category *string
	Key      *string
}
