package store

import "github.com/pkg/errors"

// Error taxonomy for store operations. Absence of a record is never an error:
// UpdateDecisionOutcome and DeactivatePattern report it as a boolean result,
// since a missing id is an expected race in multi-writer use. Out-of-range
// confidence/score values are clamped and oversized text truncated silently.
var (
	// ErrUnavailable means the store could not be opened, created or migrated.
	// Fatal to the calling operation.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrBusy means a write could not acquire its lock within the busy
	// timeout. The caller may retry.
	ErrBusy = errors.New("storage busy")
)
