package sqlite

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hindsightlabs/hindsight/store"
)

// timestampLayout is fixed-width RFC3339 with nanoseconds, so the text
// ordering of timestamps written in one zone matches their chronological
// ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.Format(timestampLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid timestamp %q", s)
	}
	return t, nil
}

// Tags are stored as a JSON array column.
func marshalTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	buf, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(buf)
}

func unmarshalTags(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}

// wrapWriteErr classifies lock-contention failures as store.ErrBusy so
// callers can retry; anything else is passed through wrapped.
func wrapWriteErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	s := err.Error()
	if strings.Contains(s, "SQLITE_BUSY") || strings.Contains(s, "database is locked") {
		return errors.Wrapf(store.ErrBusy, "%s: %v", msg, err)
	}
	return errors.Wrap(err, msg)
}
