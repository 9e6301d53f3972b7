// Package eventbus publishes daemon events onto a shared append-only JSONL
// log that other local processes can tail. Publishing is best-effort; the
// core never fails because the bus is unavailable.
package eventbus

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// Event types published by the daemon.
const (
	TypeLearningApplied = "learning_applied"
	TypeAgentError      = "agent_error"
)

// Event is one entry on the shared bus.
type Event struct {
	ID       string         `json:"id"`
	Ts       string         `json:"ts"`
	Agent    string         `json:"agent"`
	Type     string         `json:"type"`
	Severity string         `json:"severity"`
	Payload  map[string]any `json:"data"`
	Summary  string         `json:"summary,omitempty"`
}

// Publisher pushes events onto the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards every event. Used when no event log is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

const pruneMaxAge = 48 * time.Hour

// FileBus appends events to a JSONL file. Writes hold an in-process mutex
// and use O_APPEND so concurrent appenders never interleave lines.
type FileBus struct {
	path string

	mu        sync.Mutex
	published int
}

func NewFileBus(path string) *FileBus {
	return &FileBus{path: path}
}

func (b *FileBus) Publish(_ context.Context, event Event) error {
	if event.ID == "" {
		event.ID = "evt_" + shortuuid.New()
	}
	if event.Ts == "" {
		event.Ts = time.Now().Format(time.RFC3339Nano)
	}
	if event.Severity == "" {
		event.Severity = "info"
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}

	line, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to encode event")
	}
	line = append(line, '\n')

	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := os.OpenFile(b.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to open event log")
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "failed to append event")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "failed to close event log")
	}

	// Prune old entries occasionally, not on every write.
	b.published++
	if b.published%50 == 0 {
		if err := b.pruneLocked(); err != nil {
			return errors.Wrap(err, "failed to prune event log")
		}
	}
	return nil
}

// pruneLocked rewrites the log keeping only recent events. Lines that do not
// parse are kept.
func (b *FileBus) pruneLocked() error {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-pruneMaxAge)
	var kept []byte
	removed := 0
	for _, line := range splitLines(raw) {
		var event Event
		if err := json.Unmarshal(line, &event); err == nil {
			if ts, err := time.Parse(time.RFC3339Nano, event.Ts); err == nil && ts.Before(cutoff) {
				removed++
				continue
			}
		}
		kept = append(kept, line...)
		kept = append(kept, '\n')
	}
	if removed == 0 {
		return nil
	}
	return os.WriteFile(b.path, kept, 0o644)
}

func splitLines(raw []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, c := range raw {
		if c != '\n' {
			continue
		}
		if i > start {
			lines = append(lines, raw[start:i])
		}
		start = i + 1
	}
	if start < len(raw) {
		lines = append(lines, raw[start:])
	}
	return lines
}
