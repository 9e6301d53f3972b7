package eventbus

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFileBusPublish(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	bus := NewFileBus(path)

	err := bus.Publish(ctx, Event{
		Agent:   "testbot",
		Type:    TypeLearningApplied,
		Payload: map[string]any{"patterns_extracted": 2},
	})
	require.NoError(t, err)
	err = bus.Publish(ctx, Event{Agent: "testbot", Type: TypeAgentError, Severity: "error"})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)

	var first Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.True(t, strings.HasPrefix(first.ID, "evt_"))
	require.Equal(t, "testbot", first.Agent)
	require.Equal(t, TypeLearningApplied, first.Type)
	require.Equal(t, "info", first.Severity)
	require.EqualValues(t, 2, first.Payload["patterns_extracted"])

	_, err = time.Parse(time.RFC3339Nano, first.Ts)
	require.NoError(t, err)

	var second Event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.Equal(t, "error", second.Severity)
	require.NotEqual(t, first.ID, second.ID)
}

func TestFileBusPrune(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	bus := NewFileBus(path)

	old := Event{
		ID: "evt_old", Ts: time.Now().Add(-72 * time.Hour).Format(time.RFC3339Nano),
		Agent: "a", Type: "x", Severity: "info", Payload: map[string]any{},
	}
	line, err := json.Marshal(old)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(line, '\n'), 0o644))

	require.NoError(t, bus.Publish(context.Background(), Event{Agent: "a", Type: "y"}))

	bus.mu.Lock()
	require.NoError(t, bus.pruneLocked())
	bus.mu.Unlock()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)
	require.NotContains(t, content, "evt_old")
	require.Contains(t, content, `"type":"y"`)
}

func TestNopPublisher(t *testing.T) {
	require.NoError(t, Nop{}.Publish(context.Background(), Event{Type: "anything"}))
}
