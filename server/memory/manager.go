// Package memory manages the per-agent learning stores. Each agent owns one
// store file under {data}/memory, created on first use and cached for the
// process lifetime.
package memory

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/hindsightlabs/hindsight/internal/profile"
	"github.com/hindsightlabs/hindsight/store"
	"github.com/hindsightlabs/hindsight/store/db"
)

// Manager opens and caches one Store per agent name. Agent names are
// case-insensitive and normalized to lower case.
type Manager struct {
	profile *profile.Profile

	mu     sync.Mutex
	stores map[string]*store.Store
}

func NewManager(p *profile.Profile) *Manager {
	return &Manager{
		profile: p,
		stores:  make(map[string]*store.Store),
	}
}

// Open returns the store for the given agent, creating and migrating the
// underlying db file on first use.
func (m *Manager) Open(ctx context.Context, agent string) (*store.Store, error) {
	name := Normalize(agent)
	if name == "" {
		return nil, errors.New("agent name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.stores[name]; ok {
		return st, nil
	}

	agentProfile := *m.profile
	agentProfile.DSN = m.profile.DSNForAgent(name)

	driver, err := db.NewDBDriver(&agentProfile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open store for agent %q", name)
	}

	st := store.New(name, driver, &agentProfile)
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, errors.Wrapf(store.ErrUnavailable, "failed to migrate store for agent %q: %v", name, err)
	}

	m.stores[name] = st
	slog.Debug("agent store opened", "agent", name, "dsn", agentProfile.DSN)
	return st, nil
}

// ListAgents returns every agent that has a store file, sorted by name.
func (m *Manager) ListAgents() ([]string, error) {
	pattern := filepath.Join(m.profile.MemoryDir(), "*.db")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "failed to glob agent stores")
	}

	agents := make([]string, 0, len(matches))
	for _, match := range matches {
		base := filepath.Base(match)
		agents = append(agents, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	sort.Strings(agents)
	return agents, nil
}

// Close closes every cached store.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, st := range m.stores {
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "failed to close store for agent %q", name)
		}
		delete(m.stores, name)
	}
	return firstErr
}

// Normalize lower-cases and trims an agent name.
func Normalize(agent string) string {
	return strings.ToLower(strings.TrimSpace(agent))
}

// HasStore reports whether the agent already has a store file on disk,
// without creating one.
func (m *Manager) HasStore(agent string) bool {
	_, err := os.Stat(m.profile.DSNForAgent(Normalize(agent)))
	return err == nil
}
