package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the hindsight daemon.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the stats API server
	Addr string
	// Port is the binding port for the stats API server
	Port int
	// Data is the data directory; each agent's store lives under {Data}/memory
	Data string
	// DSN points to one agent's store file. Set per agent by the memory
	// manager; leave empty in the daemon-wide profile.
	DSN string
	// Driver is the database driver. Only "sqlite" is supported.
	Driver string
	// Timezone is the IANA zone decisions are timestamped in (default: Local)
	Timezone string
	// Version is the current version of the daemon
	Version string

	// MineInterval is how often the background miner sweeps all agents.
	MineInterval time.Duration

	// EventLog is the path of the shared JSONL event bus file.
	// Empty disables event publishing.
	EventLog string

	// LLM collaborator configuration
	AIEnabled   bool   // HINDSIGHT_AI_ENABLED
	AIBaseURL   string // HINDSIGHT_AI_BASE_URL (default: https://api.openai.com/v1)
	AIAPIKey    string // HINDSIGHT_AI_API_KEY
	AIModel     string // HINDSIGHT_AI_MODEL (default: gpt-4o-mini)
	AIMaxTokens int    // HINDSIGHT_AI_MAX_TOKENS (default: 500)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the LLM collaborator is enabled and configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.AIAPIKey != ""
}

// MemoryDir returns the directory holding the per-agent store files.
func (p *Profile) MemoryDir() string {
	return filepath.Join(p.Data, "memory")
}

// Location resolves the configured time zone, falling back to time.Local.
func (p *Profile) Location() *time.Location {
	if p.Timezone == "" || strings.EqualFold(p.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from HINDSIGHT_* environment variables.
func (p *Profile) FromEnv() {
	p.AIEnabled = os.Getenv("HINDSIGHT_AI_ENABLED") == "true"
	p.AIBaseURL = getEnvOrDefault("HINDSIGHT_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIAPIKey = os.Getenv("HINDSIGHT_AI_API_KEY")
	p.AIModel = getEnvOrDefault("HINDSIGHT_AI_MODEL", "gpt-4o-mini")
	if p.AIMaxTokens == 0 {
		p.AIMaxTokens = 500
	}
	if tz := os.Getenv("HINDSIGHT_TZ"); tz != "" {
		p.Timezone = tz
	}
	if el := os.Getenv("HINDSIGHT_EVENT_LOG"); el != "" {
		p.EventLog = el
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Data == "" {
		p.Data = "."
	}
	if p.MineInterval <= 0 {
		p.MineInterval = 6 * time.Hour
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if err := os.MkdirAll(p.MemoryDir(), 0o755); err != nil {
		return errors.Wrapf(err, "unable to create memory folder %s", p.MemoryDir())
	}

	if p.Timezone != "" && !strings.EqualFold(p.Timezone, "local") {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return errors.Wrapf(err, "invalid timezone %q", p.Timezone)
		}
	}

	return nil
}

// DSNForAgent returns the store file path for an agent. Agent names are
// case-insensitive and normalized to lower case.
func (p *Profile) DSNForAgent(agent string) string {
	name := strings.ToLower(strings.TrimSpace(agent))
	return filepath.Join(p.MemoryDir(), fmt.Sprintf("%s.db", name))
}
