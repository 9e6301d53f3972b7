package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnvVars() {
	envVars := []string{
		"HINDSIGHT_AI_ENABLED",
		"HINDSIGHT_AI_BASE_URL",
		"HINDSIGHT_AI_API_KEY",
		"HINDSIGHT_AI_MODEL",
		"HINDSIGHT_TZ",
		"HINDSIGHT_EVENT_LOG",
	}
	for _, envVar := range envVars {
		os.Unsetenv(envVar)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnvVars()

	p := &Profile{}
	p.FromEnv()

	if p.AIEnabled {
		t.Errorf("AIEnabled: expected false by default")
	}
	if p.AIBaseURL != "https://api.openai.com/v1" {
		t.Errorf("AIBaseURL default: got %q", p.AIBaseURL)
	}
	if p.AIModel != "gpt-4o-mini" {
		t.Errorf("AIModel default: got %q", p.AIModel)
	}
	if p.AIMaxTokens != 500 {
		t.Errorf("AIMaxTokens default: got %d", p.AIMaxTokens)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnvVars()
	os.Setenv("HINDSIGHT_AI_ENABLED", "true")
	os.Setenv("HINDSIGHT_AI_API_KEY", "test-key-123")
	os.Setenv("HINDSIGHT_AI_MODEL", "gpt-4")
	os.Setenv("HINDSIGHT_TZ", "America/New_York")
	os.Setenv("HINDSIGHT_EVENT_LOG", "/tmp/events.jsonl")
	defer clearEnvVars()

	p := &Profile{}
	p.FromEnv()

	if !p.AIEnabled {
		t.Errorf("AIEnabled: expected true")
	}
	if p.AIAPIKey != "test-key-123" {
		t.Errorf("AIAPIKey: got %q", p.AIAPIKey)
	}
	if p.AIModel != "gpt-4" {
		t.Errorf("AIModel: got %q", p.AIModel)
	}
	if p.Timezone != "America/New_York" {
		t.Errorf("Timezone: got %q", p.Timezone)
	}
	if p.EventLog != "/tmp/events.jsonl" {
		t.Errorf("EventLog: got %q", p.EventLog)
	}
}

func TestIsAIEnabled(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		apiKey   string
		expected bool
	}{
		{"disabled without key", false, "", false},
		{"disabled with key", false, "key", false},
		{"enabled without key", true, "", false},
		{"enabled with key", true, "key", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{AIEnabled: tt.enabled, AIAPIKey: tt.apiKey}
			if got := p.IsAIEnabled(); got != tt.expected {
				t.Errorf("IsAIEnabled(): expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	p := &Profile{Data: t.TempDir()}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	if p.Mode != "dev" {
		t.Errorf("Mode: expected dev, got %q", p.Mode)
	}
	if p.Driver != "sqlite" {
		t.Errorf("Driver: expected sqlite, got %q", p.Driver)
	}
	if p.MineInterval != 6*time.Hour {
		t.Errorf("MineInterval: expected 6h, got %v", p.MineInterval)
	}
	if _, err := os.Stat(p.MemoryDir()); err != nil {
		t.Errorf("memory dir not created: %v", err)
	}
}

func TestValidateInvalidTimezone(t *testing.T) {
	p := &Profile{Data: t.TempDir(), Timezone: "Not/AZone"}
	if err := p.Validate(); err == nil {
		t.Errorf("Validate() should reject an invalid timezone")
	}
}

func TestLocation(t *testing.T) {
	p := &Profile{Timezone: "America/New_York"}
	if p.Location().String() != "America/New_York" {
		t.Errorf("Location: got %q", p.Location())
	}

	p = &Profile{}
	if p.Location() != time.Local {
		t.Errorf("empty timezone should fall back to time.Local")
	}

	p = &Profile{Timezone: "bogus"}
	if p.Location() != time.Local {
		t.Errorf("unparseable timezone should fall back to time.Local")
	}
}

func TestDSNForAgent(t *testing.T) {
	p := &Profile{Data: "/data"}

	got := p.DSNForAgent("Hawk")
	want := filepath.Join("/data", "memory", "hawk.db")
	if got != want {
		t.Errorf("DSNForAgent: expected %q, got %q", want, got)
	}

	if p.DSNForAgent("  garves  ") != filepath.Join("/data", "memory", "garves.db") {
		t.Errorf("DSNForAgent should trim whitespace")
	}
}
