package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlabs/hindsight/internal/profile"
)

func TestConfigFromProfile(t *testing.T) {
	p := &profile.Profile{
		AIBaseURL:   "https://llm.internal/v1",
		AIAPIKey:    "key-123",
		AIModel:     "gpt-4",
		AIMaxTokens: 1024,
	}
	cfg := ConfigFromProfile(p)
	assert.Equal(t, "https://llm.internal/v1", cfg.BaseURL)
	assert.Equal(t, "key-123", cfg.APIKey)
	assert.Equal(t, "gpt-4", cfg.Model)
	assert.Equal(t, 1024, cfg.MaxTokens)
}

func TestConfigFromProfileDefaults(t *testing.T) {
	cfg := ConfigFromProfile(&profile.Profile{})
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 500, cfg.MaxTokens)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestNewLLMServiceRequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(&Config{})
	require.Error(t, err)
}

func TestNewLLMService(t *testing.T) {
	svc, err := NewLLMService(&Config{APIKey: "key"})
	require.NoError(t, err)
	require.NotNil(t, svc)
}

func TestMessageHelpers(t *testing.T) {
	assert.Equal(t, Message{Role: "system", Content: "be careful"}, SystemPrompt("be careful"))
	assert.Equal(t, Message{Role: "user", Content: "what now"}, UserMessage("what now"))
}
