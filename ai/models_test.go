package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailableModels(t *testing.T) {
	assert.Len(t, AvailableModels, 3)
	assert.Equal(t, DefaultModel, AvailableModels[0].ID)
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "Claude 3.5 Sonnet", ModelName("anthropic/claude-3.5-sonnet"))
	assert.Equal(t, "Gemini Flash 1.5", ModelName("google/gemini-1.5-flash"))
	assert.Equal(t, "GPT-4o Mini", ModelName("openai/gpt-4o-mini"))
	assert.Equal(t, "mistral/unlisted", ModelName("mistral/unlisted"))
}

func TestIsKnownModel(t *testing.T) {
	assert.True(t, IsKnownModel("openai/gpt-4o-mini"))
	assert.False(t, IsKnownModel("openai/gpt-5"))
	assert.False(t, IsKnownModel(""))
}

func TestMessageRoleString(t *testing.T) {
	assert.Equal(t, "system", RoleSystem.String())
	assert.Equal(t, "human", RoleHuman.String())
	assert.Equal(t, "assistant", RoleAssistant.String())
	assert.Equal(t, "unknown", MessageRole(0).String())
}
