package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingredientagent"
	"ingredientagent/llm/gemini"
	"ingredientagent/llm/mock"
	"ingredientagent/llm/ollama"
)

func TestNewGenerators(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		model    ingredientagent.ModelConfig
		agent    ingredientagent.AgentConfig
		wantErr  string
		assertFn func(t *testing.T, gens Generators)
	}{
		{
			name:  "mock provider stays offline even with a search key",
			model: ingredientagent.ModelConfig{Provider: ingredientagent.ProviderMock},
			agent: ingredientagent.AgentConfig{GoogleAPIKey: "key"},
			assertFn: func(t *testing.T, gens Generators) {
				assert.IsType(t, &mock.LLMClient{}, gens.Analysis)
				assert.IsType(t, &mock.LLMClient{}, gens.Critic)
				assert.IsType(t, &mock.LLMClient{}, gens.Search)
			},
		},
		{
			name:  "ollama shares one client",
			model: ingredientagent.ModelConfig{Provider: ingredientagent.ProviderOllama},
			agent: ingredientagent.AgentConfig{BaseOllamaEndpoint: "http://localhost:11434"},
			assertFn: func(t *testing.T, gens Generators) {
				assert.IsType(t, &ollama.Client{}, gens.Analysis)
				assert.Same(t, gens.Analysis, gens.Critic)
				assert.Same(t, gens.Analysis, gens.Search)
			},
		},
		{
			name:  "ollama with a search key searches through gemini",
			model: ingredientagent.ModelConfig{Provider: ingredientagent.ProviderOllama},
			agent: ingredientagent.AgentConfig{BaseOllamaEndpoint: "http://localhost:11434", GoogleAPIKey: "key"},
			assertFn: func(t *testing.T, gens Generators) {
				assert.IsType(t, &ollama.Client{}, gens.Analysis)
				assert.IsType(t, &gemini.LLMClient{}, gens.Search)
			},
		},
		{
			name:    "ollama without endpoint",
			model:   ingredientagent.ModelConfig{Provider: ingredientagent.ProviderOllama},
			wantErr: "ollama endpoint is required",
		},
		{
			name:    "gemini without key",
			model:   ingredientagent.ModelConfig{Provider: ingredientagent.ProviderGemini},
			wantErr: "API key is required",
		},
		{
			name:    "unknown provider",
			model:   ingredientagent.ModelConfig{Provider: "watson"},
			wantErr: `unknown LLM provider "watson"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gens, err := NewGenerators(ctx, tt.model, tt.agent)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.assertFn(t, gens)
		})
	}
}

func TestGeminiOptions(t *testing.T) {
	model := ingredientagent.ModelConfig{Provider: ingredientagent.ProviderBedrock, ModelID: "claude", MaxTokens: 100}

	opts := geminiOptions(model, true)
	assert.Empty(t, opts.ModelID, "a foreign model id is not passed to gemini")
	assert.True(t, opts.GoogleSearch)
	assert.Equal(t, int32(100), opts.MaxTokens)

	model.Provider = ingredientagent.ProviderGemini
	model.ModelID = "gemini-2.5-pro"
	assert.Equal(t, "gemini-2.5-pro", geminiOptions(model, false).ModelID)
}
