package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type mockModels struct {
	response *genai.GenerateContentResponse
	err      error
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (m *mockModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.model, m.contents, m.config = model, contents, config
	return m.response, m.err
}

func candidate(reason genai.FinishReason, texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, len(texts))
	for i, t := range texts {
		parts[i] = &genai.Part{Text: t}
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: parts},
			FinishReason: reason,
		}},
	}
}

func TestLLMClient_Generate(t *testing.T) {
	tests := []struct {
		name        string
		response    *genai.GenerateContentResponse
		err         error
		expectText  string
		expectError string
	}{
		{
			name:       "text parts are concatenated",
			response:   candidate(genai.FinishReasonStop, "PURPOSE: Solvent\n", "SAFETY_RATING: 10"),
			expectText: "PURPOSE: Solvent\nSAFETY_RATING: 10",
		},
		{
			name:        "api error",
			err:         errors.New("quota exceeded"),
			expectError: "quota exceeded",
		},
		{
			name:        "no candidates",
			response:    &genai.GenerateContentResponse{},
			expectError: "no candidates",
		},
		{
			name:        "safety stop",
			response:    candidate(genai.FinishReasonSafety),
			expectError: "blocked",
		},
		{
			name:        "max tokens",
			response:    candidate(genai.FinishReasonMaxTokens, "| Ingredient |"),
			expectError: "MaxTokens",
		},
		{
			name: "blocked prompt",
			response: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			},
			expectError: "prompt blocked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewLLMClient(&mockModels{response: tt.response, err: tt.err}, LLMOptions{})

			text, err := client.Generate(context.Background(), "Glycerin")
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectText, text)
		})
	}
}

func TestLLMClient_Config(t *testing.T) {
	t.Run("defaults without grounding", func(t *testing.T) {
		models := &mockModels{response: candidate(genai.FinishReasonStop, "ok")}
		_, err := NewLLMClient(models, LLMOptions{}).Generate(context.Background(), "hi")
		require.NoError(t, err)

		assert.Equal(t, defaultModel, models.model)
		require.Len(t, models.contents, 1)
		assert.Equal(t, "user", models.contents[0].Role)
		assert.Equal(t, float32(defaultTemperature), *models.config.Temperature)
		assert.Equal(t, int32(defaultMaxTokens), models.config.MaxOutputTokens)
		assert.Empty(t, models.config.Tools)
		assert.Nil(t, models.config.SystemInstruction)
	})

	t.Run("google search grounding", func(t *testing.T) {
		models := &mockModels{response: candidate(genai.FinishReasonStop, "ok")}
		client := NewLLMClient(models, LLMOptions{ModelID: "gemini-2.5-pro", GoogleSearch: true, System: "Research ingredients."})
		_, err := client.Generate(context.Background(), "hi")
		require.NoError(t, err)

		assert.Equal(t, "gemini-2.5-pro", models.model)
		require.Len(t, models.config.Tools, 1)
		assert.NotNil(t, models.config.Tools[0].GoogleSearch)
		require.NotNil(t, models.config.SystemInstruction)
		assert.Equal(t, "Research ingredients.", models.config.SystemInstruction.Parts[0].Text)
	})
}

func TestNewClientFromAPIKey_RequiresKey(t *testing.T) {
	_, err := NewClientFromAPIKey(context.Background(), "", LLMOptions{})
	assert.Error(t, err)
}
