package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

const (
	defaultModel       = "gemini-2.5-flash"
	defaultMaxTokens   = 4096
	defaultTemperature = 0.2
	defaultTopP        = 0.9
)

// contentGenerator is the slice of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type LLMOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
	System      string
	// GoogleSearch grounds answers in live search results. Used for the
	// fallback ingredient search.
	GoogleSearch bool
}

type LLMClient struct {
	models contentGenerator
	opts   LLMOptions
}

// NewClientFromAPIKey builds a Gemini API client.
func NewClientFromAPIKey(ctx context.Context, apiKey string, opts LLMOptions) (*LLMClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return NewLLMClient(client.Models, opts), nil
}

func NewLLMClient(models contentGenerator, opts LLMOptions) *LLMClient {
	if opts.ModelID == "" {
		opts.ModelID = defaultModel
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &LLMClient{models: models, opts: opts}
}

// Generate returns the text of the first candidate.
func (c *LLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "model", c.opts.ModelID, "prompt_len", len(prompt), "google_search", c.opts.GoogleSearch)

	resp, err := c.models.GenerateContent(ctx, c.opts.ModelID,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		c.config(),
	)
	if err != nil {
		slog.Error("LLM_CLIENT: Gemini invoke failed", "error", err)
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	switch reason := resp.Candidates[0].FinishReason; reason {
	case genai.FinishReasonMaxTokens:
		slog.Warn("LLM_CLIENT: Model hit MaxTokens limit; consider increasing MaxTokens")
		return "", fmt.Errorf("model hit MaxTokens limit")
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist:
		return "", fmt.Errorf("model response blocked: %s", reason)
	}

	text := resp.Text()
	attrs := []any{"text_len", len(text)}
	if resp.UsageMetadata != nil {
		attrs = append(attrs,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
		)
	}
	slog.Info("LLM_CLIENT: Gemini invoke succeeded", attrs...)
	return text, nil
}

func (c *LLMClient) config() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.opts.Temperature),
		TopP:            genai.Ptr(c.opts.TopP),
		MaxOutputTokens: c.opts.MaxTokens,
	}
	if c.opts.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(c.opts.System, genai.RoleUser)
	}
	if c.opts.GoogleSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}
