// Package llm picks the text generator behind each stage from configuration.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"ingredientagent"
	"ingredientagent/llm/bedrock"
	"ingredientagent/llm/gemini"
	"ingredientagent/llm/mock"
	"ingredientagent/llm/ollama"
)

// Generators holds one text generator per consumer. They may share a client.
type Generators struct {
	Analysis ingredientagent.TextGenerator
	Critic   ingredientagent.TextGenerator
	Search   ingredientagent.TextGenerator
}

// NewGenerators builds the generators for model.Provider. With a Google API
// key configured the fallback search uses search-grounded Gemini whatever
// the main provider is, except for the mock provider, which stays offline.
func NewGenerators(ctx context.Context, model ingredientagent.ModelConfig, agent ingredientagent.AgentConfig) (Generators, error) {
	var gen ingredientagent.TextGenerator
	switch model.Provider {
	case ingredientagent.ProviderBedrock:
		brc, err := newBedrockRuntimeClient(ctx)
		if err != nil {
			return Generators{}, fmt.Errorf("create bedrock client: %w", err)
		}
		gen = bedrock.NewLLMClient(brc, bedrock.LLMOptions{
			ModelID:     model.ModelID,
			MaxTokens:   model.MaxTokens,
			Temperature: model.Temperature,
			TopP:        model.TopP,
		})
	case ingredientagent.ProviderOllama:
		client, err := ollama.NewClient(ollama.ClientOpts{
			BaseEndpoint: agent.BaseOllamaEndpoint,
			ModelID:      model.ModelID,
			HTTPClient:   http.DefaultClient,
		})
		if err != nil {
			return Generators{}, fmt.Errorf("create ollama client: %w", err)
		}
		gen = client
	case ingredientagent.ProviderGemini:
		client, err := gemini.NewClientFromAPIKey(ctx, agent.GoogleAPIKey, geminiOptions(model, false))
		if err != nil {
			return Generators{}, err
		}
		gen = client
	case ingredientagent.ProviderMock:
		m := mock.NewLLMClient()
		return Generators{Analysis: m, Critic: m, Search: m}, nil
	default:
		return Generators{}, fmt.Errorf("unknown LLM provider %q", model.Provider)
	}

	gens := Generators{Analysis: gen, Critic: gen, Search: gen}
	if agent.GoogleAPIKey != "" {
		search, err := gemini.NewClientFromAPIKey(ctx, agent.GoogleAPIKey, geminiOptions(model, true))
		if err != nil {
			return Generators{}, err
		}
		gens.Search = search
		slog.Info("SETUP: Fallback search grounded with Google Search")
	}
	return gens, nil
}

func geminiOptions(model ingredientagent.ModelConfig, search bool) gemini.LLMOptions {
	opts := gemini.LLMOptions{
		MaxTokens:    model.MaxTokens,
		Temperature:  model.Temperature,
		TopP:         model.TopP,
		GoogleSearch: search,
	}
	// MODEL_ID names the main provider's model; the search client keeps the
	// Gemini default unless Gemini is the main provider.
	if model.Provider == ingredientagent.ProviderGemini {
		opts.ModelID = model.ModelID
	}
	return opts
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}
