package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"ingredientagent"
)

const defaultModel = "llama3.2"

type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
}

type Client struct {
	endpoint     string
	model        string
	systemPrompt string
	httpClient   ingredientagent.HTTPClient
	options      options
}

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	SystemPrompt string
	HTTPClient   ingredientagent.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.BaseEndpoint == "" {
		return nil, fmt.Errorf("ollama endpoint is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.ModelID == "" {
		opts.ModelID = defaultModel
	}

	return &Client{
		model:        opts.ModelID,
		systemPrompt: opts.SystemPrompt,
		httpClient:   opts.HTTPClient,
		endpoint:     strings.TrimSuffix(opts.BaseEndpoint, "/") + "/api/chat",
		options: options{
			Temperature:   0.2,
			TopP:          0.9,
			RepeatPenalty: 1.05,
			NumCtx:        16384, // long ingredient lists plus the table template need the room
		},
	}, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireResponse struct {
	Message wireMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options,omitempty"`
}

// Generate sends prompt as a single user message to the chat endpoint and
// returns the model's content verbatim.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "model", c.model, "prompt_len", len(prompt))

	msgs := make([]wireMessage, 0, 2)
	if c.systemPrompt != "" {
		msgs = append(msgs, wireMessage{Role: "system", Content: c.systemPrompt})
	}
	msgs = append(msgs, wireMessage{Role: "user", Content: prompt})

	reqBytes, err := json.Marshal(wireRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   false,
		Options:  c.options,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama chat: %s: %s", resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		slog.Warn("LLM_CLIENT: decode failed, returning raw", "err", err, "body_len", len(body))
		return string(body), nil
	}
	if wr.Error != "" {
		return "", fmt.Errorf("ollama chat: %s", wr.Error)
	}

	slog.Info("LLM_CLIENT: Ollama response received", "text_len", len(wr.Message.Content))
	return wr.Message.Content, nil
}
