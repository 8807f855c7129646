package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"ingredientagent"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

// PostResult posts a short summary of an analysis result.
func (c *Client) PostResult(ctx context.Context, channel string, res ingredientagent.Result) error {
	return c.PostMessage(ctx, channel, FormatResult(res))
}

// FormatResult renders res as Slack mrkdwn.
func FormatResult(res ingredientagent.Result) string {
	var b strings.Builder
	if !res.Success {
		fmt.Fprintf(&b, "Analysis of %s failed: %s", res.ProductName, res.Error)
		return b.String()
	}
	fmt.Fprintf(&b, "*%s*: overall risk %s (average safety %d/10)", res.ProductName, strings.ToUpper(res.OverallRisk), res.AverageSafetyScore)
	if res.LowConfidence {
		b.WriteString(" [low confidence]")
	}
	for _, w := range res.AllergenWarnings {
		fmt.Fprintf(&b, "\n- %s", w)
	}
	if res.LowConfidence && res.Feedback != "" {
		fmt.Fprintf(&b, "\n_%s_", res.Feedback)
	}
	return b.String()
}
