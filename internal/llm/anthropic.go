package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const anthropicVersion = "2023-06-01"

// Anthropic talks to the Anthropic Messages API.
type Anthropic struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewAnthropic returns a provider for the Anthropic API. baseURL may be
// empty, in which case the public endpoint is used.
func NewAnthropic(apiKey, baseURL string, timeout time.Duration) *Anthropic {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return &Anthropic{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Models() []string {
	return []string{
		"claude-opus-4-5-20251101",
		"claude-haiku-4-5-20251001",
		"claude-sonnet-4-5-20250929",
	}
}

type anthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// SendMessage posts the conversation to /v1/messages and returns the
// concatenated text blocks of the reply.
func (a *Anthropic) SendMessage(ctx context.Context, messages []Message, model string, maxTokens int) (string, error) {
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}
	body, err := postJSON(ctx, a.client, a.Name(), a.baseURL+"/v1/messages", headers, anthropicRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  messages,
	})
	if err != nil {
		return "", err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	var parts []string
	for _, c := range resp.Content {
		if c.Type == "text" && c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("anthropic response contained no text blocks")
	}
	return strings.Join(parts, "\n"), nil
}
