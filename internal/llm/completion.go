package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docmask/internal/config"
)

// Request describes one completion call over masked text.
type Request struct {
	ID           string    `json:"id"`
	Instructions string    `json:"instructions"`
	MaskedText   string    `json:"maskedText"`
	Model        string    `json:"model"`
	MaxTokens    int       `json:"maxTokens"`
	History      []Message `json:"history,omitempty"`
}

// NewRequest builds a Request with a fresh identifier.
func NewRequest(instructions, maskedText, model string, maxTokens int) Request {
	return Request{
		ID:           uuid.NewString(),
		Instructions: instructions,
		MaskedText:   maskedText,
		Model:        model,
		MaxTokens:    maxTokens,
	}
}

// prompt joins the instructions and the masked document into the user turn.
func (r Request) prompt() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(r.Instructions))
	b.WriteString("\n\nText:\n")
	b.WriteString(r.MaskedText)
	return b.String()
}

// Complete resolves the provider for the request model and sends the
// conversation: any prior history first, then the instructions and masked
// text as the final user turn.
func Complete(ctx context.Context, reg *Registry, req Request) (string, error) {
	if req.Model == "" {
		return "", fmt.Errorf("completion request %s has no model", req.ID)
	}
	p, err := reg.For(req.Model)
	if err != nil {
		return "", err
	}
	messages := append(append([]Message(nil), req.History...), Message{
		Role:    "user",
		Content: req.prompt(),
	})
	return p.SendMessage(ctx, messages, req.Model, req.MaxTokens)
}

// FromConfig builds a registry over every provider that has an API key
// configured. An empty registry is valid; completion calls then fail with
// an unknown-model error.
func FromConfig(cfg *config.Config) *Registry {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	var providers []Provider
	if cfg.AnthropicAPIKey != "" {
		providers = append(providers, NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, timeout))
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, timeout))
	}
	if cfg.GeminiAPIKey != "" {
		providers = append(providers, NewGemini(cfg.GeminiAPIKey, cfg.GeminiBaseURL, timeout))
	}
	return NewRegistry(providers...)
}
