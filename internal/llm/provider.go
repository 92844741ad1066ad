// Package llm sends masked text to hosted language models.
//
// Each provider wraps one vendor HTTP API behind the Provider interface.
// The Registry maps model identifiers to the provider that serves them, so
// callers pick a model and never touch provider selection logic.
package llm

import (
	"context"
	"fmt"
	"sort"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Provider sends conversations to one vendor API.
type Provider interface {
	// Name returns the provider identifier, e.g. "anthropic".
	Name() string

	// Models lists the model identifiers this provider serves, preferred first.
	Models() []string

	// SendMessage sends the conversation and returns the assistant reply text.
	SendMessage(ctx context.Context, messages []Message, model string, maxTokens int) (string, error)
}

// UpstreamError reports a non-2xx response from a provider API.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.Status, e.Body)
}

// Registry routes model identifiers to providers.
type Registry struct {
	byModel map[string]Provider
	order   []Provider
}

// NewRegistry builds a registry over the given providers. Later providers do
// not override earlier ones for models both claim.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{byModel: make(map[string]Provider)}
	for _, p := range providers {
		r.order = append(r.order, p)
		for _, m := range p.Models() {
			if _, taken := r.byModel[m]; !taken {
				r.byModel[m] = p
			}
		}
	}
	return r
}

// For returns the provider serving model.
func (r *Registry) For(model string) (Provider, error) {
	p, ok := r.byModel[model]
	if !ok {
		return nil, fmt.Errorf("no provider for model %q", model)
	}
	return p, nil
}

// Models returns every registered model identifier, grouped by provider
// registration order and sorted within each provider's list.
func (r *Registry) Models() []string {
	var all []string
	for _, p := range r.order {
		ms := append([]string(nil), p.Models()...)
		sort.Strings(ms)
		all = append(all, ms...)
	}
	return all
}

// DisplayName returns a human-readable label for a model identifier, or the
// identifier itself when no label is known.
func DisplayName(model string) string {
	if n, ok := displayNames[model]; ok {
		return n
	}
	return model
}

var displayNames = map[string]string{
	"claude-opus-4-5-20251101":   "Claude Opus 4.5",
	"claude-sonnet-4-5-20250929": "Claude Sonnet 4.5",
	"claude-haiku-4-5-20251001":  "Claude Haiku 4.5",
	"gpt-5.2":                    "GPT-5.2",
	"gpt-5-nano":                 "GPT-5 Nano",
	"gpt-4.1":                    "GPT-4.1",
	"gemini-2.5-pro":             "Gemini 2.5 Pro",
	"gemini-2.5-flash":           "Gemini 2.5 Flash",
}
