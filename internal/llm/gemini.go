package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Gemini talks to the Google Generative Language API.
type Gemini struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGemini returns a provider for the Gemini API. baseURL may be empty,
// in which case the public endpoint is used.
func NewGemini(apiKey, baseURL string, timeout time.Duration) *Gemini {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &Gemini{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Models() []string {
	return []string{"gemini-2.5-pro", "gemini-2.5-flash"}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// SendMessage posts the conversation to generateContent. The API uses the
// role "model" where other vendors use "assistant".
func (g *Gemini) SendMessage(ctx context.Context, messages []Message, model string, maxTokens int) (string, error) {
	req := geminiRequest{}
	req.GenerationConfig.MaxOutputTokens = maxTokens
	for _, m := range messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		req.Contents = append(req.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(model), url.QueryEscape(g.apiKey))
	body, err := postJSON(ctx, g.client, g.Name(), endpoint, nil, req)
	if err != nil {
		return "", err
	}

	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	var parts []string
	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			if p.Text != "" {
				parts = append(parts, p.Text)
			}
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("gemini response contained no text")
	}
	return strings.Join(parts, "\n"), nil
}
