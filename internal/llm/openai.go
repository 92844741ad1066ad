package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenAI talks to the OpenAI API. Most models use /v1/chat/completions;
// a few newer ones are only reachable through /v1/responses and are routed
// there with the conversation flattened to a single input string.
type OpenAI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewOpenAI returns a provider for the OpenAI API. baseURL may be empty,
// in which case the public endpoint is used.
func NewOpenAI(apiKey, baseURL string, timeout time.Duration) *OpenAI {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Models() []string {
	return []string{"gpt-5.2-pro", "gpt-5.2", "gpt-5-nano", "gpt-4.1"}
}

// responsesOnly lists models served exclusively by /v1/responses.
var responsesOnly = map[string]bool{
	"gpt-5.2-pro": true,
}

func (o *OpenAI) authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + o.apiKey}
}

func (o *OpenAI) SendMessage(ctx context.Context, messages []Message, model string, maxTokens int) (string, error) {
	if responsesOnly[model] {
		return o.sendResponses(ctx, messages, model)
	}
	return o.sendChat(ctx, messages, model, maxTokens)
}

type chatRequest struct {
	Model               string    `json:"model"`
	Messages            []Message `json:"messages"`
	MaxCompletionTokens int       `json:"max_completion_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) sendChat(ctx context.Context, messages []Message, model string, maxTokens int) (string, error) {
	body, err := postJSON(ctx, o.client, o.Name(), o.baseURL+"/v1/chat/completions", o.authHeader(), chatRequest{
		Model:               model,
		Messages:            messages,
		MaxCompletionTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai response contained no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type responsesRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type responsesReply struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// sendResponses flattens the conversation into one input string, labelling
// non-user turns, and extracts the output_text blocks of the reply.
func (o *OpenAI) sendResponses(ctx context.Context, messages []Message, model string) (string, error) {
	var parts []string
	for _, m := range messages {
		switch m.Role {
		case "assistant":
			parts = append(parts, "Assistant: "+m.Content)
		case "system":
			parts = append(parts, "System: "+m.Content)
		default:
			parts = append(parts, m.Content)
		}
	}

	body, err := postJSON(ctx, o.client, o.Name(), o.baseURL+"/v1/responses", o.authHeader(), responsesRequest{
		Model: model,
		Input: strings.Join(parts, "\n\n"),
	})
	if err != nil {
		return "", err
	}

	var resp responsesReply
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode openai responses reply: %w", err)
	}
	var texts []string
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, block := range item.Content {
			t := strings.TrimSpace(block.Text)
			if t != "" && (block.Type == "output_text" || block.Type == "") {
				texts = append(texts, t)
			}
		}
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("openai responses reply contained no text")
	}
	return strings.Join(texts, "\n"), nil
}
