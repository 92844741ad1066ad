package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicSendMessage(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Bonjour "},{"type":"text","text":"[NAME_1]"}]}`))
	}))
	defer srv.Close()

	p := NewAnthropic("sk-test", srv.URL, 5*time.Second)
	reply, err := p.SendMessage(context.Background(), []Message{{Role: "user", Content: "hi"}}, "claude-sonnet-4-5-20250929", 256)
	require.NoError(t, err)
	assert.Equal(t, "Bonjour \n[NAME_1]", reply)
	assert.Equal(t, "/v1/messages", gotPath)
	assert.Equal(t, "sk-test", gotKey)
	assert.Equal(t, anthropicVersion, gotVersion)
	assert.Equal(t, "claude-sonnet-4-5-20250929", gotReq.Model)
	assert.Equal(t, 256, gotReq.MaxTokens)
}

func TestAnthropicUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	p := NewAnthropic("sk-test", srv.URL, 5*time.Second)
	_, err := p.SendMessage(context.Background(), []Message{{Role: "user", Content: "hi"}}, "claude-sonnet-4-5-20250929", 256)
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusTooManyRequests, ue.Status)
	assert.Equal(t, "anthropic", ue.Provider)
}

func TestOpenAIChatCompletions(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"done"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAI("sk-oa", srv.URL, 5*time.Second)
	reply, err := p.SendMessage(context.Background(), []Message{{Role: "user", Content: "hi"}}, "gpt-4.1", 64)
	require.NoError(t, err)
	assert.Equal(t, "done", reply)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-oa", gotAuth)
	assert.Equal(t, 64, gotReq.MaxCompletionTokens)
}

func TestOpenAIResponsesEndpoint(t *testing.T) {
	var gotPath string
	var gotReq responsesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"output":[
			{"type":"reasoning","content":[{"type":"text","text":"thinking"}]},
			{"type":"message","content":[{"type":"output_text","text":"first"},{"type":"output_text","text":"second"}]}
		]}`))
	}))
	defer srv.Close()

	p := NewOpenAI("sk-oa", srv.URL, 5*time.Second)
	msgs := []Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "earlier answer"},
		{Role: "user", Content: "follow-up"},
	}
	reply, err := p.SendMessage(context.Background(), msgs, "gpt-5.2-pro", 64)
	require.NoError(t, err)
	assert.Equal(t, "/v1/responses", gotPath)
	assert.Equal(t, "first\nsecond", reply)
	assert.Equal(t, "question\n\nAssistant: earlier answer\n\nfollow-up", gotReq.Input)
}

func TestGeminiSendMessage(t *testing.T) {
	var gotPath, gotKey string
	var gotReq geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"salut"}]}}]}`))
	}))
	defer srv.Close()

	p := NewGemini("g-key", srv.URL, 5*time.Second)
	msgs := []Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}
	reply, err := p.SendMessage(context.Background(), msgs, "gemini-2.5-flash", 64)
	require.NoError(t, err)
	assert.Equal(t, "salut", reply)
	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "g-key", gotKey)
	require.Len(t, gotReq.Contents, 2)
	assert.Equal(t, "user", gotReq.Contents[0].Role)
	assert.Equal(t, "model", gotReq.Contents[1].Role)
}

func TestRegistryRouting(t *testing.T) {
	a := NewAnthropic("k", "", time.Second)
	o := NewOpenAI("k", "", time.Second)
	reg := NewRegistry(a, o)

	p, err := reg.For("gpt-4.1")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = reg.For("claude-opus-4-5-20251101")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	_, err = reg.For("unknown-model")
	assert.Error(t, err)
}

func TestCompleteBuildsPrompt(t *testing.T) {
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	}))
	defer srv.Close()

	reg := NewRegistry(NewAnthropic("k", srv.URL, 5*time.Second))
	req := NewRequest("Summarize.", "[NAME_1] est parti.", "claude-haiku-4-5-20251001", 128)
	req.History = []Message{{Role: "user", Content: "earlier"}, {Role: "assistant", Content: "reply"}}

	reply, err := Complete(context.Background(), reg, req)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.NotEmpty(t, req.ID)
	require.Len(t, gotReq.Messages, 3)
	assert.Equal(t, "assistant", gotReq.Messages[1].Role)
	assert.Equal(t, "Summarize.\n\nText:\n[NAME_1] est parti.", gotReq.Messages[2].Content)
}

func TestCompleteRequiresModel(t *testing.T) {
	reg := NewRegistry()
	_, err := Complete(context.Background(), reg, Request{ID: "x"})
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Claude Opus 4.5", DisplayName("claude-opus-4-5-20251101"))
	assert.Equal(t, "mystery-model", DisplayName("mystery-model"))
}
