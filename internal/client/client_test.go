package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codearh/internal/config"
	"codearh/internal/ratelimit"
)

func TestResolveBackend(t *testing.T) {
	tests := []struct {
		model string
		want  Backend
	}{
		{"claude-sonnet-4-20250514", BackendClaude},
		{"gemini-1.5-flash", BackendGemini},
		{"llama-3.1-8b-instant", BackendGroq},
		{"mixtral-8x7b-32768", BackendGroq},
		{"gemma2-9b-it", BackendGroq},
		{"openai/gpt-oss-20b", BackendGroq},
		{"ollama/llama3.2", BackendOllama},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, err := ResolveBackend(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ResolveBackend("gpt-4")
	assert.EqualError(t, err, "Unknown model: gpt-4")
	assert.Empty(t, ProviderForModel("gpt-4"))
	assert.Equal(t, "groq", ProviderForModel("openai/gpt-oss-120b"))
}

func TestCheckKey(t *testing.T) {
	err := CheckKey("gemini-1.5-flash", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingKey))
	assert.Equal(t, "Please set up API keys for gemini first", err.Error())

	assert.Equal(t, "Please set up API keys for claude first", CheckKey("claude-opus-4-20250514", "").Error())
	assert.NoError(t, CheckKey("ollama/qwen2.5-coder", ""))
	assert.NoError(t, CheckKey("gemini-1.5-flash", "k"))
}

func TestIsOverloaded(t *testing.T) {
	assert.True(t, IsOverloaded(&APIError{Vendor: "Gemini", StatusCode: 503, Body: "busy"}))
	assert.True(t, IsOverloaded(errors.New("status UNAVAILABLE")))
	assert.True(t, IsOverloaded(errors.New("model is overloaded")))
	assert.False(t, IsOverloaded(errors.New("Overloaded")))
	assert.False(t, IsOverloaded(&APIError{Vendor: "Claude", StatusCode: 401, Body: "bad key"}))
	assert.False(t, IsOverloaded(nil))
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Vendor: "Claude", StatusCode: 529, Body: `{"error":"overloaded"}`}
	assert.Equal(t, `Claude API error: 529 - {"error":"overloaded"}`, err.Error())
	assert.Equal(t, 529, StatusCode(err))
	assert.Equal(t, 0, StatusCode(errors.New("x")))
}

func TestAnthropicCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-sonnet-4-20250514", body["model"])
		assert.EqualValues(t, 4096, body["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"hi there"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(srv.URL, time.Second)
	got, err := c.Call(context.Background(), "hello", "key-1", "claude-sonnet-4-20250514")
	require.NoError(t, err)
	assert.Equal(t, "hi there", got)
}

func TestAnthropicErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	_, err := NewAnthropicClient(srv.URL, time.Second).Call(context.Background(), "p", "k", "claude-x")
	require.Error(t, err)
	assert.Equal(t, "Claude API error: 503 - overloaded", err.Error())
	assert.True(t, IsOverloaded(err))
}

func TestGroqCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gk", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"groq says hi"}}]}`))
	}))
	defer srv.Close()

	got, err := NewGroqClient(srv.URL, time.Second).Call(context.Background(), "p", "gk", "llama-3.1-8b-instant")
	require.NoError(t, err)
	assert.Equal(t, "groq says hi", got)
}

func TestGroqEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewGroqClient(srv.URL, time.Second).Call(context.Background(), "p", "gk", "llama3-8b-8192")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGroqError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("invalid key"))
	}))
	defer srv.Close()

	_, err := NewGroqClient(srv.URL, time.Second).Call(context.Background(), "p", "gk", "llama3-8b-8192")
	assert.EqualError(t, err, "Groq API error: 401 - invalid key")
}

func TestGeminiCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-1.5-flash:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"gemini says hi"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(GeminiConfig{BaseURL: srv.URL, HTTPTimeout: time.Second})
	got, err := c.Call(context.Background(), "hello", "gem-key", "gemini-1.5-flash")
	require.NoError(t, err)
	assert.Equal(t, "gemini says hi", got)
}

func TestOllamaCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3.2", body["model"])
		assert.Equal(t, false, body["stream"])

		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"model":"llama3.2","response":"local hi","done":true}` + "\n"))
	}))
	defer srv.Close()

	c, err := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, HTTPTimeout: time.Second})
	require.NoError(t, err)
	got, err := c.Call(context.Background(), "hello", "", "ollama/llama3.2")
	require.NoError(t, err)
	assert.Equal(t, "local hi", got)
}

func TestOllamaListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"},{"name":"qwen2.5-coder:7b"}]}`))
	}))
	defer srv.Close()

	c, err := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, HTTPTimeout: time.Second})
	require.NoError(t, err)
	names, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2:latest", "qwen2.5-coder:7b"}, names)
}

type fakeClient struct {
	calls int
	text  string
	err   error
}

func (f *fakeClient) Call(_ context.Context, _, _, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type recordingStatus struct {
	requests []Backend
	errors   []bool
}

func (r *recordingStatus) OnRequest(b Backend, _ string)             { r.requests = append(r.requests, b) }
func (r *recordingStatus) OnResponse(Backend, string, time.Duration) {}
func (r *recordingStatus) OnError(_ error, recoverable bool)         { r.errors = append(r.errors, recoverable) }

func TestRouterDispatch(t *testing.T) {
	gem := &fakeClient{text: "from gemini"}
	groq := &fakeClient{err: &APIError{Vendor: "Groq", StatusCode: 503, Body: "busy"}}
	r := NewRouterWith(map[Backend]Client{BackendGemini: gem, BackendGroq: groq})
	status := &recordingStatus{}
	r.SetStatusCallback(status)

	got, err := r.Call(context.Background(), "prompt text", "k", "gemini-1.5-flash")
	require.NoError(t, err)
	assert.Equal(t, "from gemini", got)

	_, err = r.Call(context.Background(), "p", "k", "llama3-8b-8192")
	assert.True(t, IsOverloaded(err))

	_, err = r.Call(context.Background(), "p", "", "gemini-1.5-flash")
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = r.Call(context.Background(), "p", "k", "claude-x")
	assert.EqualError(t, err, "no client configured for Claude")

	assert.Equal(t, 1, gem.calls)
	assert.Equal(t, 1, groq.calls)
	assert.Equal(t, []Backend{BackendGemini, BackendGroq}, status.requests)
	assert.Equal(t, []bool{true}, status.errors)

	sum := r.Costs().Summary()
	assert.Equal(t, 1, sum.Calls)
	assert.Equal(t, 1, sum.Models["gemini-1.5-flash"].Calls)
}

func TestRouterCallBackendIgnoresModelPrefix(t *testing.T) {
	local := &fakeClient{text: "from ollama"}
	r := NewRouterWith(map[Backend]Client{BackendOllama: local})

	got, err := r.CallBackend(context.Background(), BackendOllama, "p", "", "qwen2.5-coder")
	require.NoError(t, err)
	assert.Equal(t, "from ollama", got)

	_, err = r.CallBackend(context.Background(), BackendUnknown, "p", "k", "mystery")
	assert.EqualError(t, err, "Unknown model: mystery")
	assert.Equal(t, 1, local.calls)
}

func TestRouterRateLimit(t *testing.T) {
	gem := &fakeClient{text: "ok"}
	r := NewRouterWith(map[Backend]Client{BackendGemini: gem})
	r.SetLimiter(BackendGemini, ratelimit.New(config.RateLimitConfig{RequestsPerMinute: 1, BurstSize: 1}))

	_, err := r.Call(context.Background(), "p", "k", "gemini-1.5-flash")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Call(ctx, "p", "k", "gemini-1.5-flash")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, gem.calls)
}

func TestCostTracker(t *testing.T) {
	ct := NewCostTracker()

	u := ct.Record("claude-opus-4-20250514", strings.Repeat("a", 4000), strings.Repeat("b", 2000))
	assert.Equal(t, 1000, u.InputTokens)
	assert.Equal(t, 500, u.OutputTokens)
	assert.InDelta(t, 0.015+0.0375, u.Cost, 1e-9)

	free := ct.Record("ollama/llama3.2", "abc", "d")
	assert.Equal(t, 1, free.InputTokens)
	assert.Zero(t, free.Cost)

	sum := ct.Summary()
	assert.Equal(t, 2, sum.Calls)
	assert.InDelta(t, 0.0525, sum.Total, 1e-9)
	assert.Len(t, ct.History(), 2)

	ct.Reset()
	assert.Zero(t, ct.Summary().Total)
	assert.Empty(t, ct.History())
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}

func TestKnownModelsSorted(t *testing.T) {
	models := KnownModels()
	require.Len(t, models, 13)
	assert.Equal(t, "claude-opus-4-20250514", models[0])
}
