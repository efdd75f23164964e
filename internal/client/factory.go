package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codearh/internal/config"
	"codearh/internal/logging"
	"codearh/internal/ratelimit"
)

// ErrMissingKey is returned when a backend needs an API key and none is set.
var ErrMissingKey = errors.New("missing API key")

// KeyError reports a missing API key. Its message is shown to the user.
type KeyError struct {
	Model string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("Please set up API keys for %s first", KeyLabel(e.Model))
}

func (e *KeyError) Unwrap() error { return ErrMissingKey }

// Router dispatches calls to the backend that serves the model.
type Router struct {
	clients map[Backend]Client
	limits  map[Backend]*ratelimit.Limiter
	costs   *CostTracker
	status  StatusCallback
	now     func() time.Time
}

// NewRouter creates the backends described by cfg.
func NewRouter(cfg config.APIConfig) (*Router, error) {
	ollama, err := NewOllamaClient(OllamaConfig{
		BaseURL:     cfg.OllamaBaseURL,
		APIKey:      cfg.OllamaKey,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxOutputTokens,
		HTTPTimeout: cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, err
	}

	r := NewRouterWith(map[Backend]Client{
		BackendClaude: NewAnthropicClient(cfg.AnthropicBaseURL, cfg.HTTPTimeout),
		BackendGemini: NewGeminiClient(GeminiConfig{
			MaxOutputTokens: cfg.MaxOutputTokens,
			Temperature:     cfg.Temperature,
			HTTPTimeout:     cfg.HTTPTimeout,
		}),
		BackendGroq:   NewGroqClient(cfg.GroqBaseURL, cfg.HTTPTimeout),
		BackendOllama: ollama,
	})
	// local models are not throttled
	for _, b := range []Backend{BackendClaude, BackendGemini, BackendGroq} {
		r.SetLimiter(b, ratelimit.New(cfg.RateLimit))
	}
	return r, nil
}

// NewRouterWith creates a router over explicit backends.
func NewRouterWith(clients map[Backend]Client) *Router {
	return &Router{
		clients: clients,
		limits:  make(map[Backend]*ratelimit.Limiter),
		costs:   NewCostTracker(),
		status:  &DefaultStatusCallback{},
		now:     time.Now,
	}
}

// SetStatusCallback installs cb; nil restores the no-op callback.
func (r *Router) SetStatusCallback(cb StatusCallback) {
	if cb == nil {
		cb = &DefaultStatusCallback{}
	}
	r.status = cb
}

// SetLimiter throttles calls to b; nil removes the limit.
func (r *Router) SetLimiter(b Backend, l *ratelimit.Limiter) {
	r.limits[b] = l
}

// Costs returns the session cost tracker.
func (r *Router) Costs() *CostTracker { return r.costs }

// CheckKey reports a *KeyError when model's backend needs a key and apiKey
// is empty, and an error for unknown models.
func CheckKey(model, apiKey string) error {
	b, err := ResolveBackend(model)
	if err != nil {
		return err
	}
	return CheckBackendKey(b, model, apiKey)
}

// CheckBackendKey is CheckKey for a backend resolved in advance.
func CheckBackendKey(b Backend, model, apiKey string) error {
	if b == BackendUnknown {
		return fmt.Errorf("Unknown model: %s", model)
	}
	if apiKey == "" && b.RequiresKey() {
		return &KeyError{Model: model}
	}
	return nil
}

// Call resolves the backend for model and forwards the call.
func (r *Router) Call(ctx context.Context, prompt, apiKey, model string) (string, error) {
	b, err := ResolveBackend(model)
	if err != nil {
		return "", err
	}
	return r.CallBackend(ctx, b, prompt, apiKey, model)
}

// CallBackend forwards the call to b without looking at the model name.
func (r *Router) CallBackend(ctx context.Context, b Backend, prompt, apiKey, model string) (string, error) {
	if err := CheckBackendKey(b, model, apiKey); err != nil {
		return "", err
	}
	c, ok := r.clients[b]
	if !ok {
		return "", fmt.Errorf("no client configured for %s", b)
	}

	if err := r.limits[b].Wait(ctx, int64(EstimateTokens(prompt))); err != nil {
		return "", err
	}

	r.status.OnRequest(b, model)
	start := r.now()
	text, err := c.Call(ctx, prompt, apiKey, model)
	elapsed := r.now().Sub(start)
	if err != nil {
		recoverable := IsOverloaded(err)
		logging.Warn("model call failed", "backend", b.String(), "model", model, "elapsed", elapsed, "recoverable", recoverable, "error", err)
		r.status.OnError(err, recoverable)
		return "", err
	}

	usage := r.costs.Record(model, prompt, text)
	logging.Info("model call succeeded", "backend", b.String(), "model", model,
		"elapsed", elapsed, "input_tokens", usage.InputTokens, "output_tokens", usage.OutputTokens)
	r.status.OnResponse(b, model, elapsed)
	return text, nil
}
