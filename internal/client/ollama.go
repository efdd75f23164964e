package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codearh/internal/logging"

	"github.com/ollama/ollama/api"
)

const DefaultOllamaBaseURL = "http://localhost:11434"

// OllamaClient calls a local or remote Ollama server. Model names carry the
// "ollama/" prefix, which is stripped before the request.
type OllamaClient struct {
	client      *api.Client
	temperature float32
	maxTokens   int32
}

// OllamaConfig holds configuration for the Ollama client.
type OllamaConfig struct {
	BaseURL     string // Default: "http://localhost:11434"
	APIKey      string // Optional, for remote Ollama servers with auth
	Temperature float32
	MaxTokens   int32
	HTTPTimeout time.Duration
}

// authTransport adds the Authorization header to every request.
type authTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("Authorization", "Bearer "+t.apiKey)
	return t.base.RoundTrip(reqClone)
}

// NewOllamaClient creates an Ollama client.
func NewOllamaClient(cfg OllamaConfig) (*OllamaClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}

	if baseURL.Scheme == "http" {
		host := baseURL.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			logging.Warn("Ollama connection uses unencrypted HTTP to remote host", "host", host)
		}
	}

	httpClient := newHTTPClient(cfg.HTTPTimeout)
	if cfg.APIKey != "" {
		httpClient.Transport = &authTransport{base: http.DefaultTransport, apiKey: cfg.APIKey}
	}

	return &OllamaClient{
		client:      api.NewClient(baseURL, httpClient),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Call runs a non-streaming generate request. apiKey is unused; the server
// credentials come from the config.
func (c *OllamaClient) Call(ctx context.Context, prompt, _ string, model string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  strings.TrimPrefix(model, OllamaPrefix),
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": c.temperature,
		},
	}
	if c.maxTokens > 0 {
		req.Options["num_predict"] = c.maxTokens
	}

	var sb strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", wrapOllamaError(err)
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// Healthcheck verifies that the server answers.
func (c *OllamaClient) Healthcheck(ctx context.Context) error {
	if _, err := c.client.List(ctx); err != nil {
		return wrapOllamaError(err)
	}
	return nil
}

// ListModels returns the names of the models installed on the server.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, wrapOllamaError(err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func wrapOllamaError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return &APIError{Vendor: BackendOllama.String(), StatusCode: statusErr.StatusCode, Body: ollamaBody(statusErr)}
	}
	var statusErrPtr *api.StatusError
	if errors.As(err, &statusErrPtr) {
		return &APIError{Vendor: BackendOllama.String(), StatusCode: statusErrPtr.StatusCode, Body: ollamaBody(*statusErrPtr)}
	}
	return fmt.Errorf("Ollama request failed: %w", err)
}

func ollamaBody(e api.StatusError) string {
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	return e.Status
}
