package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"google.golang.org/genai"
)

// GeminiClient calls the Gemini API through the genai SDK. SDK clients are
// created per API key and reused.
type GeminiClient struct {
	baseURL    string
	httpClient *http.Client
	config     *genai.GenerateContentConfig

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// GeminiConfig holds generation settings for Gemini calls.
type GeminiConfig struct {
	BaseURL         string // empty uses the SDK default
	MaxOutputTokens int32
	Temperature     float32
	HTTPTimeout     time.Duration
}

// NewGeminiClient creates a client for gemini* models.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 8192
	}
	return &GeminiClient{
		baseURL:    cfg.BaseURL,
		httpClient: newHTTPClient(cfg.HTTPTimeout),
		config: &genai.GenerateContentConfig{
			Temperature:     Ptr(cfg.Temperature),
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
		clients: make(map[string]*genai.Client),
	}
}

func (c *GeminiClient) sdk(ctx context.Context, apiKey string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clients[apiKey]; ok {
		return cl, nil
	}
	cl, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:     genai.BackendGeminiAPI,
		APIKey:      apiKey,
		HTTPClient:  c.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.clients[apiKey] = cl
	return cl, nil
}

func (c *GeminiClient) Call(ctx context.Context, prompt, apiKey, model string) (string, error) {
	cl, err := c.sdk(ctx, apiKey)
	if err != nil {
		return "", err
	}
	resp, err := cl.Models.GenerateContent(ctx, model, genai.Text(prompt), c.config)
	if err != nil {
		return "", wrapGeminiError(err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// wrapGeminiError converts SDK errors into *APIError so every backend
// reports failures the same way.
func wrapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Vendor: BackendGemini.String(), StatusCode: apiErr.Code, Body: geminiBody(apiErr)}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &APIError{Vendor: BackendGemini.String(), StatusCode: apiErrPtr.Code, Body: geminiBody(*apiErrPtr)}
	}
	return fmt.Errorf("Gemini request failed: %w", err)
}

func geminiBody(e genai.APIError) string {
	if e.Status != "" {
		return e.Status + ": " + e.Message
	}
	return e.Message
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
