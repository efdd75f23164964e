package client

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 4096
)

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

// NewAnthropicClient creates a client for claude-* models. An empty baseURL
// uses the public endpoint.
func NewAnthropicClient(baseURL string, timeout time.Duration) *AnthropicClient {
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	return &AnthropicClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxTokens:  anthropicMaxTokens,
		httpClient: newHTTPClient(timeout),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Call sends prompt as a single user message.
func (c *AnthropicClient) Call(ctx context.Context, prompt, apiKey, model string) (string, error) {
	req := anthropicRequest{
		Model:     model,
		MaxTokens: c.maxTokens,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := postJSON(ctx, c.httpClient, BackendClaude.String(), c.baseURL+"/v1/messages", headers, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Content[0].Text, nil
}
