package client

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultGroqBaseURL = "https://api.groq.com"
	groqMaxTokens      = 4096
)

// GroqClient calls Groq's OpenAI-compatible chat completions endpoint.
type GroqClient struct {
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

// NewGroqClient creates a client for llama, mixtral, gemma and openai/ models.
func NewGroqClient(baseURL string, timeout time.Duration) *GroqClient {
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	return &GroqClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxTokens:  groqMaxTokens,
		httpClient: newHTTPClient(timeout),
	}
}

type groqRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *GroqClient) Call(ctx context.Context, prompt, apiKey, model string) (string, error) {
	req := groqRequest{
		Model:     model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.maxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + apiKey}

	var resp groqResponse
	if err := postJSON(ctx, c.httpClient, BackendGroq.String(), c.baseURL+"/openai/v1/chat/completions", headers, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
