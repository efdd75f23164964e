// Package client calls the LLM backends. Every backend takes a full prompt
// and returns the model's text; the backend is picked from the model name.
package client

import (
	"context"
	"fmt"
	"strings"
)

// Client is a single LLM backend.
type Client interface {
	Call(ctx context.Context, prompt, apiKey, model string) (string, error)
}

// Backend identifies an LLM vendor.
type Backend int

const (
	BackendUnknown Backend = iota
	BackendClaude
	BackendGemini
	BackendGroq
	BackendOllama
)

// OllamaPrefix marks models served by a local Ollama server.
const OllamaPrefix = "ollama/"

var groqPrefixes = []string{"llama", "mixtral", "gemma", "openai/"}

// ResolveBackend maps a model name to its backend.
func ResolveBackend(model string) (Backend, error) {
	switch {
	case strings.HasPrefix(model, OllamaPrefix):
		return BackendOllama, nil
	case strings.HasPrefix(model, "claude"):
		return BackendClaude, nil
	case strings.HasPrefix(model, "gemini"):
		return BackendGemini, nil
	}
	for _, p := range groqPrefixes {
		if strings.HasPrefix(model, p) {
			return BackendGroq, nil
		}
	}
	return BackendUnknown, fmt.Errorf("Unknown model: %s", model)
}

// String returns the vendor name used in error messages.
func (b Backend) String() string {
	switch b {
	case BackendClaude:
		return "Claude"
	case BackendGemini:
		return "Gemini"
	case BackendGroq:
		return "Groq"
	case BackendOllama:
		return "Ollama"
	}
	return "Unknown"
}

// Provider returns the key name the backend's API key is stored under.
func (b Backend) Provider() string {
	switch b {
	case BackendClaude:
		return "claude"
	case BackendGemini:
		return "gemini"
	case BackendGroq:
		return "groq"
	case BackendOllama:
		return "ollama"
	}
	return ""
}

// RequiresKey reports whether calls fail without an API key. A local
// Ollama server usually runs without one.
func (b Backend) RequiresKey() bool {
	return b != BackendOllama && b != BackendUnknown
}

// ProviderForModel returns the provider key name for model, or "".
func ProviderForModel(model string) string {
	b, err := ResolveBackend(model)
	if err != nil {
		return ""
	}
	return b.Provider()
}

// KeyLabel is the vendor label shown when a key is missing: the model
// name up to its first dash.
func KeyLabel(model string) string {
	label, _, _ := strings.Cut(model, "-")
	return label
}
