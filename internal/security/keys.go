// Package security masks and redacts provider API keys.
package security

import (
	"fmt"
	"strings"
)

// MaskKey shows the first and last four characters of a key.
func MaskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

var placeholderKeys = []string{
	"your-api-key",
	"your_api_key",
	"api_key",
	"sk-xxxx",
	"<insert-key>",
}

// ValidateKeyFormat rejects empty, short and placeholder keys.
func ValidateKeyFormat(key string) error {
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	if len(key) < 10 {
		return fmt.Errorf("API key too short (expected at least 10 characters, got %d)", len(key))
	}
	lower := strings.ToLower(key)
	for _, p := range placeholderKeys {
		if strings.Contains(lower, p) {
			return fmt.Errorf("API key appears to be a placeholder: %s", p)
		}
	}
	return nil
}
