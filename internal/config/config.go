package config

import "time"

// Config represents the main application configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Agents    AgentsConfig    `yaml:"agents"`
	Context   ContextConfig   `yaml:"context"`
	Execution ExecutionConfig `yaml:"execution"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Watcher   WatcherConfig   `yaml:"watcher"`
	UI        UIConfig        `yaml:"ui"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Runtime version information
	Version string `yaml:"-"`
}

// APIConfig holds API keys and backend endpoints.
type APIConfig struct {
	ClaudeKey string `yaml:"claude_key,omitempty"`
	GeminiKey string `yaml:"gemini_key,omitempty"`
	GroqKey   string `yaml:"groq_key,omitempty"`
	OllamaKey string `yaml:"ollama_key,omitempty"` // Optional, for remote Ollama servers with auth

	// Ollama server URL (default: http://localhost:11434)
	OllamaBaseURL string `yaml:"ollama_base_url,omitempty"`

	// Endpoint overrides, mostly useful against proxies and in tests
	AnthropicBaseURL string `yaml:"anthropic_base_url,omitempty"`
	GroqBaseURL      string `yaml:"groq_base_url,omitempty"`

	MaxOutputTokens int32         `yaml:"max_output_tokens"` // Per-call output limit
	Temperature     float32       `yaml:"temperature"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig throttles calls per backend. Zero values disable a limit.
type RateLimitConfig struct {
	RequestsPerMinute int   `yaml:"requests_per_minute"`
	TokensPerMinute   int64 `yaml:"tokens_per_minute"`
	BurstSize         int   `yaml:"burst_size"`
}

// KeyFor returns the configured key for a provider name ("claude", "gemini", "groq", "ollama").
func (c *APIConfig) KeyFor(provider string) string {
	switch provider {
	case "claude":
		return c.ClaudeKey
	case "gemini":
		return c.GeminiKey
	case "groq":
		return c.GroqKey
	case "ollama":
		return c.OllamaKey
	}
	return ""
}

// SetProviderKey sets the API key for a specific provider.
func (c *APIConfig) SetProviderKey(provider, key string) {
	switch provider {
	case "claude":
		c.ClaudeKey = key
	case "gemini":
		c.GeminiKey = key
	case "groq":
		c.GroqKey = key
	case "ollama":
		c.OllamaKey = key
	}
}

// AgentsConfig holds agent system defaults.
type AgentsConfig struct {
	FallbackAgent string                  `yaml:"fallback_agent"` // Used when no agent scores above zero
	AutoDetection bool                    `yaml:"auto_detection"`
	Overrides     map[string]AgentOverride `yaml:"overrides"` // Keyed by agent id
}

// AgentOverride changes the startup state of a built-in agent.
type AgentOverride struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// ContextConfig controls what goes into the prompt context.
type ContextConfig struct {
	ProjectEnabled      bool     `yaml:"project_enabled"`       // Include every project file
	HistoryTurns        int      `yaml:"history_turns"`         // Chat turns sent with each request
	LongPromptThreshold int      `yaml:"long_prompt_threshold"` // Longer messages become attachments
	Exclude             []string `yaml:"exclude"`               // doublestar globs kept out of context and imports
}

// ExecutionConfig holds the retry loop settings.
type ExecutionConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Path string `yaml:"path"` // SQLite database file; empty keeps state in memory
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	AllowOrigins []string      `yaml:"allow_origins"` // Websocket origin patterns
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// WatcherConfig holds instruction directory watcher settings.
type WatcherConfig struct {
	Enabled         bool   `yaml:"enabled"`
	InstructionsDir string `yaml:"instructions_dir"` // Files here become general instructions
	DebounceMs      int    `yaml:"debounce_ms"`
}

// UIConfig holds UI-related settings.
type UIConfig struct {
	MarkdownRendering bool   `yaml:"markdown_rendering"`
	Theme             string `yaml:"theme"` // glamour style: dark, light, notty
	ShowCost          bool   `yaml:"show_cost"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			OllamaBaseURL:   DefaultOllamaBaseURL,
			MaxOutputTokens: DefaultMaxOutputTokens,
			Temperature:     DefaultTemperature,
			HTTPTimeout:     DefaultHTTPTimeout,
		},
		Agents: AgentsConfig{
			FallbackAgent: DefaultFallbackAgent,
			AutoDetection: true,
		},
		Context: ContextConfig{
			ProjectEnabled:      true,
			HistoryTurns:        DefaultHistoryTurns,
			LongPromptThreshold: DefaultLongPromptThreshold,
			Exclude: []string{
				"**/.git/**",
				"**/node_modules/**",
				"**/dist/**",
				"**/*.lock",
			},
		},
		Execution: ExecutionConfig{
			MaxAttempts: DefaultMaxAttempts,
			BaseDelay:   DefaultBaseDelay,
		},
		Storage: StorageConfig{
			Path: "", // filled from the data dir by Load
		},
		Server: ServerConfig{
			Addr:         DefaultServerAddr,
			WriteTimeout: DefaultWriteTimeout,
		},
		Watcher: WatcherConfig{
			Enabled:    false, // opt-in
			DebounceMs: DefaultDebounceMs,
		},
		UI: UIConfig{
			MarkdownRendering: true,
			Theme:             "dark",
			ShowCost:          false,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}
