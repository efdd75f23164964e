package config

import "time"

// Default configuration values.
const (
	DefaultModel         = "gemini-1.5-flash"
	DefaultFallbackAgent = "generator"

	// Model call settings
	DefaultOllamaBaseURL   = "http://localhost:11434"
	DefaultMaxOutputTokens = 8192
	DefaultTemperature     = 0.7
	DefaultHTTPTimeout     = 120 * time.Second

	// Execution loop
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second

	// Context assembly
	DefaultHistoryTurns        = 10
	DefaultLongPromptThreshold = 2000
	DefaultRequestHistorySize  = 50

	// Server
	DefaultServerAddr       = "127.0.0.1:8420"
	DefaultWriteTimeout     = 15 * time.Second
	DefaultGracefulShutdown = 10 * time.Second

	// Watcher
	DefaultDebounceMs = 300

	// Storage
	DefaultDatabaseName = "codearh.db"
)
