package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from file, .env and environment variables.
func Load() (*Config, error) {
	return LoadFrom(getConfigPath())
}

// LoadFrom loads configuration using the given file path.
// A missing file is not an error.
func LoadFrom(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// A .env in the working directory is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)

	if cfg.Storage.Path == "" {
		if dir := DataDir(); dir != "" {
			cfg.Storage.Path = filepath.Join(dir, DefaultDatabaseName)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getConfigPath returns the path to the config file.
func getConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "codearh", "config.yaml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	if runtime.GOOS == "darwin" {
		appSupport := filepath.Join(homeDir, "Library", "Application Support", "codearh", "config.yaml")
		if _, err := os.Stat(appSupport); err == nil {
			return appSupport
		}
		dotConfig := filepath.Join(homeDir, ".config", "codearh", "config.yaml")
		if _, err := os.Stat(dotConfig); err == nil {
			return dotConfig
		}
		return appSupport
	}

	return filepath.Join(homeDir, ".config", "codearh", "config.yaml")
}

// GetConfigPath returns the path to the config file (exported for external use).
func GetConfigPath() string {
	return getConfigPath()
}

// DataDir returns the directory for the database and log file.
func DataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "codearh")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share", "codearh")
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Expand environment variables in the config file
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// loadFromEnv overrides settings from environment variables.
func loadFromEnv(cfg *Config) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.API.ClaudeKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.API.GeminiKey = key
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		cfg.API.GroqKey = key
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
			host = "http://" + host
		}
		cfg.API.OllamaBaseURL = host
	}
	if key := os.Getenv("OLLAMA_API_KEY"); key != "" {
		cfg.API.OllamaKey = key
	}

	if path := os.Getenv("CODEARH_DB"); path != "" {
		cfg.Storage.Path = path
	}
	if addr := os.Getenv("CODEARH_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if level := os.Getenv("CODEARH_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if n := getEnvInt("CODEARH_MAX_ATTEMPTS", 0); n > 0 {
		cfg.Execution.MaxAttempts = n
	}
	if d := os.Getenv("CODEARH_BASE_DELAY"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil {
			cfg.Execution.BaseDelay = parsed
		}
	}
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Execution.MaxAttempts < 1 {
		return ErrInvalidAttempts
	}
	if c.Execution.BaseDelay < 0 {
		return ErrInvalidDelay
	}
	if c.Context.LongPromptThreshold <= 0 {
		return ErrInvalidThreshold
	}
	return nil
}

// ConfigError is a configuration validation error.
type ConfigError string

func (e ConfigError) Error() string {
	return string(e)
}

const (
	ErrInvalidAttempts  ConfigError = "execution.max_attempts must be at least 1"
	ErrInvalidDelay     ConfigError = "execution.base_delay must not be negative"
	ErrInvalidThreshold ConfigError = "context.long_prompt_threshold must be positive"
)

// Save saves the configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(getConfigPath())
}

// SaveTo writes the configuration to configPath.
func (c *Config) SaveTo(configPath string) error {
	if configPath == "" {
		return fmt.Errorf("could not determine config path")
	}

	// 0700: the file may contain API keys
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		// Rename can fail across filesystems on Windows
		if err := os.WriteFile(configPath, data, 0600); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return nil
}
