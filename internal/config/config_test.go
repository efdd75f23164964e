package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("CODEARH_DB", "")
	t.Setenv("CODEARH_MAX_ATTEMPTS", "")
	t.Setenv("CODEARH_BASE_DELAY", "")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxAttempts, cfg.Execution.MaxAttempts)
	assert.Equal(t, DefaultBaseDelay, cfg.Execution.BaseDelay)
	assert.Equal(t, "generator", cfg.Agents.FallbackAgent)
	assert.True(t, cfg.Context.ProjectEnabled)
	assert.Equal(t, DefaultDatabaseName, filepath.Base(cfg.Storage.Path))
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlData := `
api:
  gemini_key: file-key
agents:
  fallback_agent: tweaker
  overrides:
    debugger:
      enabled: false
      model: claude-sonnet-4-20250514
execution:
  base_delay: 250ms
storage:
  path: /tmp/x.db
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0600))

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CODEARH_DB", "")
	t.Setenv("CODEARH_BASE_DELAY", "")
	t.Setenv("GROQ_API_KEY", "groq-env")
	t.Setenv("OLLAMA_HOST", "127.0.0.1:11434")
	t.Setenv("CODEARH_MAX_ATTEMPTS", "5")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.API.KeyFor("gemini"))
	assert.Equal(t, "groq-env", cfg.API.KeyFor("groq"))
	assert.Equal(t, "http://127.0.0.1:11434", cfg.API.OllamaBaseURL)
	assert.Equal(t, "tweaker", cfg.Agents.FallbackAgent)
	assert.Equal(t, 250*time.Millisecond, cfg.Execution.BaseDelay)
	assert.Equal(t, 5, cfg.Execution.MaxAttempts)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.Path)

	override, ok := cfg.Agents.Overrides["debugger"]
	require.True(t, ok)
	require.NotNil(t, override.Enabled)
	assert.False(t, *override.Enabled)
	assert.Equal(t, "claude-sonnet-4-20250514", override.Model)
}

func TestLoadFromRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated"), 0600))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Execution.MaxAttempts = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidAttempts)

	cfg = DefaultConfig()
	cfg.Context.LongPromptThreshold = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidThreshold)
}

func TestSetProviderKey(t *testing.T) {
	var api APIConfig
	api.SetProviderKey("claude", "c")
	api.SetProviderKey("ollama", "o")
	api.SetProviderKey("unknown", "x")

	assert.Equal(t, "c", api.KeyFor("claude"))
	assert.Equal(t, "o", api.KeyFor("ollama"))
	assert.Empty(t, api.KeyFor("unknown"))
}

func TestSaveToRoundTrip(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("CODEARH_DB", "")
	t.Setenv("CODEARH_MAX_ATTEMPTS", "")
	t.Setenv("CODEARH_BASE_DELAY", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.GeminiKey = "saved-key"
	cfg.API.RateLimit.RequestsPerMinute = 30
	require.NoError(t, cfg.SaveTo(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "saved-key", loaded.API.GeminiKey)
	assert.Equal(t, 30, loaded.API.RateLimit.RequestsPerMinute)
}
