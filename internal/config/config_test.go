package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.StepTimeout)
	assert.Equal(t, 5, cfg.Pipeline.ProblemCount)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Provider.Enabled())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "espalier.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9999"
redis:
  addr: "localhost:6379"
provider:
  base_url: "http://localhost:11434/v1"
  model: "llama3"
pipeline:
  step_timeout: 10s
  problem_count: 3
cache:
  ttl: 15m
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.Provider.Enabled())
	assert.Equal(t, "llama3", cfg.Provider.Model)
	assert.Equal(t, 10*time.Second, cfg.Pipeline.StepTimeout)
	assert.Equal(t, 3, cfg.Pipeline.ProblemCount)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	// Untouched fields keep their defaults.
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "espalier.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9999\"\n"), 0o644))

	t.Setenv("ESPALIER_ADDR", ":7777")
	t.Setenv("ESPALIER_PROBLEM_COUNT", "7")
	t.Setenv("ESPALIER_LOG_JSON", "true")
	t.Setenv("ESPALIER_STEP_TIMEOUT", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, 7, cfg.Pipeline.ProblemCount)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.StepTimeout)
}

func TestSecurity_Keys(t *testing.T) {
	key := strings.Repeat("ab", 32)
	fallback := strings.Repeat("cd", 32)

	t.Setenv("ESPALIER_ENCRYPTION_KEY", key)
	t.Setenv("ESPALIER_ENCRYPTION_FALLBACK_KEYS", fallback)

	cfg, err := Load("")
	require.NoError(t, err)
	require.True(t, cfg.Security.EncryptionEnabled())

	active, err := cfg.Security.ActiveKey()
	require.NoError(t, err)
	assert.Len(t, active, 32)

	fallbacks, err := cfg.Security.DecodedFallbackKeys()
	require.NoError(t, err)
	require.Len(t, fallbacks, 1)
	assert.Len(t, fallbacks[0], 32)
}

func TestSecurity_RejectsBadKeys(t *testing.T) {
	cfg := Default()
	cfg.Security.EncryptionKey = "not-hex"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Security.EncryptionKey = "abcd" // too short
	assert.Error(t, cfg.Validate())
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LogConfig{Level: "debug"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: "info"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, LogConfig{Level: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelError, LogConfig{Level: "error"}.SlogLevel())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.ProblemCount = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Log.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Cache.TTL = -time.Second
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}
