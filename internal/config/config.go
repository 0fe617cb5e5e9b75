// Package config loads service configuration from an optional YAML file,
// a .env file and ESPALIER_* environment variables, in that order of
// increasing precedence.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration of the espalier service and CLI.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Provider ProviderConfig `yaml:"provider"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Cache    CacheConfig    `yaml:"cache"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RedisConfig selects the session store and artifact cache backend. With
// Addr empty everything stays in process memory.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// SessionTTL is how long stored sessions live. Zero keeps them
	// forever.
	SessionTTL time.Duration `yaml:"session_ttl"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// ProviderConfig selects the model backend. With APIKey and BaseURL both
// empty no provider is configured and the rule-based paths serve every
// session.
type ProviderConfig struct {
	// BaseURL points at an OpenAI-compatible chat completions API. Leave
	// empty for the OpenAI default, set to e.g. http://localhost:11434/v1
	// for Ollama.
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

func (p ProviderConfig) Enabled() bool { return p.APIKey != "" || p.BaseURL != "" }

type PipelineConfig struct {
	StepTimeout        time.Duration `yaml:"step_timeout"`
	ProblemCount       int           `yaml:"problem_count"`
	DisableFallback    bool          `yaml:"disable_fallback"`
	RetrieverEnabled   bool          `yaml:"retriever_enabled"`
	RetrieverUserAgent string        `yaml:"retriever_user_agent"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// SecurityConfig controls how session state is treated on its way to the
// store. Keys are hex-encoded 32-byte AES keys.
type SecurityConfig struct {
	// EncryptionKey, when set, seals session state before it reaches the
	// store backend.
	EncryptionKey string `yaml:"encryption_key"`
	// FallbackKeys are previous keys still accepted when opening stored
	// sessions, enabling key rotation.
	FallbackKeys []string `yaml:"fallback_keys"`
	// RedactIdentity masks the student's name and ID before persisting.
	RedactIdentity bool `yaml:"redact_identity"`
}

func (s SecurityConfig) EncryptionEnabled() bool { return s.EncryptionKey != "" }

// ActiveKey returns the decoded encryption key.
func (s SecurityConfig) ActiveKey() ([]byte, error) {
	return decodeKey(s.EncryptionKey)
}

// DecodedFallbackKeys returns the decoded rotation keys.
func (s SecurityConfig) DecodedFallbackKeys() ([][]byte, error) {
	keys := make([][]byte, 0, len(s.FallbackKeys))
	for _, k := range s.FallbackKeys {
		decoded, err := decodeKey(k)
		if err != nil {
			return nil, err
		}
		keys = append(keys, decoded)
	}
	return keys, nil
}

func decodeKey(k string) ([]byte, error) {
	key, err := hex.DecodeString(k)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// SlogLevel maps the configured level name onto slog's levels. Validate
// guarantees the name is one of the known four.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Provider: ProviderConfig{
			Model: "gpt-4o-mini",
		},
		Redis: RedisConfig{
			SessionTTL: 2 * time.Hour,
		},
		Pipeline: PipelineConfig{
			StepTimeout:      30 * time.Second,
			ProblemCount:     5,
			RetrieverEnabled: true,
		},
		Cache: CacheConfig{
			TTL: time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load assembles the configuration. path may be empty; a missing file at an
// explicitly given path is an error, otherwise the file layer is skipped.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// .env is a developer convenience, absence is fine.
	_ = godotenv.Load()

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "ESPALIER_ADDR")
	setString(&c.Redis.Addr, "ESPALIER_REDIS_ADDR")
	setString(&c.Redis.Password, "ESPALIER_REDIS_PASSWORD")
	setInt(&c.Redis.DB, "ESPALIER_REDIS_DB")
	setDuration(&c.Redis.SessionTTL, "ESPALIER_SESSION_TTL")
	setString(&c.Provider.BaseURL, "ESPALIER_PROVIDER_BASE_URL")
	setString(&c.Provider.APIKey, "ESPALIER_PROVIDER_API_KEY")
	setString(&c.Provider.Model, "ESPALIER_PROVIDER_MODEL")
	setDuration(&c.Pipeline.StepTimeout, "ESPALIER_STEP_TIMEOUT")
	setInt(&c.Pipeline.ProblemCount, "ESPALIER_PROBLEM_COUNT")
	setBool(&c.Pipeline.DisableFallback, "ESPALIER_DISABLE_FALLBACK")
	setBool(&c.Pipeline.RetrieverEnabled, "ESPALIER_RETRIEVER_ENABLED")
	setDuration(&c.Cache.TTL, "ESPALIER_CACHE_TTL")
	setString(&c.Security.EncryptionKey, "ESPALIER_ENCRYPTION_KEY")
	if v, ok := os.LookupEnv("ESPALIER_ENCRYPTION_FALLBACK_KEYS"); ok {
		c.Security.FallbackKeys = strings.Split(v, ",")
	}
	setBool(&c.Security.RedactIdentity, "ESPALIER_REDACT_IDENTITY")
	setString(&c.Log.Level, "ESPALIER_LOG_LEVEL")
	setBool(&c.Log.JSON, "ESPALIER_LOG_JSON")
}

// Validate rejects values the service cannot start with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Pipeline.ProblemCount <= 0 {
		return fmt.Errorf("pipeline.problem_count must be positive, got %d", c.Pipeline.ProblemCount)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.Redis.SessionTTL < 0 {
		return fmt.Errorf("redis.session_ttl must not be negative, got %s", c.Redis.SessionTTL)
	}
	if c.Security.EncryptionEnabled() {
		if _, err := c.Security.ActiveKey(); err != nil {
			return fmt.Errorf("security.encryption_key: %w", err)
		}
		if _, err := c.Security.DecodedFallbackKeys(); err != nil {
			return fmt.Errorf("security.fallback_keys: %w", err)
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
