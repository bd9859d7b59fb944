// Package config loads docengine's runtime configuration from environment
// variables and an optional YAML file, grounded on evalgo-eve's
// config/config.go (prefix-scoped env loading, typed sub-configs,
// validation) but backed by github.com/spf13/viper instead of raw
// os.Getenv.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RepositoryConfig selects and configures the persistence backend (spec §6).
type RepositoryConfig struct {
	Driver   string // "memory", "mysql", "sqlite"
	DSN      string
	RedisURL string
	CacheTTL time.Duration
}

// AIConfig carries provider credentials for the optional ai package
// adapters. Load fills it; no code in this module builds an adapter from it.
type AIConfig struct {
	Provider       string // "anthropic", "openai", "google", ""
	AnthropicKey   string
	OpenAIKey      string
	GoogleKey      string
	RequestTimeout time.Duration
}

// EngineConfig carries workflow-engine-wide tunables.
type EngineConfig struct {
	DefaultSLA   time.Duration
	ClockTick    time.Duration
	LogLevel     string
	MetricsAddr  string
}

// Config is the complete docengine runtime configuration.
type Config struct {
	Repository RepositoryConfig
	AI         AIConfig
	Engine     EngineConfig
}

// Load reads configuration from environment variables prefixed DOCENGINE_
// (e.g. DOCENGINE_REPOSITORY_DRIVER) and, if path is non-empty, merges in
// a YAML file. Environment variables always take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("repository.driver", "memory")
	v.SetDefault("repository.cache_ttl", "5m")
	v.SetDefault("ai.request_timeout", "30s")
	v.SetDefault("engine.default_sla", "24h")
	v.SetDefault("engine.clock_tick", "1s")
	v.SetDefault("engine.log_level", "info")
	v.SetDefault("engine.metrics_addr", ":9090")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{
		Repository: RepositoryConfig{
			Driver:   v.GetString("repository.driver"),
			DSN:      v.GetString("repository.dsn"),
			RedisURL: v.GetString("repository.redis_url"),
			CacheTTL: v.GetDuration("repository.cache_ttl"),
		},
		AI: AIConfig{
			Provider:       v.GetString("ai.provider"),
			AnthropicKey:   v.GetString("ai.anthropic_key"),
			OpenAIKey:      v.GetString("ai.openai_key"),
			GoogleKey:      v.GetString("ai.google_key"),
			RequestTimeout: v.GetDuration("ai.request_timeout"),
		},
		Engine: EngineConfig{
			DefaultSLA:  v.GetDuration("engine.default_sla"),
			ClockTick:   v.GetDuration("engine.clock_tick"),
			LogLevel:    v.GetString("engine.log_level"),
			MetricsAddr: v.GetString("engine.metrics_addr"),
		},
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Repository.Driver {
	case "memory", "mysql", "sqlite":
	default:
		return fmt.Errorf("config: repository.driver must be one of memory|mysql|sqlite, got %q", c.Repository.Driver)
	}
	if c.Repository.Driver != "memory" && c.Repository.DSN == "" {
		return fmt.Errorf("config: repository.dsn is required for driver %q", c.Repository.Driver)
	}
	return nil
}
