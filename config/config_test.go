package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Repository.Driver != "memory" {
		t.Errorf("expected default driver memory, got %q", cfg.Repository.Driver)
	}
	if cfg.Engine.ClockTick != time.Second {
		t.Errorf("expected default clock tick 1s, got %s", cfg.Engine.ClockTick)
	}
	if cfg.Engine.DefaultSLA != 24*time.Hour {
		t.Errorf("expected default sla 24h, got %s", cfg.Engine.DefaultSLA)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DOCENGINE_REPOSITORY_DRIVER", "sqlite")
	t.Setenv("DOCENGINE_REPOSITORY_DSN", "file:test.db")
	t.Setenv("DOCENGINE_AI_PROVIDER", "anthropic")
	t.Setenv("DOCENGINE_AI_ANTHROPIC_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Repository.Driver != "sqlite" {
		t.Errorf("expected driver sqlite, got %q", cfg.Repository.Driver)
	}
	if cfg.Repository.DSN != "file:test.db" {
		t.Errorf("expected dsn file:test.db, got %q", cfg.Repository.DSN)
	}
	if cfg.AI.Provider != "anthropic" {
		t.Errorf("expected provider anthropic, got %q", cfg.AI.Provider)
	}
	if cfg.AI.AnthropicKey != "sk-test" {
		t.Errorf("expected anthropic key sk-test, got %q", cfg.AI.AnthropicKey)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DOCENGINE_REPOSITORY_DRIVER", "postgres")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoadRejectsMissingDSN(t *testing.T) {
	t.Setenv("DOCENGINE_REPOSITORY_DRIVER", "mysql")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for missing dsn")
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/docengine.yaml"
	yaml := "repository:\n  driver: sqlite\n  dsn: file:yaml.db\nengine:\n  log_level: debug\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Repository.Driver != "sqlite" || cfg.Repository.DSN != "file:yaml.db" {
		t.Errorf("unexpected repository config: %+v", cfg.Repository)
	}
	if cfg.Engine.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.Engine.LogLevel)
	}
}
