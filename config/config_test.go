package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != "jsonl" {
		t.Fatalf("expected default backend jsonl, got %s", cfg.Storage.Backend)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config file to be written: %v", err)
	}
}

func TestLoadAppliesEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if _, err := Load(path); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	t.Setenv("ISNAD_STORAGE_BACKEND", "memory")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != "memory" {
		t.Fatalf("expected env override to set backend to memory, got %s", cfg.Storage.Backend)
	}
}

func TestLoadAppliesCoreEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if _, err := Load(path); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	t.Setenv("WORKER_INTERVAL", "60")
	t.Setenv("RATE_LIMIT_RPS", "42.5")
	t.Setenv("ISNAD_PRODUCTION", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorkerInterval != 60 {
		t.Fatalf("expected WorkerInterval 60, got %d", cfg.WorkerInterval)
	}
	if cfg.RateLimit.RequestsPerSecond != 42.5 {
		t.Fatalf("expected RequestsPerSecond 42.5, got %v", cfg.RateLimit.RequestsPerSecond)
	}
	if !cfg.Production {
		t.Fatalf("expected Production true")
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.AllowedOrigins) != len(want) || cfg.AllowedOrigins[0] != want[0] || cfg.AllowedOrigins[1] != want[1] {
		t.Fatalf("expected AllowedOrigins %v, got %v", want, cfg.AllowedOrigins)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := defaults()
	cfg.Storage.Backend = "mystery"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected validation error for unknown backend")
	}
}

func TestValidateRejectsWebhookWithoutEndpoint(t *testing.T) {
	cfg := defaults()
	cfg.Webhook.Enabled = true
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected validation error for enabled webhook without endpoint")
	}
}
