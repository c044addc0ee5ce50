// Package config loads the daemon's TOML configuration, with environment
// variable overrides (spec ambient stack): storage backend selection,
// HTTP listen address, rate limiting, webhook dispatch, and monitoring
// window sizing. Grounded on the teacher's load-or-create-default config
// loader (BurntSushi/toml), generalized from a single flat struct to the
// nested sections this service needs.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon's full runtime configuration.
type Config struct {
	ListenAddress  string     `toml:"ListenAddress"`
	DataDir        string     `toml:"DataDir"`
	Storage        Storage    `toml:"Storage"`
	RateLimit      RateLimit  `toml:"RateLimit"`
	Webhook        Webhook    `toml:"Webhook"`
	Monitoring     Monitoring `toml:"Monitoring"`
	Scanner        Scanner    `toml:"Scanner"`
	Production     bool       `toml:"Production"`     // ISNAD_PRODUCTION disables built-in docs
	AllowedOrigins []string   `toml:"AllowedOrigins"` // ALLOWED_ORIGINS, CSV
	WorkerInterval int64      `toml:"WorkerInterval"` // WORKER_INTERVAL, seconds between scan cycles
}

// Storage selects and configures the ledger's pluggable backend.
type Storage struct {
	Backend string `toml:"Backend"` // "memory", "sqlite", "jsonl", "leveldb"
	Path    string `toml:"Path"`
}

// RateLimit bounds inbound API request throughput (golang.org/x/time/rate).
type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
}

// Webhook configures outbound event delivery.
type Webhook struct {
	Enabled     bool   `toml:"Enabled"`
	Endpoint    string `toml:"Endpoint"`
	Secret      string `toml:"Secret"`
	MaxAttempts int    `toml:"MaxAttempts"`
}

// Monitoring configures the health monitor's sliding window.
type Monitoring struct {
	WindowSeconds int64 `toml:"WindowSeconds"`
}

// Scanner configures the concurrent platform scanner.
type Scanner struct {
	Concurrency       int     `toml:"Concurrency"`
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	TimeoutSeconds    int     `toml:"TimeoutSeconds"`
}

func defaults() *Config {
	return &Config{
		ListenAddress: ":8420",
		DataDir:       "./isnad-data",
		Storage:       Storage{Backend: "jsonl", Path: "./isnad-data/ledger.jsonl"},
		RateLimit:     RateLimit{RequestsPerSecond: 20, Burst: 40},
		Webhook:       Webhook{MaxAttempts: 5},
		Monitoring:    Monitoring{WindowSeconds: 3600},
		Scanner:       Scanner{Concurrency: 8, RequestsPerSecond: 5, TimeoutSeconds: 10},
		WorkerInterval: 300,
	}
}

// Load reads cfg from path, creating a default file if none exists, then
// applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefault(path, cfg); err != nil {
			return nil, err
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeDefault(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// applyEnvOverrides lets deployment tooling override config without
// rewriting the TOML file, matching the teacher's convention of
// environment-first ops configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ISNAD_LISTEN_ADDRESS"); v != "" {
		cfg.ListenAddress = v
	}
	if v := os.Getenv("ISNAD_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("ISNAD_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("ISNAD_WEBHOOK_ENDPOINT"); v != "" {
		cfg.Webhook.Endpoint = v
		cfg.Webhook.Enabled = true
	}
	if v := os.Getenv("ISNAD_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}
	// RATE_LIMIT_RPS is the core env var name from the external interfaces
	// contract; ISNAD_RATE_LIMIT_RPS is kept as a namespaced alias.
	for _, name := range []string{"RATE_LIMIT_RPS", "ISNAD_RATE_LIMIT_RPS"} {
		if v := os.Getenv(name); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				cfg.RateLimit.RequestsPerSecond = f
			}
		}
	}
	if v := os.Getenv("WORKER_INTERVAL"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.WorkerInterval = n
		}
	}
	if v := os.Getenv("ISNAD_PRODUCTION"); v != "" {
		cfg.Production = isTruthy(v)
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i, o := range origins {
			origins[i] = strings.TrimSpace(o)
		}
		cfg.AllowedOrigins = origins
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
