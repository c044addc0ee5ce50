package config

import "fmt"

// Validate checks structural invariants on a loaded Config.
func Validate(cfg *Config) error {
	if !KnownBackends[cfg.Storage.Backend] {
		return fmt.Errorf("config: unknown storage backend %q", cfg.Storage.Backend)
	}
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("config: rate_limit.requests_per_second must be positive")
	}
	if cfg.RateLimit.Burst <= 0 {
		return fmt.Errorf("config: rate_limit.burst must be positive")
	}
	if cfg.Webhook.Enabled && cfg.Webhook.Endpoint == "" {
		return fmt.Errorf("config: webhook.enabled requires webhook.endpoint")
	}
	if cfg.Monitoring.WindowSeconds <= 0 {
		return fmt.Errorf("config: monitoring.window_seconds must be positive")
	}
	if cfg.Scanner.Concurrency <= 0 {
		return fmt.Errorf("config: scanner.concurrency must be positive")
	}
	return nil
}
