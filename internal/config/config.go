// Package config loads CLI configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fruitsalade/putio/pkg/router"
)

// Config holds the putio-files configuration.
type Config struct {
	// API
	Token         string
	APIBase       string
	Timeout       time.Duration
	RetryAttempts int

	// Logging
	LogLevel  string
	LogFormat string

	// Metrics (empty disables the endpoint)
	MetricsAddr string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Token:         envOr("PUTIO_TOKEN", ""),
		APIBase:       envOr("PUTIO_API_BASE", router.DefaultBase),
		Timeout:       envDuration("PUTIO_TIMEOUT", 30*time.Second),
		RetryAttempts: envInt("PUTIO_RETRY_ATTEMPTS", 1),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		LogFormat:     envOr("LOG_FORMAT", "console"),
		MetricsAddr:   envOr("METRICS_ADDR", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("PUTIO_TIMEOUT must be positive, got %s", c.Timeout)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("PUTIO_RETRY_ATTEMPTS must be at least 1, got %d", c.RetryAttempts)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
