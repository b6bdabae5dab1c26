// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`

	QueueName    string        `env:"LRO_QUEUE_NAME,required"`
	RedisURL     string        `env:"LRO_REDIS_URL" envDefault:"redis://127.0.0.1:6379/0"`
	PollInterval time.Duration `env:"LRO_POLL_INTERVAL" envDefault:"1s"`

	RateLimitPerMin int `env:"LRO_RATE_LIMIT_PER_MIN" envDefault:"0"`

	// AuditDBURL, when set, enables best-effort mirroring of terminal
	// operations to Postgres. Empty disables the audit sink entirely.
	AuditDBURL string `env:"LRO_AUDIT_DB_URL" envDefault:""`

	// KafkaBrokers, when non-empty, enables best-effort publication of
	// operation lifecycle events. Empty disables the event publisher.
	KafkaBrokers []string `env:"LRO_KAFKA_BROKERS" envSeparator:"," envDefault:""`

	OTLPEndpoint    string `env:"LRO_OTEL_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"lro"`

	MetricsPort int `env:"METRICS_PORT" envDefault:"9090"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// AuditEnabled reports whether an audit sink should be constructed.
func (c Config) AuditEnabled() bool { return c.AuditDBURL != "" }

// EventsEnabled reports whether an event publisher should be constructed.
func (c Config) EventsEnabled() bool { return len(c.KafkaBrokers) > 0 && c.KafkaBrokers[0] != "" }
