package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_ENV", "LRO_QUEUE_NAME", "LRO_REDIS_URL", "LRO_POLL_INTERVAL",
		"LRO_RATE_LIMIT_PER_MIN", "LRO_AUDIT_DB_URL", "LRO_KAFKA_BROKERS",
		"LRO_OTEL_ENDPOINT", "OTEL_SERVICE_NAME", "METRICS_PORT",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoadRequiresQueueName(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Fatal("expected Load to fail without LRO_QUEUE_NAME set")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("LRO_QUEUE_NAME", "orders")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.QueueName != "orders" {
		t.Fatalf("expected queue name %q, got %q", "orders", cfg.QueueName)
	}
	if cfg.RedisURL != "redis://127.0.0.1:6379/0" {
		t.Fatalf("unexpected default redis url: %q", cfg.RedisURL)
	}
	if cfg.PollInterval != time.Second {
		t.Fatalf("expected default poll interval of 1s, got %v", cfg.PollInterval)
	}
	if cfg.RateLimitPerMin != 0 {
		t.Fatalf("expected default rate limit of 0, got %d", cfg.RateLimitPerMin)
	}
	if cfg.AuditEnabled() {
		t.Fatal("expected audit disabled by default")
	}
	if cfg.EventsEnabled() {
		t.Fatal("expected events disabled by default")
	}
	if !cfg.IsDev() {
		t.Fatal("expected dev environment by default")
	}
}

func TestAuditAndEventsEnabledWhenConfigured(t *testing.T) {
	clearEnv(t)
	t.Setenv("LRO_QUEUE_NAME", "orders")
	t.Setenv("LRO_AUDIT_DB_URL", "postgres://localhost/audit")
	t.Setenv("LRO_KAFKA_BROKERS", "localhost:9092,localhost:9093")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.AuditEnabled() {
		t.Fatal("expected audit enabled when LRO_AUDIT_DB_URL is set")
	}
	if !cfg.EventsEnabled() {
		t.Fatal("expected events enabled when LRO_KAFKA_BROKERS is set")
	}
	if len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("expected 2 brokers, got %d: %v", len(cfg.KafkaBrokers), cfg.KafkaBrokers)
	}
}

func TestIsProdAndIsTest(t *testing.T) {
	clearEnv(t)
	t.Setenv("LRO_QUEUE_NAME", "orders")
	t.Setenv("APP_ENV", "prod")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.IsProd() {
		t.Fatal("expected IsProd to be true")
	}
	if cfg.IsDev() || cfg.IsTest() {
		t.Fatal("expected IsDev/IsTest false in prod")
	}
}
