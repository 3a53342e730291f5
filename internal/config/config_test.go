package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected http.addr default: %s", cfg.HTTP.Addr)
	}
	if cfg.Postgres.DSN != "" || !cfg.Postgres.Migrate {
		t.Fatalf("dev defaults should run in memory mode with migrations on: %+v", cfg.Postgres)
	}
	if cfg.NATS.Subject != "automarket.notifications" {
		t.Fatalf("unexpected nats.subject default: %s", cfg.NATS.Subject)
	}
	if cfg.Marketplace.ReportLimitPer10Min != 5 {
		t.Fatalf("unexpected report limit default: %d", cfg.Marketplace.ReportLimitPer10Min)
	}
	if cfg.Marketplace.Dispatcher.DedupTTL != 24*time.Hour {
		t.Fatalf("unexpected dedup ttl default: %s", cfg.Marketplace.Dispatcher.DedupTTL)
	}
	if cfg.Telegram.SendRate != 25 {
		t.Fatalf("unexpected telegram.send_rate default: %v", cfg.Telegram.SendRate)
	}
}

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
postgres:
  dsn: postgres://app:app@db:5432/automarket
calendar:
  base_url: https://calendar.internal
  consecutive_failures: 3
marketplace:
  report_limit_per_10m: 2
  dispatcher:
    workers: 8
  expiry_interval: 30s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Postgres.DSN != "postgres://app:app@db:5432/automarket" {
		t.Fatalf("unexpected postgres.dsn: %s", cfg.Postgres.DSN)
	}
	if cfg.Calendar.BaseURL != "https://calendar.internal" || cfg.Calendar.ConsecutiveFailures != 3 {
		t.Fatalf("unexpected calendar config: %+v", cfg.Calendar)
	}
	if cfg.Calendar.Timeout != 5*time.Second {
		t.Fatalf("calendar.timeout default should stay 5s, got %s", cfg.Calendar.Timeout)
	}
	if cfg.Marketplace.ReportLimitPer10Min != 2 {
		t.Fatalf("unexpected report limit: %d", cfg.Marketplace.ReportLimitPer10Min)
	}
	if cfg.Marketplace.Dispatcher.Workers != 8 || cfg.Marketplace.Dispatcher.QueueSize != 1024 {
		t.Fatalf("unexpected dispatcher config: %+v", cfg.Marketplace.Dispatcher)
	}
	if cfg.Marketplace.ExpiryInterval != 30*time.Second {
		t.Fatalf("unexpected expiry interval: %s", cfg.Marketplace.ExpiryInterval)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("nats:\n  url: nats://yaml:4222\n"), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	t.Setenv("NATS_URL", "nats://env:4222")
	t.Setenv("TELEGRAM_SEND_RATE", "5.5")
	t.Setenv("POSTGRES_MIGRATE", "false")
	t.Setenv("DISPATCH_DEDUP_TTL", "2h")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.NATS.URL != "nats://env:4222" {
		t.Fatalf("env should win over yaml, got %s", cfg.NATS.URL)
	}
	if cfg.Telegram.SendRate != 5.5 {
		t.Fatalf("unexpected send rate: %v", cfg.Telegram.SendRate)
	}
	if cfg.Postgres.Migrate {
		t.Fatalf("POSTGRES_MIGRATE=false should disable migrations")
	}
	if cfg.Marketplace.Dispatcher.DedupTTL != 2*time.Hour {
		t.Fatalf("unexpected dedup ttl: %s", cfg.Marketplace.Dispatcher.DedupTTL)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("EXPIRY_INTERVAL", "soon")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for malformed duration")
	}
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error when jwt secret is left at its default in production")
	}

	t.Setenv("JWT_SECRET", "s3cr3t")
	if _, err := Load(""); err != nil {
		t.Fatalf("load with explicit secret: %v", err)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"POSTGRES_MIGRATE",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"NATS_URL",
		"NATS_SUBJECT",
		"NATS_QUEUE",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"TELEGRAM_TOKEN",
		"TELEGRAM_SEND_RATE",
		"CALENDAR_BASE_URL",
		"CALENDAR_API_KEY",
		"CALENDAR_TIMEOUT",
		"CALENDAR_CONSECUTIVE_FAILURES",
		"CALENDAR_OPEN_TIMEOUT",
		"PRICING_URL",
		"PRICING_TIMEOUT",
		"REPORT_LIMIT_PER_10M",
		"DISPATCH_QUEUE_SIZE",
		"DISPATCH_WORKERS",
		"DISPATCH_DEDUP_TTL",
		"DISPATCH_DELIVERY_TIMEOUT",
		"EXPIRY_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}
