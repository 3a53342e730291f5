package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env         string            `yaml:"env"`
	HTTP        HTTPConfig        `yaml:"http"`
	Log         LogConfig         `yaml:"log"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Redis       RedisConfig       `yaml:"redis"`
	NATS        NATSConfig        `yaml:"nats"`
	Auth        AuthConfig        `yaml:"auth"`
	Telegram    TelegramConfig    `yaml:"telegram"`
	Calendar    CalendarConfig    `yaml:"calendar"`
	Pricing     PricingConfig     `yaml:"pricing"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// PostgresConfig with an empty DSN runs the API on the in-memory store.
type PostgresConfig struct {
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

// RedisConfig with an empty Addr disables the report rate limit and
// falls back to in-process effect de-duplication.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Queue   string `yaml:"queue"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	JWTAccessTTL time.Duration `yaml:"jwt_access_ttl"`
}

type TelegramConfig struct {
	Token    string  `yaml:"token"`
	SendRate float64 `yaml:"send_rate"`
}

type CalendarConfig struct {
	BaseURL             string        `yaml:"base_url"`
	APIKey              string        `yaml:"api_key"`
	Timeout             time.Duration `yaml:"timeout"`
	ConsecutiveFailures int           `yaml:"consecutive_failures"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
}

type PricingConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type MarketplaceConfig struct {
	ReportLimitPer10Min int              `yaml:"report_limit_per_10m"`
	Dispatcher          DispatcherConfig `yaml:"dispatcher"`
	ExpiryInterval      time.Duration    `yaml:"expiry_interval"`
}

type DispatcherConfig struct {
	QueueSize       int           `yaml:"queue_size"`
	Workers         int           `yaml:"workers"`
	DedupTTL        time.Duration `yaml:"dedup_ttl"`
	DeliveryTimeout time.Duration `yaml:"delivery_timeout"`
}

func Default() Config {
	return Config{
		Env: "dev",
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		Log: LogConfig{Level: "debug"},
		Postgres: PostgresConfig{
			Migrate: true,
		},
		NATS: NATSConfig{
			Subject: "automarket.notifications",
			Queue:   "notifier",
		},
		Auth: AuthConfig{
			JWTSecret:    "change-me",
			JWTAccessTTL: 15 * time.Minute,
		},
		Telegram: TelegramConfig{
			SendRate: 25,
		},
		Calendar: CalendarConfig{
			Timeout:             5 * time.Second,
			ConsecutiveFailures: 5,
			OpenTimeout:         30 * time.Second,
		},
		Pricing: PricingConfig{
			Timeout: 2 * time.Second,
		},
		Marketplace: MarketplaceConfig{
			ReportLimitPer10Min: 5,
			Dispatcher: DispatcherConfig{
				QueueSize:       1024,
				Workers:         4,
				DedupTTL:        24 * time.Hour,
				DeliveryTimeout: 10 * time.Second,
			},
			ExpiryInterval: time.Minute,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Env == "prod" && cfg.Auth.JWTSecret == "change-me" {
		return Config{}, fmt.Errorf("auth.jwt_secret must be set in production")
	}

	return cfg, nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if err := overrideDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if err := overrideBool("POSTGRES_MIGRATE", &cfg.Postgres.Migrate); err != nil {
		return err
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}

	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_SUBJECT"); v != "" {
		cfg.NATS.Subject = v
	}
	if v := os.Getenv("NATS_QUEUE"); v != "" {
		cfg.NATS.Queue = v
	}

	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if err := overrideDuration("JWT_ACCESS_TTL", &cfg.Auth.JWTAccessTTL); err != nil {
		return err
	}

	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if err := overrideFloat("TELEGRAM_SEND_RATE", &cfg.Telegram.SendRate); err != nil {
		return err
	}

	if v := os.Getenv("CALENDAR_BASE_URL"); v != "" {
		cfg.Calendar.BaseURL = v
	}
	if v := os.Getenv("CALENDAR_API_KEY"); v != "" {
		cfg.Calendar.APIKey = v
	}
	if err := overrideDuration("CALENDAR_TIMEOUT", &cfg.Calendar.Timeout); err != nil {
		return err
	}
	if err := overrideInt("CALENDAR_CONSECUTIVE_FAILURES", &cfg.Calendar.ConsecutiveFailures); err != nil {
		return err
	}
	if err := overrideDuration("CALENDAR_OPEN_TIMEOUT", &cfg.Calendar.OpenTimeout); err != nil {
		return err
	}

	if v := os.Getenv("PRICING_URL"); v != "" {
		cfg.Pricing.URL = v
	}
	if err := overrideDuration("PRICING_TIMEOUT", &cfg.Pricing.Timeout); err != nil {
		return err
	}

	if err := overrideInt("REPORT_LIMIT_PER_10M", &cfg.Marketplace.ReportLimitPer10Min); err != nil {
		return err
	}
	if err := overrideInt("DISPATCH_QUEUE_SIZE", &cfg.Marketplace.Dispatcher.QueueSize); err != nil {
		return err
	}
	if err := overrideInt("DISPATCH_WORKERS", &cfg.Marketplace.Dispatcher.Workers); err != nil {
		return err
	}
	if err := overrideDuration("DISPATCH_DEDUP_TTL", &cfg.Marketplace.Dispatcher.DedupTTL); err != nil {
		return err
	}
	if err := overrideDuration("DISPATCH_DELIVERY_TIMEOUT", &cfg.Marketplace.Dispatcher.DeliveryTimeout); err != nil {
		return err
	}
	if err := overrideDuration("EXPIRY_INTERVAL", &cfg.Marketplace.ExpiryInterval); err != nil {
		return err
	}

	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}

func overrideFloat(key string, target *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("parse %s float: %w", key, err)
	}
	*target = f
	return nil
}

func overrideBool(key string, target *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s bool: %w", key, err)
	}
	*target = b
	return nil
}
