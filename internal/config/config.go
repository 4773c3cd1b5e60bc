package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	PublicURL   string `yaml:"public_url"` // base URL gateways redirect back to
	JWTSecret   string `yaml:"jwt_secret"`
	MetricsPath string `yaml:"metrics_path"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	OpenAIKey    string `yaml:"openai_key"`
	DefaultModel string `yaml:"default_model"`
}

// PayUConfig holds the merchant key and salt for the PayU hash
// formulas. Enabled without a key/salt is a startup error: a verifier
// that cannot verify must not be offered at all.
type PayUConfig struct {
	Enabled bool   `yaml:"enabled"`
	Key     string `yaml:"key"`
	Salt    string `yaml:"salt"`
	BaseURL string `yaml:"base_url"`
}

type PhonePeConfig struct {
	Enabled    bool   `yaml:"enabled"`
	MerchantID string `yaml:"merchant_id"`
	SaltKey    string `yaml:"salt_key"`
	SaltIndex  string `yaml:"salt_index"`
	BaseURL    string `yaml:"base_url"`
}

type PaymentConfig struct {
	PayU           PayUConfig    `yaml:"payu"`
	PhonePe        PhonePeConfig `yaml:"phonepe"`
	ReconcileEvery time.Duration `yaml:"reconcile_every"`
	StaleAfter     time.Duration `yaml:"stale_after"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Payment  PaymentConfig  `yaml:"payment"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MetricsPath == "" {
		cfg.Server.MetricsPath = "/metrics"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.Payment.ReconcileEvery <= 0 {
		cfg.Payment.ReconcileEvery = time.Minute
	}
	if cfg.Payment.StaleAfter <= 0 {
		cfg.Payment.StaleAfter = 10 * time.Minute
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Server.PublicURL == "" {
		return nil, errors.New("server.public_url is required")
	}
	if cfg.Server.JWTSecret == "" {
		return nil, errors.New("server.jwt_secret is required")
	}
	// A gateway enabled without its secret cannot verify anything;
	// fail at startup rather than failing every verification silently.
	if cfg.Payment.PayU.Enabled && (cfg.Payment.PayU.Key == "" || cfg.Payment.PayU.Salt == "") {
		return nil, errors.New("payment.payu enabled but key/salt missing")
	}
	if cfg.Payment.PhonePe.Enabled && (cfg.Payment.PhonePe.MerchantID == "" || cfg.Payment.PhonePe.SaltKey == "") {
		return nil, errors.New("payment.phonepe enabled but merchant_id/salt_key missing")
	}
	if !cfg.Payment.PayU.Enabled && !cfg.Payment.PhonePe.Enabled {
		return nil, errors.New("at least one payment gateway must be enabled")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
