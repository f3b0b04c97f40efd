// Package config loads application settings through viper.
// Values come from an optional app.env file, overridden by environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the server, worker and tenant tool.
type Config struct {
	Env      string `mapstructure:"APP_ENV"`
	Port     string `mapstructure:"APP_PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	MetaDatabaseURL       string        `mapstructure:"META_DATABASE_URL"`
	TenantDBUser          string        `mapstructure:"TENANT_DB_USER"`
	TenantDBPassword      string        `mapstructure:"TENANT_DB_PASSWORD"`
	TenantMaxPools        int           `mapstructure:"TENANT_MAX_POOLS"`
	TenantMaxConnsPerPool int32         `mapstructure:"TENANT_MAX_CONNS_PER_POOL"`
	TenantPoolIdleTimeout time.Duration `mapstructure:"TENANT_POOL_IDLE_TIMEOUT"`

	JWTSecret string `mapstructure:"JWT_SECRET"`
	JWTIssuer string `mapstructure:"JWT_ISSUER"`

	IdempotencyEnabled bool          `mapstructure:"IDEMPOTENCY_ENABLED"`
	TxStatementTimeout time.Duration `mapstructure:"TX_STATEMENT_TIMEOUT"`

	OutboxBatchSize    int           `mapstructure:"OUTBOX_BATCH_SIZE"`
	OutboxPollInterval time.Duration `mapstructure:"OUTBOX_POLL_INTERVAL"`

	AuditCompressThreshold int `mapstructure:"AUDIT_COMPRESS_THRESHOLD"`
}

// IsDevelopment reports whether the process runs in a development environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "dev"
}

var defaults = map[string]any{
	"APP_ENV":                   "development",
	"APP_PORT":                  "8080",
	"LOG_LEVEL":                 "info",
	"META_DATABASE_URL":         "",
	"TENANT_DB_USER":            "postgres",
	"TENANT_DB_PASSWORD":        "",
	"TENANT_MAX_POOLS":          100,
	"TENANT_MAX_CONNS_PER_POOL": 10,
	"TENANT_POOL_IDLE_TIMEOUT":  "30m",
	"JWT_SECRET":                "",
	"JWT_ISSUER":                "back-office",
	"IDEMPOTENCY_ENABLED":       true,
	"TX_STATEMENT_TIMEOUT":      "30s",
	"OUTBOX_BATCH_SIZE":         100,
	"OUTBOX_POLL_INTERVAL":      "5s",
	"AUDIT_COMPRESS_THRESHOLD":  10 * 1024,
}

// Load reads configuration from <path>/app.env (if present) and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Every key needs a default for Unmarshal to see env-only values.
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks values required by the server and the worker.
func (c Config) Validate() error {
	if c.MetaDatabaseURL == "" {
		return errors.New("META_DATABASE_URL is required")
	}
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return errors.New("JWT_SECRET is required outside development")
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("OUTBOX_BATCH_SIZE must be positive")
	}
	return nil
}
