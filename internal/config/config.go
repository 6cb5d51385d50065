// Package config provides configuration management for the intercom service.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (standard names like DATABASE_URL, SERVER_PORT)
// 3. Default values
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	River    RiverConfig    `mapstructure:"river"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Intercom IntercomConfig `mapstructure:"intercom"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORSAllowOrigins lists browser origins allowed to call the API.
	// Empty disables CORS handling entirely.
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
}

// DatabaseConfig contains PostgreSQL connection settings.
// One pgx pool is shared by gorm and River so job inserts and row writes
// do not double the connection count.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`

	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
// Priority: DATABASE_URL > constructed from individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// RiverConfig contains River Queue settings.
type RiverConfig struct {
	MaxWorkers                  int           `mapstructure:"max_workers"`
	CompletedJobRetentionPeriod time.Duration `mapstructure:"completed_job_retention_period"`
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	GeneralPoolSize int `mapstructure:"general_pool_size"`
}

// IntercomConfig contains visit notification settings.
type IntercomConfig struct {
	// ProviderTimeout bounds every outbound adapter HTTP call.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`

	// ResponseTimeout is how long an unanswered notification stays open
	// before the expiry sweep marks it EXPIRED. Tenant settings may
	// override it per complex.
	ResponseTimeout time.Duration `mapstructure:"response_timeout"`

	// ExpireSweepInterval is how often the expiry sweep job runs.
	ExpireSweepInterval time.Duration `mapstructure:"expire_sweep_interval"`

	// DefaultCountryCode is prefixed to phone numbers without one.
	DefaultCountryCode string `mapstructure:"default_country_code"`

	// AuditRetention is how long audit rows are kept before the daily
	// cleanup job prunes them.
	AuditRetention time.Duration `mapstructure:"audit_retention"`

	// WebhookBaseURL is the externally reachable base of this service,
	// e.g. https://intercom.example.com. Twilio signs callbacks against
	// the full webhook URL, so this must match what Twilio is given.
	WebhookBaseURL string `mapstructure:"webhook_base_url"`

	// TelegramWebhookSecret is the secret token registered with the
	// Telegram setWebhook call. Empty falls back to structural payload
	// checks only.
	TelegramWebhookSecret string `mapstructure:"telegram_webhook_secret"`
}

// WhatsappCallbackURL is the URL Twilio posts inbound messages to.
func (c IntercomConfig) WhatsappCallbackURL() string {
	if c.WebhookBaseURL == "" {
		return ""
	}
	return strings.TrimRight(c.WebhookBaseURL, "/") + "/api/v1/webhooks/whatsapp"
}

// Load reads configuration from file and environment variables.
// Standard environment variables without prefix (DATABASE_URL, SERVER_PORT,
// INTERCOM_RESPONSE_TIMEOUT, and so on).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/armonia-intercom")

	// Maps nested config: database.max_conns → DATABASE_MAX_CONNS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Intercom.ProviderTimeout <= 0 {
		return fmt.Errorf("intercom.provider_timeout must be positive")
	}
	if c.Intercom.ResponseTimeout <= 0 {
		return fmt.Errorf("intercom.response_timeout must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database (shared pool)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "intercom")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "intercom")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.auto_migrate", false)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// River
	v.SetDefault("river.max_workers", 10)
	v.SetDefault("river.completed_job_retention_period", "24h")

	// Worker pool
	v.SetDefault("worker.general_pool_size", 50)

	// Intercom
	v.SetDefault("intercom.provider_timeout", "15s")
	v.SetDefault("intercom.response_timeout", "10m")
	v.SetDefault("intercom.expire_sweep_interval", "1m")
	v.SetDefault("intercom.default_country_code", "+57")
	v.SetDefault("intercom.audit_retention", "2160h") // 90 days
}
