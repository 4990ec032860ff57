// Package config loads the service configuration from config.yml and
// overlays HMS_* environment variables on top.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/hms-api/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. HMS_DATABASE_HOST.
const EnvPrefix = "HMS"

type Config struct {
	Env         string            `mapstructure:"env"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Redis       RedisConfig       `mapstructure:"redis"`
	SMTP        SMTPConfig        `mapstructure:"smtp"`
	Outbox      OutboxConfig      `mapstructure:"outbox"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit" split_words:"true"`
	Log         LogConfig         `mapstructure:"log"`
	Audit       AuditConfig       `mapstructure:"audit"`
	Preferences PreferencesConfig `mapstructure:"preferences"`

	Uploads map[string]model.UploadConfig `mapstructure:"uploads" ignored:"true"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" split_words:"true"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" split_words:"true"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" split_words:"true"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" split_words:"true"`
	HSTS           bool          `mapstructure:"hsts"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" split_words:"true"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" split_words:"true"`
}

// DSN returns the lib/pq connection URL.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size" split_words:"true"`
	MinIdleConns int           `mapstructure:"min_idle_conns" split_words:"true"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" split_words:"true"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Enabled reports whether receipts can be mailed.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type OutboxConfig struct {
	BatchSize       int           `mapstructure:"batch_size" split_words:"true"`
	PollInterval    time.Duration `mapstructure:"poll_interval" split_words:"true"`
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" split_words:"true"`
	MailMaxFailures int           `mapstructure:"mail_max_failures" split_words:"true"`
	MailCooldown    time.Duration `mapstructure:"mail_cooldown" split_words:"true"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" split_words:"true"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

type AuditConfig struct {
	// Path of the JSON audit journal. Empty writes to stderr.
	Path string `mapstructure:"path"`
}

type PreferencesConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl" split_words:"true"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "hms")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("jwt.issuer", "hms-api")
	v.SetDefault("jwt.ttl", 12*time.Hour)

	v.SetDefault("redis.url", "redis://localhost:6379/0")

	v.SetDefault("smtp.port", 587)

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 2*time.Second)
	v.SetDefault("outbox.retention", 7*24*time.Hour)
	v.SetDefault("outbox.cleanup_interval", time.Hour)
	v.SetDefault("outbox.mail_max_failures", 5)
	v.SetDefault("outbox.mail_cooldown", time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("log.level", "info")

	v.SetDefault("preferences.session_ttl", 12*time.Hour)
}

// Load reads path, or config.yml from the usual locations when path is
// empty, then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server can not start without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if len(c.JWT.Secret) < 16 {
		return errors.New("jwt.secret must be at least 16 characters")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("jwt.ttl must be positive")
	}
	if c.Outbox.BatchSize <= 0 {
		return errors.New("outbox.batch_size must be greater than 0")
	}
	if c.Outbox.PollInterval <= 0 {
		return errors.New("outbox.poll_interval must be greater than 0")
	}
	if c.Preferences.SessionTTL <= 0 {
		return errors.New("preferences.session_ttl must be positive")
	}
	if err := model.ValidateUploadConfigs(c.Uploads); err != nil {
		return fmt.Errorf("uploads: %w", err)
	}
	return nil
}
