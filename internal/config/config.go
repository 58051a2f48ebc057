package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jwalitptl/dental-api/pkg/logger"
)

// EnvPrefix prefixes every environment override, e.g. DENTAL_STORAGE_DRIVER.
const EnvPrefix = "DENTAL"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       logger.Config   `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Events    EventsConfig    `mapstructure:"events"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Security  SecurityConfig  `mapstructure:"security"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Clinic    ClinicConfig    `mapstructure:"clinic"`
	Backup    BackupConfig    `mapstructure:"backup"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	TimeoutSeconds  int `mapstructure:"timeout_seconds"`
	ShutdownSeconds int `mapstructure:"shutdown_seconds"`
}

type StorageConfig struct {
	Driver   string         `mapstructure:"driver"`
	Prefix   string         `mapstructure:"prefix"`
	File     FileConfig     `mapstructure:"file"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres DatabaseConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	S3       S3Config       `mapstructure:"s3"`
	Breaker  BreakerConfig  `mapstructure:"breaker"`
}

type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	URL        string `mapstructure:"url"`
	PoolSize   int    `mapstructure:"pool_size"`
	MaxRetries int    `mapstructure:"max_retries"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
}

type BreakerConfig struct {
	MaxFailures    int `mapstructure:"max_failures"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type AuthConfig struct {
	JWTSecret   string          `mapstructure:"jwt_secret"`
	ExpiryHours int             `mapstructure:"expiry_hours"`
	BcryptCost  int             `mapstructure:"bcrypt_cost"`
	Accounts    []AccountConfig `mapstructure:"accounts"`
}

// AccountConfig is one entry of the credential directory. Either Password
// (hashed at startup) or PasswordHash (bcrypt) must be set.
type AccountConfig struct {
	ID           int64  `mapstructure:"id"`
	Email        string `mapstructure:"email"`
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
	Name         string `mapstructure:"name"`
	Role         string `mapstructure:"role"`
}

type EventsConfig struct {
	RedisURL string `mapstructure:"redis_url"`
	Channel  string `mapstructure:"channel"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	LoginPerMinute    int     `mapstructure:"login_per_minute"`
}

type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// BackupConfig enables periodic snapshot copies to a second backend.
type BackupConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	IntervalMinutes int           `mapstructure:"interval_minutes"`
	Storage         StorageConfig `mapstructure:"storage"`
}

func (c BackupConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// ClinicConfig describes the practice itself. Timezone is an IANA name used
// to decide which calendar day an appointment falls on.
type ClinicConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Location resolves Timezone, falling back to UTC when it is empty.
func (c ClinicConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownSeconds) * time.Second
}

func (c AuthConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

func (c BreakerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

var drivers = map[string]bool{
	"memory":   true,
	"file":     true,
	"sqlite":   true,
	"postgres": true,
	"redis":    true,
	"s3":       true,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.shutdown_seconds", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.file.dir", "data")
	v.SetDefault("storage.sqlite.path", "data/dental.db")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.user", "postgres")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.name", "dental")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.postgres.max_open_conns", 5)
	v.SetDefault("storage.redis.url", "redis://localhost:6379/0")
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.max_retries", 3)
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.path_style", false)
	v.SetDefault("storage.breaker.max_failures", 5)
	v.SetDefault("storage.breaker.timeout_seconds", 10)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.expiry_hours", 12)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.accounts", DefaultAccounts())

	v.SetDefault("events.redis_url", "")
	v.SetDefault("events.channel", "dental.changes")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 50)
	v.SetDefault("rate_limit.burst", 100)
	v.SetDefault("rate_limit.login_per_minute", 10)

	v.SetDefault("security.allowed_origins", []string{"*"})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "dental")

	v.SetDefault("clinic.timezone", "UTC")

	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.interval_minutes", 60)
	v.SetDefault("backup.storage.driver", "file")
	v.SetDefault("backup.storage.file.dir", "data/backups")
	v.SetDefault("backup.storage.breaker.max_failures", 5)
	v.SetDefault("backup.storage.breaker.timeout_seconds", 10)
}

// DefaultAccounts is the built-in directory: one clinic admin and two patients.
func DefaultAccounts() []map[string]interface{} {
	return []map[string]interface{}{
		{"id": 1, "email": "admin@dental.com", "password": "admin123", "name": "Dr. Smith", "role": "admin"},
		{"id": 2, "email": "john@email.com", "password": "patient123", "name": "John Doe", "role": "patient"},
		{"id": 3, "email": "jane@email.com", "password": "patient123", "name": "Jane Smith", "role": "patient"},
	}
}

// LoadConfig reads config.yaml from the given directories (default "." and
// "./config"), applies DENTAL_* environment overrides and defaults. A missing
// config file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if err := c.Storage.validate("storage"); err != nil {
		return err
	}
	if c.Backup.Enabled {
		if err := c.Backup.Storage.validate("backup.storage"); err != nil {
			return err
		}
		if c.Backup.Storage.Driver == "memory" {
			return fmt.Errorf("backup.storage.driver cannot be memory")
		}
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if _, err := c.Clinic.Location(); err != nil {
		return fmt.Errorf("invalid clinic.timezone %q: %w", c.Clinic.Timezone, err)
	}
	for i, a := range c.Auth.Accounts {
		if a.Email == "" {
			return fmt.Errorf("auth.accounts[%d]: email is required", i)
		}
		if a.Password == "" && a.PasswordHash == "" {
			return fmt.Errorf("auth.accounts[%d]: password or password_hash is required", i)
		}
	}
	return nil
}

func (c *StorageConfig) validate(name string) error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if !drivers[c.Driver] {
		return fmt.Errorf("unknown %s driver %q", name, c.Driver)
	}
	if c.Driver == "s3" && c.S3.Bucket == "" {
		return fmt.Errorf("%s.s3.bucket is required for the s3 driver", name)
	}
	return nil
}

// Validate checks a storage block on its own, for tools that open a
// backend directly.
func (c *StorageConfig) Validate() error {
	return c.validate("storage")
}
