package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverCSV      = "csv"
	DriverSQLite3  = "sqlite3"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Config holds all configuration for our application
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Log      LogConfig      `mapstructure:"log"`
}

// StorageConfig selects where the catalogue lives
type StorageConfig struct {
	Driver  string `mapstructure:"driver"`
	DataDir string `mapstructure:"data_dir"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"`
	LogSQL   bool   `mapstructure:"log_sql"`
}

// SessionConfig holds quiz session store configuration
type SessionConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds redis connection configuration
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ReminderConfig holds the due-review watcher configuration
type ReminderConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and environment variables
func Load() (*Config, error) {
	// A missing .env file is fine; anything else is a broken file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	setDefaults()

	// Enable reading from environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Storage defaults
	viper.SetDefault("storage.driver", DriverCSV)
	viper.SetDefault("storage.data_dir", "data")

	// Database defaults
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "vocquiz")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.path", "")
	viper.SetDefault("database.log_sql", false)

	// Session defaults
	viper.SetDefault("session.backend", SessionMemory)
	viper.SetDefault("session.ttl", 24*time.Hour)
	viper.SetDefault("session.redis.addr", "localhost:6379")
	viper.SetDefault("session.redis.password", "")
	viper.SetDefault("session.redis.db", 0)
	viper.SetDefault("session.redis.key_prefix", "vocquiz:session:")

	// Reminder defaults
	viper.SetDefault("reminder.interval", time.Hour)

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

// Validate rejects unknown drivers and backends
func (c *Config) Validate() error {
	switch c.DatabaseDriver() {
	case DriverCSV, DriverSQLite3, DriverSQLite, DriverPostgres, DriverPgx:
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	switch c.SessionBackend() {
	case SessionMemory, SessionRedis:
	default:
		return fmt.Errorf("unsupported session backend %q", c.Session.Backend)
	}
	return nil
}

// DatabaseDriver returns the normalised storage driver name
func (c *Config) DatabaseDriver() string {
	driver := strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch driver {
	case "", "file":
		return DriverCSV
	case "postgresql":
		return DriverPostgres
	default:
		return driver
	}
}

// SessionBackend returns the normalised session backend name
func (c *Config) SessionBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Session.Backend))
	if backend == "" {
		return SessionMemory
	}
	return backend
}

// UsesSQL reports whether the catalogue lives in a SQL database
func (c *Config) UsesSQL() bool {
	return c.DatabaseDriver() != DriverCSV
}

// SQLitePath returns the database file used by the sqlite drivers
func (c *Config) SQLitePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Storage.DataDir, "vocquiz.db")
}

// DatabaseURL returns the connection string for the configured driver
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	switch c.DatabaseDriver() {
	case DriverSQLite3:
		return "file:" + c.SQLitePath() + "?_busy_timeout=5000"
	case DriverSQLite:
		return "file:" + c.SQLitePath() + "?_pragma=busy_timeout(5000)"
	case DriverPostgres, DriverPgx:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.Database.User, c.Database.Password),
			Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
			Path:     "/" + c.Database.Name,
			RawQuery: url.Values{"sslmode": []string{c.Database.SSLMode}}.Encode(),
		}
		return u.String()
	default:
		return ""
	}
}
