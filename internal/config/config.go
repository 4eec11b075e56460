package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// DeleteModeRestrict rejects deleting a user that still owns a profile.
	DeleteModeRestrict = "restrict"
	// DeleteModeCascade removes the profile together with its user.
	DeleteModeCascade = "cascade"

	defaultConfigFile = "usersdb.yaml"
)

// Config is the main configuration structure
type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"USERSDB_LOG_LEVEL"`
	Format string `yaml:"format" env:"USERSDB_LOG_FORMAT"`
}

type HTTPConfig struct {
	Host            string `yaml:"host" env:"USERSDB_HTTP_HOST"`
	Port            int    `yaml:"port" env:"USERSDB_HTTP_PORT"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" env:"USERSDB_HTTP_SHUTDOWN_TIMEOUT"`
	// comma separated in the environment
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"USERSDB_CORS_ALLOWED_ORIGINS" envSeparator:","`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"USERSDB_DB_DRIVER"`
	// URL wins over the discrete connection fields when set.
	URL                string `yaml:"url" env:"DATABASE_URL"`
	User               string `yaml:"user" env:"USERSDB_DB_USER"`
	Password           string `yaml:"password" env:"USERSDB_DB_PASSWORD"`
	Host               string `yaml:"host" env:"USERSDB_DB_HOST"`
	Port               int    `yaml:"port" env:"USERSDB_DB_PORT"`
	Database           string `yaml:"database" env:"USERSDB_DB_NAME"`
	SSLMode            string `yaml:"sslmode" env:"USERSDB_DB_SSLMODE"`
	ConnectTimeout     int    `yaml:"connect_timeout" env:"USERSDB_DB_CONNECT_TIMEOUT"`
	MaxOpenConnections int    `yaml:"max_open_connections" env:"USERSDB_DB_MAX_OPEN_CONNECTIONS"`
	DeleteMode         string `yaml:"delete_mode" env:"USERSDB_DELETE_MODE"`
	AutoMigrate        bool   `yaml:"auto_migrate" env:"USERSDB_AUTO_MIGRATE"`
}

// DSN returns the connection string handed to the driver as is.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	if c.Driver == DriverSQLite {
		return "file:usersdb.sqlite"
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
		sslMode,
	)
}

// ConnectTimeoutDuration bounds the initial ping of a freshly opened pool.
func (c DatabaseConfig) ConnectTimeoutDuration() time.Duration {
	if c.ConnectTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ConnectTimeout) * time.Second
}

func (c DatabaseConfig) CascadeDeletes() bool {
	return c.DeleteMode == DeleteModeCascade
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	switch c.Database.DeleteMode {
	case DeleteModeRestrict, DeleteModeCascade:
	default:
		return fmt.Errorf("unsupported delete_mode: %q (want %q or %q)", c.Database.DeleteMode, DeleteModeRestrict, DeleteModeCascade)
	}

	if c.Database.MaxOpenConnections < 0 {
		return fmt.Errorf("max_open_connections cannot be negative")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port out of range: %d", c.HTTP.Port)
	}

	return nil
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
var defaultConfig = Config{
	Log: LogConfig{
		Level:  "info",
		Format: "json",
	},
	HTTP: HTTPConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30,
	},
	Database: DatabaseConfig{
		Driver:             DriverPostgres,
		User:               "postgres",
		Password:           "postgres",
		Host:               "localhost",
		Port:               5432,
		Database:           "usersdb",
		SSLMode:            "disable",
		ConnectTimeout:     10,
		MaxOpenConnections: 10,
		DeleteMode:         DeleteModeRestrict,
		AutoMigrate:        true,
	},
}

// Default returns a copy of the built-in defaults.
func Default() *Config {
	cfg := defaultConfig
	cfg.HTTP.CORSAllowedOrigins = nil
	return &cfg
}

// Load loads the configuration following proper precedence: defaults → config file → environment variables.
// An empty path falls back to USERSDB_CONFIG_FILE and then usersdb.yaml; a missing default file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv("USERSDB_CONFIG_FILE")
		explicit = path != ""
	}
	if path == "" {
		path = defaultConfigFile
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = Default()
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	// Merge YAML values over defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnvOverrides overrides cfg with any of the tagged environment variables that are set.
func ApplyEnvOverrides(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}
