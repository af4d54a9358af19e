// Package config loads the streck configuration.
//
// Values come from hardcoded defaults, then an optional YAML file, then
// environment variables of the form STRECK_SECTION_KEY, and are validated
// last.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/streck/pkg/logging"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// ShutdownTimeout is how long in-flight requests get on shutdown, in seconds.
	ShutdownTimeout int `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`

	// BusyTimeout and ConnectTimeout are in seconds.
	BusyTimeout    int `yaml:"busy_timeout"`
	ConnectTimeout int `yaml:"connect_timeout"`

	// Migrate creates missing tables on startup.
	Migrate bool `yaml:"migrate"`
}

// AuthConfig contains session token settings.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	Issuer        string `yaml:"issuer"`
	ExpireMinutes int    `yaml:"expire_minutes"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

const minJWTSecretLength = 32

// Load reads configuration from a YAML file with environment variable overrides.
// A missing file is not an error: defaults and environment apply.
//
// Parameters:
//   - path: Path to the YAML configuration file, may be empty
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read or parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Path:           "./data/streck.db",
			MaxOpenConns:   1,
			BusyTimeout:    5,
			ConnectTimeout: 10,
			Migrate:        true,
		},
		Auth: AuthConfig{
			Issuer:        "streck",
			ExpireMinutes: 720,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("STRECK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("STRECK_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STRECK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("STRECK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("STRECK_DATABASE_MIGRATE"); v != "" {
		migrate, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STRECK_DATABASE_MIGRATE: %w", err)
		}
		cfg.Database.Migrate = migrate
	}

	if v := os.Getenv("STRECK_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("STRECK_JWT_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("STRECK_JWT_EXPIRE_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STRECK_JWT_EXPIRE_MINUTES: %w", err)
		}
		cfg.Auth.ExpireMinutes = minutes
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// Validate checks the configuration for errors.
// The JWT secret is checked separately by RequireAuth.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout < 1 {
		errs = append(errs, "server.shutdown_timeout must be at least 1")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, "database.max_open_conns must be at least 1")
	}
	if c.Database.BusyTimeout < 0 || c.Database.ConnectTimeout < 1 {
		errs = append(errs, "database timeouts must be positive")
	}
	if c.Auth.ExpireMinutes < 1 {
		errs = append(errs, "auth.expire_minutes must be at least 1")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RequireAuth checks the settings needed to sign and verify tokens.
func (c *Config) RequireAuth() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (set STRECK_JWT_SECRET environment variable)")
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", minJWTSecretLength)
	}
	return nil
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetShutdownTimeout returns the server shutdown timeout as a Duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}

// GetBusyTimeout returns the SQLite busy timeout as a Duration.
func (c *Config) GetBusyTimeout() time.Duration {
	return time.Duration(c.Database.BusyTimeout) * time.Second
}

// GetConnectTimeout returns the database connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Database.ConnectTimeout) * time.Second
}

// GetTokenTTL returns the lifetime of issued session tokens.
func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.Auth.ExpireMinutes) * time.Minute
}
