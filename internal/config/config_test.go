package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJWTSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "streck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9090
database:
  path: "/tmp/streck-test.db"
  max_open_conns: 4
  busy_timeout: 2
  migrate: false
auth:
  jwt_secret: "`+validJWTSecret+`"
  issuer: "test"
  expire_minutes: 60
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, "/tmp/streck-test.db", cfg.Database.Path)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.Database.Migrate)
	assert.Equal(t, 2*time.Second, cfg.GetBusyTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetConnectTimeout(), "unset keys keep defaults")
	assert.Equal(t, time.Hour, cfg.GetTokenTTL())
	assert.Equal(t, "test", cfg.Auth.Issuer)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, cfg.RequireAuth())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	_, err := Load(writeConfig(t, "server:\n  port: 70000\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"no connections", func(c *Config) { c.Database.MaxOpenConns = 0 }, "max_open_conns"},
		{"zero connect timeout", func(c *Config) { c.Database.ConnectTimeout = 0 }, "timeouts"},
		{"zero token lifetime", func(c *Config) { c.Auth.ExpireMinutes = 0 }, "expire_minutes"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }, "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_RequireAuth(t *testing.T) {
	cfg := defaultConfig()
	assert.Error(t, cfg.RequireAuth())

	cfg.Auth.JWTSecret = "short"
	assert.Error(t, cfg.RequireAuth())

	cfg.Auth.JWTSecret = validJWTSecret
	assert.NoError(t, cfg.RequireAuth())
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("STRECK_SERVER_HOST", "192.168.1.1")
	t.Setenv("STRECK_SERVER_PORT", "9191")
	t.Setenv("STRECK_DATABASE_PATH", "/custom/path.db")
	t.Setenv("STRECK_DATABASE_MIGRATE", "false")
	t.Setenv("STRECK_JWT_SECRET", "jwt-secret")
	t.Setenv("STRECK_JWT_ISSUER", "issuer")
	t.Setenv("STRECK_JWT_EXPIRE_MINUTES", "15")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := defaultConfig()
	require.NoError(t, applyEnvOverrides(cfg))

	assert.Equal(t, "192.168.1.1", cfg.Server.Host)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "/custom/path.db", cfg.Database.Path)
	assert.False(t, cfg.Database.Migrate)
	assert.Equal(t, "jwt-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "issuer", cfg.Auth.Issuer)
	assert.Equal(t, 15, cfg.Auth.ExpireMinutes)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestApplyEnvOverrides_InvalidNumber(t *testing.T) {
	t.Setenv("STRECK_SERVER_PORT", "eighty")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRECK_SERVER_PORT")
}
