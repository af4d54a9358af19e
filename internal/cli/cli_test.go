package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/streck/internal/auth"
	"github.com/mmynk/streck/internal/config"
	"github.com/mmynk/streck/internal/storage/sqlite"
)

const (
	testGroup  = "3a8e2c1f-5b7d-4e9a-8c6b-1d2f3e4a5b60"
	testUser   = "3a8e2c1f-5b7d-4e9a-8c6b-1d2f3e4a5b61"
	testSecret = "0123456789abcdef0123456789abcdef"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Database.Path = filepath.Join(t.TempDir(), "streck.db")
	cfg.Auth.JWTSecret = testSecret
	return cfg
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "streck", cmd.Use)

	for _, name := range []string{"serve", "check", "token"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}

func TestTokenCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	tokenCmd, _, err := cmd.Find([]string{"token"})
	require.NoError(t, err)

	for _, name := range []string{"group", "user"} {
		flag := tokenCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "true", flag.Annotations["cobra_annotation_bash_completion_one_required_flag"][0])
	}
}

func TestRunCheck(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		var out bytes.Buffer
		cfg := testConfig(t)

		require.NoError(t, runCheck(context.Background(), cfg, &out))
		assert.Contains(t, out.String(), "ready")
	})

	t.Run("missing tables", func(t *testing.T) {
		var out bytes.Buffer
		cfg := testConfig(t)
		cfg.Database.Migrate = false

		err := runCheck(context.Background(), cfg, &out)
		require.Error(t, err)
		assert.Contains(t, out.String(), "invalid")
		assert.Contains(t, out.String(), "missing: groups")
	})
}

func TestRunToken(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	require.NoError(t, runToken(context.Background(), cfg, &TokenOptions{GroupID: testGroup, UserID: testUser}, &out))

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Hour)
	claims, err := tokens.Validate(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, testUser, claims.Subject)
	assert.Positive(t, claims.UserID)
	assert.Positive(t, claims.GroupID)

	t.Run("requires a secret", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Auth.JWTSecret = ""
		assert.Error(t, runToken(context.Background(), cfg, &TokenOptions{GroupID: testGroup, UserID: testUser}, io.Discard))
	})

	t.Run("rejects malformed ids", func(t *testing.T) {
		assert.Error(t, runToken(context.Background(), cfg, &TokenOptions{GroupID: "group", UserID: testUser}, io.Discard))
	})
}

func TestHandler(t *testing.T) {
	cfg := testConfig(t)
	reg := prometheus.NewRegistry()
	store := sqlite.New(databaseOptions(cfg, reg))
	t.Cleanup(func() { store.Close() })

	_, err := store.Manager().AwaitReady(context.Background())
	require.NoError(t, err)

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Hour)
	server := httptest.NewServer(newHandler(store, tokens, reg))
	t.Cleanup(server.Close)

	get := func(t *testing.T, path string) (int, string) {
		t.Helper()
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	t.Run("healthz", func(t *testing.T) {
		status, body := get(t, "/healthz")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ready\n", body)
	})

	t.Run("metrics", func(t *testing.T) {
		status, body := get(t, "/metrics")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "streck_db_connection_state")
	})

	t.Run("cors preflight", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, server.URL+"/streck.v1.LedgerService/GetUser", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestHealthHandlerNotReady(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Migrate = false
	manager := sqlite.Open(databaseOptions(cfg, nil))
	t.Cleanup(func() { manager.Shutdown() })
	<-manager.Done()

	rec := httptest.NewRecorder()
	healthHandler(manager)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "invalid\n", rec.Body.String())
}
