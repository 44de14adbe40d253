package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestParseServerJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"http_addr":               ":9999",
		"database_dsn":            "postgres://h/db",
		"sqlite_path":             "from-json.db",
		"secret_key":              "jsonsecret",
		"token_validity_duration": "30m",
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &ServerConfig{}
		parseServerJson(cfg)

		assert.Equal(t, ":9999", cfg.HTTPAddr)
		assert.Equal(t, "postgres://h/db", cfg.DatabaseDSN)
		assert.Equal(t, "from-json.db", cfg.SQLitePath)
		assert.Equal(t, "jsonsecret", cfg.SecretKey)
		assert.Equal(t, 30*time.Minute, cfg.TokenValidityDuration)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		partial := writeTempJSON(t, map[string]any{"http_addr": ":7070"})
		os.Args = []string{"testbin", "-config", partial}

		cfg := &ServerConfig{}
		cfg.LoadDefaults()
		parseServerJson(cfg)

		assert.Equal(t, ":7070", cfg.HTTPAddr)
		assert.Equal(t, "dockeep.db", cfg.SQLitePath)
		assert.Equal(t, "secretKey", cfg.SecretKey)
		assert.Equal(t, 24*time.Hour, cfg.TokenValidityDuration)
	})

	t.Run("no flag means no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &ServerConfig{HTTPAddr: ":1234"}
		parseServerJson(cfg)
		assert.Equal(t, ":1234", cfg.HTTPAddr)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))
		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseServerJson(&ServerConfig{}) })
	})
}

func TestParseClientJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"server_url":      "http://srv:8080",
		"cache_path":      "/tmp/mirror.json",
		"request_timeout": "5s",
	})
	os.Args = []string{"testbin", "-c", path}

	cfg := &ClientConfig{}
	parseClientJson(cfg)

	assert.Equal(t, "http://srv:8080", cfg.ServerURL)
	assert.Equal(t, "/tmp/mirror.json", cfg.CachePath)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestParseClientJsonPartialFileKeepsDefaults(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{"server_url": "http://srv:9090"})
	os.Args = []string{"testbin", "-c", path}

	cfg := &ClientConfig{}
	cfg.LoadDefaults()
	parseClientJson(cfg)

	assert.Equal(t, "http://srv:9090", cfg.ServerURL)
	assert.Equal(t, "dockeep-cache.json", cfg.CachePath)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}
