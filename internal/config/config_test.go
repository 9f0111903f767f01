package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://localhost:8081", "http://localhost:19006"}, cfg.HTTP.CORSAllowedOrigins)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "owlrd", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "http://localhost:8080", cfg.AdminAPI.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.AdminAPI.Timeout)
	assert.Equal(t, "hms.listview.", cfg.ListView.KeyPrefix)
	assert.Equal(t, "redis", cfg.ListView.PreferencesBackend)
	assert.Equal(t, 10*time.Second, cfg.ListView.ProbeInterval)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("REDIS_ADDR", "test-redis:6380")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ADMIN_API_BASE_URL", "http://admin.local/")
	t.Setenv("PREFERENCES_BACKEND", "Postgres")
	t.Setenv("CONNECTIVITY_PROBE_INTERVAL", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , https://b.example ")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "http://admin.local", cfg.AdminAPI.BaseURL)
	assert.Equal(t, "postgres", cfg.ListView.PreferencesBackend)
	assert.Equal(t, 3*time.Second, cfg.ListView.ProbeInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSAllowedOrigins)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("http:\n  addr: \":7000\"\nlistview:\n  key_prefix: \"ward.\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, "ward.", cfg.ListView.KeyPrefix)
}

func TestLoad_PostgresBackendRequiresDB(t *testing.T) {
	t.Setenv("PREFERENCES_BACKEND", "postgres")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_ENABLED")
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("PREFERENCES_BACKEND", "etcd")

	_, err := Load("")
	require.Error(t, err)
}
