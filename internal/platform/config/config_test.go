package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("contact_service_test", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 15*time.Second, cfg.HTTPReadHeaderTimeout)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_HTTP_PORT", "9090")
	t.Setenv("APP_STORAGE_DRIVER", "memory")
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("APP_RUN_MIGRATIONS", "false")

	cfg, err := Load("contact_service_test", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.RunMigrations)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("LOG_LEVEL: debug\nLOG_FORMAT: text\nDB_MAX_CONNS: 4\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.defaults.yaml"), content, 0o600))

	cfg, err := Load("contact_service_test", dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, int32(4), cfg.DBMaxConns)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("APP_STORAGE_DRIVER", "sqlite")

	_, err := Load("contact_service_test", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestValidate_PostgresNeedsDSN(t *testing.T) {
	cfg := &Config{StorageDriver: StorageDriverPostgres, HTTPPort: 8080}
	assert.Error(t, cfg.Validate())

	cfg.PostgresDSN = "postgres://localhost/agenda"
	assert.NoError(t, cfg.Validate())
}
