package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-shop-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := config.New()

	require.Equal(t, "http://localhost:8080", c.GetAPIBaseURL())
	require.Equal(t, "/login", c.GetLoginPath())
	require.Equal(t, 20*time.Second, c.GetRequestTimeout())
	require.Equal(t, 10*time.Second, c.GetRefreshTimeout())
	require.Equal(t, config.StorageBackendSQLite, c.GetStorageBackend())
	require.Equal(t, filepath.Join("./data", "local.db"), c.GetStoragePath())
	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenTTL())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://shop.example.com/")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "prod")

	c := config.New()

	require.Equal(t, "https://shop.example.com", c.GetAPIBaseURL())
	require.Equal(t, 5*time.Second, c.GetRequestTimeout())
	require.Equal(t, config.StorageBackendMemory, c.GetStorageBackend())
	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "PROD", c.GetEnv())
}

func TestUnknownStorageBackendFallsBackToSQLite(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "redis")
	require.Equal(t, config.StorageBackendSQLite, config.New().GetStorageBackend())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("API_BASE_URL: http://api.internal:9000\nKEEPALIVE_MARGIN: 30s\n"), 0o600))

	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://api.internal:9000", c.GetAPIBaseURL())
	require.Equal(t, 30*time.Second, c.GetKeepAliveMargin())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
