package config_test

import (
	"testing"

	"fleet-sync/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "fleet_sync", cfg.Database.Name)
	assert.Equal(t, "fleet-sync", cfg.Storage.Bucket)
	assert.Equal(t, 4, cfg.Sync.MaxAttempts)
	assert.Equal(t, 4, cfg.Sync.Concurrency)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("CATALOG_BASE_URL", "https://api.example.com")
	t.Setenv("SYNC_CLOSE_MISSING", "true")

	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "https://api.example.com", cfg.Catalog.BaseURL)
	assert.True(t, cfg.Sync.CloseMissing)
}
