package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/config"
)

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(`
gateway:
  version: "v7"
  storage: "memory"
  seed_assets: ["/a.css", "/b.js"]
  allowed_hosts: ["cdn.shop.example"]
inventory:
  low_stock_threshold: 3
`), 0o600)
	require.NoError(t, err)

	t.Setenv("STOREFRONT_HTTP_ADDR", ":9999")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "v7", cfg.Gateway.Version)
	require.Equal(t, "memory", cfg.Gateway.Storage)
	require.Equal(t, []string{"/a.css", "/b.js"}, cfg.Gateway.SeedAssets)
	require.Equal(t, []string{"cdn.shop.example"}, cfg.Gateway.AllowedHosts)
	require.Equal(t, 3, cfg.Inventory.LowStockThreshold)
	require.Equal(t, ":9999", cfg.HTTP.Addr)
	// untouched keys keep defaults
	require.Equal(t, 10*time.Second, cfg.Gateway.FetchTimeout)
	require.Equal(t, "orders.created", cfg.Kafka.OrderTopic)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.Default().Gateway, cfg.Gateway)
	require.Equal(t, 5, cfg.Inventory.LowStockThreshold)
}

func TestValidate(t *testing.T) {
	t.Run("bad_storage", func(t *testing.T) {
		cfg := config.Default()
		cfg.Gateway.Storage = "disk"
		require.Error(t, cfg.Validate())
	})

	t.Run("empty_version", func(t *testing.T) {
		cfg := config.Default()
		cfg.Gateway.Version = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("default_is_valid", func(t *testing.T) {
		require.NoError(t, config.Default().Validate())
	})
}
