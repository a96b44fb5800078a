package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	assert.Equal(t, 3, cfg.Inventory.ExpiringSoonDays)
	assert.Equal(t, 10, cfg.Inventory.LowStockThreshold)
	assert.Equal(t, 5*time.Second, cfg.Inventory.LockTTL)
	assert.Equal(t, 2*time.Second, cfg.Inventory.RefreshInterval)
	assert.Equal(t, 30*time.Second, cfg.Search.RefreshInterval)
	assert.Equal(t, 5, cfg.Search.TopQueriesLimit)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EXPIRING_SOON_DAYS", "5")
	t.Setenv("LOW_STOCK_THRESHOLD", "not-a-number")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CATALOG_CACHE_TTL", "90s")

	cfg := LoadEnv()

	assert.Equal(t, 5, cfg.Inventory.ExpiringSoonDays)
	assert.Equal(t, 10, cfg.Inventory.LowStockThreshold, "invalid values fall back to defaults")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 90*time.Second, cfg.Inventory.CatalogCacheTTL)
}
