package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":50051", cfg.GRPCAddr)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Empty(t, cfg.PostgresDSN)
	assert.True(t, cfg.PostgresAutoMigrate)
	assert.Equal(t, "furniCart", cfg.CartKey)
	assert.Empty(t, cfg.KafkaBrokers, "kafka must be opt-in")
	assert.Equal(t, "furnicart", cfg.KafkaTopicPrefix)
}

func TestDefaultConfig_IsValueType(t *testing.T) {
	original := DefaultConfig()
	changed := original
	changed.CartKey = "shopCart"

	assert.Equal(t, "furniCart", original.CartKey)
	assert.NotEqual(t, original, changed)
	assert.Equal(t, DefaultConfig(), original)
}
