package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_DRIVER", "CACHE_BACKEND", "KAFKA_BROKERS", "IMPORT_FILE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "mongo", cfg.Store.Driver)
	assert.Equal(t, 10*time.Second, cfg.Store.Timeout)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 60*time.Second, cfg.Cache.DefaultTTL)
	assert.Equal(t, 120*time.Second, cfg.Cache.SweepInterval)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "data.csv", cfg.Batch.ImportFile)
	assert.Equal(t, 1000, cfg.Batch.BatchSize)
	assert.Equal(t, 5000, cfg.Batch.RetentionKeep)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CACHE_DEFAULT_TTL_SECONDS", "5")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 5*time.Second, cfg.Cache.DefaultTTL)
}
