package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("KAFKA_ENABLED", "")
	t.Setenv("REPORT_SEPARATE_DIRECT_SALE_REFUNDS", "")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/tickets.db", cfg.Database.SQLitePath)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Redis.ShortTTL)
	assert.Equal(t, time.Hour, cfg.Redis.LongTTL)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "ledger.import.completed", cfg.Kafka.ImportTopic)
	assert.Equal(t, 1000, cfg.Import.BatchSize)
	assert.True(t, cfg.Report.SeparateDirectSaleRefunds)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CACHE_SHORT_TTL", "30s")
	t.Setenv("IMPORT_BATCH_SIZE", "not-a-number")
	t.Setenv("REPORT_SEPARATE_DIRECT_SALE_REFUNDS", "false")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Redis.ShortTTL)
	assert.Equal(t, 1000, cfg.Import.BatchSize)
	assert.False(t, cfg.Report.SeparateDirectSaleRefunds)
}
