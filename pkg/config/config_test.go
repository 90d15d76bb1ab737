package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, time.Hour, cfg.Availability.SlotDuration)
	assert.Equal(t, 30*time.Minute, cfg.Availability.SlotStep)
	assert.Equal(t, 62, cfg.Availability.MaxRangeDays)
	assert.Equal(t, "UTC", cfg.Availability.DefaultTimezone)
	assert.Empty(t, cfg.Notifications.KafkaBrokers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENV", EnvProduction)
	t.Setenv("SLOT_DURATION", "30m")
	t.Setenv("AVAILABILITY_CACHE_TTL", "not-a-duration")
	t.Setenv("NOTIFY_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092 ,")
	t.Setenv("DEFAULT_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, 30*time.Minute, cfg.Availability.SlotDuration)
	assert.Equal(t, 2*time.Minute, cfg.Availability.CacheTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Notifications.KafkaBrokers)
	assert.Equal(t, "Europe/Berlin", cfg.Availability.DefaultTimezone)
}
