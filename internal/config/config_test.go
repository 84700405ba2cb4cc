package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "0.0.0.0:8000", cfg.GetServerAddress())

	assert.Equal(t, 5000, cfg.Engine.MaxHistory)
	assert.Equal(t, 3, cfg.Engine.MinClusterSize)
	assert.Equal(t, 50, cfg.Engine.MinEventsForDetection)
	assert.Equal(t, 0.5, cfg.Engine.ClusterEps)

	assert.Equal(t, 10000, cfg.Tracking.MaxTrackedIPs)
	assert.Equal(t, 100, cfg.Tracking.BotThreshold)
	assert.Equal(t, 16, cfg.Tracking.TrackerShards)
	assert.Equal(t, 60, cfg.Tracking.BotWindowSeconds)

	assert.True(t, cfg.Generator.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Generator.MinInterval)
	assert.Equal(t, 5*time.Second, cfg.Generator.MaxInterval)

	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "attack-events", cfg.Kafka.EventTopic)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENGINE_MAX_HISTORY", "250")
	t.Setenv("ENGINE_CLUSTER_EPS", "0.75")
	t.Setenv("GENERATOR_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg := LoadConfig()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 250, cfg.Engine.MaxHistory)
	assert.Equal(t, 0.75, cfg.Engine.ClusterEps)
	assert.False(t, cfg.Generator.Enabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadConfigIgnoresInvalidValues(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("ENGINE_CLUSTER_EPS", "wide")
	t.Setenv("GENERATOR_MIN_INTERVAL", "soon")

	cfg := LoadConfig()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 0.5, cfg.Engine.ClusterEps)
	assert.Equal(t, 2*time.Second, cfg.Generator.MinInterval)
}
