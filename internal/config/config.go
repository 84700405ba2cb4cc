package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded once at startup.
type Config struct {
	Environment string

	Server    ServerConfig
	Logging   LoggingConfig
	Engine    EngineConfig
	Tracking  TrackingConfig
	Generator GeneratorConfig
	Kafka     KafkaConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

// EngineConfig bounds the campaign detection engine.
type EngineConfig struct {
	MaxHistory            int
	MinClusterSize        int
	MinEventsForDetection int
	ClusterEps            float64
}

// TrackingConfig bounds the per-IP request tracker.
type TrackingConfig struct {
	MaxTrackedIPs    int
	BotThreshold     int
	TrackerShards    int
	BotWindowSeconds int
}

type GeneratorConfig struct {
	Enabled     bool
	MinInterval time.Duration
	MaxInterval time.Duration
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	EventTopic    string
	CampaignTopic string
	GroupID       string
}

// LoadConfig reads .env (if present) then environment variables with defaults.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8000),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Engine: EngineConfig{
			MaxHistory:            getEnvInt("ENGINE_MAX_HISTORY", 5000),
			MinClusterSize:        getEnvInt("ENGINE_MIN_CLUSTER_SIZE", 3),
			MinEventsForDetection: getEnvInt("ENGINE_MIN_EVENTS_FOR_DETECTION", 50),
			ClusterEps:            getEnvFloat("ENGINE_CLUSTER_EPS", 0.5),
		},
		Tracking: TrackingConfig{
			MaxTrackedIPs:    getEnvInt("TRACKING_MAX_IPS", 10000),
			BotThreshold:     getEnvInt("TRACKING_BOT_THRESHOLD", 100),
			TrackerShards:    getEnvInt("TRACKING_SHARDS", 16),
			BotWindowSeconds: getEnvInt("TRACKING_BOT_WINDOW_SECONDS", 60),
		},
		Generator: GeneratorConfig{
			Enabled:     getEnvBool("GENERATOR_ENABLED", true),
			MinInterval: getEnvDuration("GENERATOR_MIN_INTERVAL", 2*time.Second),
			MaxInterval: getEnvDuration("GENERATOR_MAX_INTERVAL", 5*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:       getEnvBool("KAFKA_ENABLED", false),
			Brokers:       getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			EventTopic:    getEnv("KAFKA_EVENT_TOPIC", "attack-events"),
			CampaignTopic: getEnv("KAFKA_CAMPAIGN_TOPIC", "detected-campaigns"),
			GroupID:       getEnv("KAFKA_GROUP_ID", "threat-intel-service"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
