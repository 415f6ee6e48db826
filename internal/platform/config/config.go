// Package config loads the process configuration from the environment. A
// .env file, when present, seeds the environment for local development;
// real deployments set variables directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "crtracker/pkg/platform/strings"
)

// Config is the full process configuration. Empty Postgres, Redis and Kafka
// settings mean the corresponding backend is not configured and main falls
// back to in-memory implementations.
type Config struct {
	Addr     string
	LogLevel string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig

	EventQueueSize int
}

type PostgresConfig struct {
	URL string
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers  []string
	ClientID string
}

// Configured reports whether a Kafka connection should be attempted.
func (k KafkaConfig) Configured() bool { return len(k.Brokers) > 0 }

// Load reads .env if present, then builds the config from the environment.
func Load() (Config, error) {
	// Missing .env is the normal case outside local dev.
	_ = godotenv.Load()

	cfg := Config{
		Addr:     envOr("CRTRACKER_ADDR", ":8080"),
		LogLevel: envOr("CRTRACKER_LOG_LEVEL", "info"),
		Postgres: PostgresConfig{
			URL: os.Getenv("CRTRACKER_POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("CRTRACKER_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			ClientID: envOr("CRTRACKER_KAFKA_CLIENT_ID", "crtracker"),
		},
	}

	if brokers := os.Getenv("CRTRACKER_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = pstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}

	queueSize, err := envIntOr("CRTRACKER_EVENT_QUEUE_SIZE", 256)
	if err != nil {
		return Config{}, err
	}
	cfg.EventQueueSize = queueSize

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
