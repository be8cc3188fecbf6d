package capture

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigFromEnv builds a Config from environment variables:
//
//	KIROKU_API_KEY        required
//	KIROKU_HOST           ingestion endpoint root URL
//	KIROKU_FLUSH_AT       batch size trigger
//	KIROKU_FLUSH_INTERVAL partial-batch deadline (Go duration)
//	KIROKU_QUEUE_SIZE     in-memory queue bound
//
// Callers that want .env support should run godotenv.Load() first.
func ConfigFromEnv() (Config, error) {
	apiKey := envStr("KIROKU_API_KEY", "")
	if apiKey == "" {
		return Config{}, fmt.Errorf("capture: KIROKU_API_KEY is required")
	}
	return Config{
		APIKey:        apiKey,
		Host:          envStr("KIROKU_HOST", defaultHost),
		FlushAt:       envInt("KIROKU_FLUSH_AT", defaultFlushAt),
		FlushInterval: envDuration("KIROKU_FLUSH_INTERVAL", defaultFlushInterval),
		QueueSize:     envInt("KIROKU_QUEUE_SIZE", defaultQueueSize),
	}, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
