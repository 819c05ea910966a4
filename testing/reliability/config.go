package reliability

import (
	"os"
	"strconv"
	"time"
)

// ReliabilityConfig holds configuration for reliability testing
type ReliabilityConfig struct {
	Level         string        // "basic" or "stress"
	Duration      time.Duration // Test duration for stress tests
	MaxGoroutines int           // Maximum goroutines for concurrent tests
	EventNames    int           // Unique event names for registry tests
}

// getReliabilityConfig reads configuration from environment variables
func getReliabilityConfig() ReliabilityConfig {
	return ReliabilityConfig{
		Level:         getEnv("CLEPSYDRA_RELIABILITY_LEVEL", ""),
		Duration:      parseDuration(getEnv("CLEPSYDRA_RELIABILITY_DURATION", "5s")),
		MaxGoroutines: parseInt(getEnv("CLEPSYDRA_RELIABILITY_MAX_GOROUTINES", "100"), 100),
		EventNames:    parseInt(getEnv("CLEPSYDRA_RELIABILITY_EVENT_NAMES", "100000"), 100000),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, fallback int) int {
	if value, err := strconv.Atoi(s); err == nil && value > 0 {
		return value
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	if duration, err := time.ParseDuration(s); err == nil {
		return duration
	}
	return 5 * time.Second
}
