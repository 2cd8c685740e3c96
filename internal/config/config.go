// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Contract defaults. Environment variables may tune them for operational
// reasons; the defaults are the documented behavior.
const (
	DefaultPort           = 8080
	DefaultBackendURL     = "http://localhost:8000"
	DefaultStreamURL      = "ws://localhost:8000/ws/transactions"
	DefaultPollInterval   = 30 * time.Second
	DefaultReconnectDelay = 2 * time.Second
	DefaultRingCapacity   = 200
)

// Config holds application configuration
type Config struct {
	Port       int    `validate:"min=1,max=65535"`
	BackendURL string `validate:"required,url"`
	StreamURL  string `validate:"required,url"`
	LogLevel   string `validate:"oneof=debug info warn error"`
	LogPretty  bool
	DevMode    bool

	// Timing and sizing knobs for the session machinery.
	PollInterval   time.Duration
	ReconnectDelay time.Duration
	RingCapacity   int `validate:"min=1"`
}

// Load reads configuration from environment variables. A .env file in
// the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnvAsInt("FRAUDLENS_PORT", DefaultPort),
		BackendURL:     getEnv("FRAUDLENS_BACKEND_URL", DefaultBackendURL),
		StreamURL:      getEnv("FRAUDLENS_STREAM_URL", DefaultStreamURL),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getEnvAsBool("LOG_PRETTY", false),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		PollInterval:   getEnvAsDuration("FRAUDLENS_POLL_INTERVAL", DefaultPollInterval),
		ReconnectDelay: getEnvAsDuration("FRAUDLENS_RECONNECT_DELAY", DefaultReconnectDelay),
		RingCapacity:   getEnvAsInt("FRAUDLENS_RING_CAPACITY", DefaultRingCapacity),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Durations are validated by hand; validator compares them as raw
	// nanosecond counts, which reads poorly in tags.
	if c.PollInterval < time.Second {
		return fmt.Errorf("poll interval %s is below the 1s minimum", c.PollInterval)
	}
	if c.ReconnectDelay < 100*time.Millisecond {
		return fmt.Errorf("reconnect delay %s is below the 100ms minimum", c.ReconnectDelay)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
