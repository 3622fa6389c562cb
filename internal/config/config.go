package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/james-see/rollgen/internal/logger"
	"github.com/joho/godotenv"
)

const (
	DefaultBackendURL      = "http://127.0.0.1:5000"
	DefaultPollInterval    = 2 * time.Second
	DefaultPollMaxAttempts = 15
	DefaultHTTPTimeout     = 10 * time.Second
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Generation backend
	BackendURL  string
	HTTPTimeout time.Duration
	Framing     string // "legacy" or "json"

	// Job polling
	PollInterval    time.Duration
	PollMaxAttempts int

	// Observability
	SentryDSN string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to read .env file", logger.Fields{"error": err.Error()})
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() *Config {
	return &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		Port:            getEnv("PORT", "8080"),
		BackendURL:      strings.TrimRight(getEnv("ROLLGEN_BACKEND_URL", DefaultBackendURL), "/"),
		HTTPTimeout:     getDuration("ROLLGEN_HTTP_TIMEOUT", DefaultHTTPTimeout),
		Framing:         strings.ToLower(getEnv("ROLLGEN_FRAMING", "legacy")),
		PollInterval:    getDuration("ROLLGEN_POLL_INTERVAL", DefaultPollInterval),
		PollMaxAttempts: getInt("ROLLGEN_POLL_MAX_ATTEMPTS", DefaultPollMaxAttempts),
		SentryDSN:       getEnv("SENTRY_DSN", ""),
	}
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn("Ignoring invalid setting", logger.Fields{"key": key, "value": value, "default": defaultValue})
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		logger.Warn("Ignoring invalid setting", logger.Fields{"key": key, "value": value, "default": defaultValue})
		return defaultValue
	}
	return n
}
