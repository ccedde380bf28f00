package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"finmate/internal/log"
)

// Backends selectable through DATA_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

var validBackends = []string{BackendSQLite, BackendPostgres, BackendMemory}

type Config struct {
	// HTTP Server
	HTTPAddr           string
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	RateLimitPerMinute int

	// Storage
	DataBackend string
	DatabaseURL string

	// SummaryCacheTTL caches summary endpoints; 0 disables
	SummaryCacheTTL time.Duration

	// AMQP change events; empty URL disables publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGIN", []string{"http://localhost:3000"}),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend: getEnv("DATA_BACKEND", BackendSQLite),
		DatabaseURL: getEnv("DATABASE_URL", "./data/finmate.db"),

		SummaryCacheTTL: getEnvDuration("SUMMARY_CACHE_TTL", 0),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finmate"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_events"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", log.FormatText),
	}
}

// Validate validates the configuration and returns every problem found at once.
func (c *Config) Validate() error {
	var errors []string

	if _, port, err := net.SplitHostPort(c.HTTPAddr); err != nil {
		errors = append(errors, fmt.Sprintf("invalid HTTP address '%s': must be host:port", c.HTTPAddr))
	} else if p, err := strconv.Atoi(port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", port))
	} else if p < 1 || p > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", p))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.DatabaseURL == "" {
			errors = append(errors, "database path cannot be empty when using sqlite backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if !strings.Contains(c.DatabaseURL, "=") {
			// lib/pq takes either a URL or a key=value connection string.
			if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
				errors = append(errors, "invalid postgres DATABASE_URL: must be a postgres:// URL or key=value connection string")
			}
		}
	}

	if len(c.CORSAllowedOrigins) == 0 {
		errors = append(errors, "at least one CORS allowed origin is required")
	}
	for _, origin := range c.CORSAllowedOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || (u.Path != "" && u.Path != "/") {
			errors = append(errors, fmt.Sprintf("invalid CORS origin '%s': must be scheme://host[:port]", origin))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if !log.ValidFormat(c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.RequestTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 100ms", c.RequestTimeout))
	}
	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	} else if c.ShutdownTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at most 5 minutes", c.ShutdownTimeout))
	}
	if c.SummaryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must be 0 (disabled) or positive", c.SummaryCacheTTL))
	}
	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be 0 (disabled) or positive", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// EventsEnabled reports whether change events should be published.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
