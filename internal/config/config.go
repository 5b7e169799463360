// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL    string `env:"DATABASE_URL,required"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	// Cache (Redis)
	RedisURL      string `env:"REDIS_URL,required"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. A zero WriteTimeout leaves websocket sessions and
	// large export bodies unbounded.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"0s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Import sessions
	ImportConfirmTimeout  time.Duration `env:"IMPORT_CONFIRM_TIMEOUT" envDefault:"2m"`
	ImportMaxMessageBytes int64         `env:"IMPORT_MAX_MESSAGE_BYTES" envDefault:"33554432"`

	// Rate limiting (per client IP on /export)
	RateLimitExportEnabled bool `env:"RATE_LIMIT_EXPORT_ENABLED" envDefault:"true"`
	RateLimitExportRPS     int  `env:"RATE_LIMIT_EXPORT_RPS" envDefault:"5"`
	RateLimitExportBurst   int  `env:"RATE_LIMIT_EXPORT_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Mirror audit entries to the Redis stream
	AuditStreamEnabled bool `env:"AUDIT_STREAM_ENABLED" envDefault:"true"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	if c.RateLimitExportEnabled && c.RateLimitExportRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_EXPORT_RPS must be positive when rate limiting is enabled")
	}
	if c.ImportConfirmTimeout <= 0 {
		return fmt.Errorf("IMPORT_CONFIRM_TIMEOUT must be positive")
	}
	if c.ImportMaxMessageBytes < 0 {
		return fmt.Errorf("IMPORT_MAX_MESSAGE_BYTES must not be negative")
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
