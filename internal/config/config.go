// Package config provides centralized configuration for the telemetry
// dashboard. Settings come from environment variables with sensible defaults
// and are validated on startup so a misconfigured deployment fails fast.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Upload  UploadConfig
	Session SessionConfig
	Data    DataConfig
	Rate    RateLimitConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// Addr returns the host:port the server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UploadConfig holds telemetry file upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed upload size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the number of validations allowed to run in parallel
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a validation slot
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"15s"`
}

// SessionConfig controls the in-memory session store.
type SessionConfig struct {
	// TTL is how long an untouched session is kept
	TTL time.Duration `env:"SESSION_TTL" default:"30m"`

	// SweepInterval is how often expired sessions are collected
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"1m"`
}

// DataConfig locates generator-produced sample files.
type DataConfig struct {
	// Dir is the directory watched for sample CSV files (default: ./data)
	Dir string `env:"DATA_DIR" default:"data"`
}

// RateLimitConfig controls the per-IP request limiter.
type RateLimitConfig struct {
	// Enabled toggles rate limiting
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// PerMinute is the allowed requests per IP per minute
	PerMinute int `env:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level: debug, info, warn, error
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format: text or json
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Validate checks settings that would only fail at an awkward moment later.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload max file size must be positive, got %d", c.Upload.MaxFileSize)
	}
	if c.Upload.MaxConcurrent <= 0 {
		return fmt.Errorf("upload max concurrent must be positive, got %d", c.Upload.MaxConcurrent)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %v", c.Session.TTL)
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	if c.Rate.Enabled && c.Rate.PerMinute <= 0 {
		return fmt.Errorf("rate limit per minute must be positive, got %d", c.Rate.PerMinute)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	return nil
}
