// Package config handles configuration loading and management
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the harness configuration.
type Config struct {
	MiddlewareHost string
	MiddlewarePort int
	Username       string
	Password       string
	SuitesDir      string
	BulkCount      int
	CallTimeout    time.Duration
	BootPool       string
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if the file doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		MiddlewareHost: getEnv("MIDDLEWARE_HOST", "localhost"),
		Username:       getEnv("MIDDLEWARE_USERNAME", "root"),
		Password:       getEnv("MIDDLEWARE_PASSWORD", ""),
		SuitesDir:      getEnv("SUITES_DIR", DefaultSuitesDir),
		BootPool:       getEnv("BOOT_POOL", DefaultBootPool),
	}

	port, err := strconv.Atoi(getEnv("MIDDLEWARE_PORT", "5000"))
	if err != nil {
		return nil, fmt.Errorf("invalid MIDDLEWARE_PORT: %w", err)
	}
	cfg.MiddlewarePort = port

	bulkCount, err := strconv.Atoi(getEnv("BULK_COUNT", strconv.Itoa(DefaultBulkCount)))
	if err != nil {
		return nil, fmt.Errorf("invalid BULK_COUNT: %w", err)
	}
	if bulkCount < 0 {
		return nil, fmt.Errorf("invalid BULK_COUNT: must not be negative, got %d", bulkCount) //nolint:err113 // Include value for debugging
	}
	cfg.BulkCount = bulkCount

	callTimeout, err := time.ParseDuration(getEnv("CALL_TIMEOUT", DefaultCallTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid CALL_TIMEOUT: %w", err)
	}
	cfg.CallTimeout = callTimeout

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) String() string {
	passwordDisplay := "(not set)"
	if c.Password != "" {
		passwordDisplay = "********"
	}

	return fmt.Sprintf(`Current Configuration:
======================
Middleware Host:   %s
Middleware Port:   %d
Username:          %s
Password:          %s
Suites Directory:  %s
Boot Pool:         %s
Bulk Count:        %d
Call Timeout:      %s`,
		c.MiddlewareHost,
		c.MiddlewarePort,
		c.Username,
		passwordDisplay,
		c.SuitesDir,
		c.BootPool,
		c.BulkCount,
		c.CallTimeout,
	)
}
