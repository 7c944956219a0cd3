package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"courtside-live/stream"
)

// Config holds all application configuration parameters.
type Config struct {
	DatabaseURL         string
	ServerPort          int
	StreamQueueCapacity int

	// Cloudflare R2 object storage for tournament logos. Optional: when
	// unset, logo upload endpoints are disabled.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// R2Configured reports whether all object storage settings are present.
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load reads configuration from environment variables. A .env file is
// loaded first when present; a missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	queueCapacity := stream.DefaultQueueCapacity
	if capStr := os.Getenv("STREAM_QUEUE_CAPACITY"); capStr != "" {
		queueCapacity, err = strconv.Atoi(capStr)
		if err != nil {
			return nil, fmt.Errorf("invalid STREAM_QUEUE_CAPACITY environment variable: %w", err)
		}
		if queueCapacity < 1 {
			return nil, fmt.Errorf("STREAM_QUEUE_CAPACITY must be positive, got %d", queueCapacity)
		}
	}

	return &Config{
		DatabaseURL:         dbURL,
		ServerPort:          port,
		StreamQueueCapacity: queueCapacity,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}, nil
}
