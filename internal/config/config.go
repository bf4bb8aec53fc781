package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // SIGHTLINE_DATABASE_URL (required)
	HTTPAddr    string // SIGHTLINE_HTTP_ADDR (default ":8080")
	NATSURL     string // SIGHTLINE_NATS_URL (optional, empty = no push channel)
	AuthToken   string // SIGHTLINE_AUTH_TOKEN (optional, empty = auth disabled)

	// Archive settings
	ArchiveInterval   time.Duration // SIGHTLINE_ARCHIVE_INTERVAL (default 15m; 0 = disabled)
	ArchiveS3Bucket   string        // SIGHTLINE_ARCHIVE_S3_BUCKET (enables S3 when set)
	ArchiveS3Endpoint string        // SIGHTLINE_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
	ArchiveS3Region   string        // SIGHTLINE_ARCHIVE_S3_REGION (default "us-east-1")
	ArchiveS3Key      string        // SIGHTLINE_ARCHIVE_S3_KEY (default "sightline/feed.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:       os.Getenv("SIGHTLINE_DATABASE_URL"),
		HTTPAddr:          envOrDefault("SIGHTLINE_HTTP_ADDR", ":8080"),
		NATSURL:           os.Getenv("SIGHTLINE_NATS_URL"),
		AuthToken:         os.Getenv("SIGHTLINE_AUTH_TOKEN"),
		ArchiveS3Bucket:   os.Getenv("SIGHTLINE_ARCHIVE_S3_BUCKET"),
		ArchiveS3Endpoint: os.Getenv("SIGHTLINE_ARCHIVE_S3_ENDPOINT"),
		ArchiveS3Region:   envOrDefault("SIGHTLINE_ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Key:      envOrDefault("SIGHTLINE_ARCHIVE_S3_KEY", "sightline/feed.jsonl"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("SIGHTLINE_DATABASE_URL is required")
	}

	intervalStr := envOrDefault("SIGHTLINE_ARCHIVE_INTERVAL", "15m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("SIGHTLINE_ARCHIVE_INTERVAL: %w", err)
		}
		c.ArchiveInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
