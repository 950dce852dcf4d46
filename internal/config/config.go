package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Port        string
	Host        string

	LogLevel string

	DataDir     string
	CORSOrigins string

	ScraperUserAgent string
	FetchTimeout     time.Duration

	RefreshEnabled   bool
	RefreshInterval  time.Duration
	RefreshBatchSize int
}

func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		Port:             getEnv("PORT", "8080"),
		Host:             getEnv("HOST", "0.0.0.0"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DataDir:          getEnv("DATA_DIR", "./data"),
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"),
		ScraperUserAgent: getEnv("SCRAPER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
	}

	if timeout := getEnv("FETCH_TIMEOUT", "30s"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
		}
		cfg.FetchTimeout = d
	}

	if enabled := getEnv("REFRESH_ENABLED", "true"); enabled != "" {
		b, err := strconv.ParseBool(enabled)
		if err != nil {
			return nil, fmt.Errorf("invalid REFRESH_ENABLED: %w", err)
		}
		cfg.RefreshEnabled = b
	}

	if interval := getEnv("REFRESH_INTERVAL", "6h"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
		}
		cfg.RefreshInterval = d
	}

	if batch := getEnv("REFRESH_BATCH_SIZE", "50"); batch != "" {
		n, err := strconv.Atoi(batch)
		if err != nil {
			return nil, fmt.Errorf("invalid REFRESH_BATCH_SIZE: %w", err)
		}
		cfg.RefreshBatchSize = n
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
