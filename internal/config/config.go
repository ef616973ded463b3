package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration, loaded from the environment.
type Config struct {
	Port string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	FeedURL        string
	PollInterval   time.Duration
	AdapterTimeout time.Duration
	MaxRetries     int
	RequestsPerSec float64
	MaxCatalogSize int // 0 = unbounded

	DiscordWebhookURL string
	DealAlertPercent  float64
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using system environment")
	}

	pollInterval, err := getEnvDuration("POLL_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	adapterTimeout, err := getEnvDuration("ADAPTER_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	dealAlertPercent := -20.0
	if v := os.Getenv("DEAL_ALERT_PERCENT"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid DEAL_ALERT_PERCENT %q: %w", v, err)
		}
		dealAlertPercent = parsed
	}

	rps := 2.0
	if v := os.Getenv("REQUESTS_PER_SEC"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid REQUESTS_PER_SEC %q", v)
		}
		rps = parsed
	}

	webhookURL := os.Getenv("DISCORD_WEBHOOK_URL")
	if webhookURL == "" {
		slog.Warn("DISCORD_WEBHOOK_URL not set, deal alerts will be skipped")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scrapy"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scrapyscrapy"),
		PostgresDB:       getEnv("POSTGRES_DB", "scraper"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		FeedURL:        getEnv("FEED_URL", "https://www.okkazeo.com/annonces/atom/0/50"),
		PollInterval:   pollInterval,
		AdapterTimeout: adapterTimeout,
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		RequestsPerSec: rps,
		MaxCatalogSize: getEnvInt("MAX_CATALOG_SIZE", 0),

		DiscordWebhookURL: webhookURL,
		DealAlertPercent:  dealAlertPercent,
	}, nil
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword,
		c.PostgresHost, c.PostgresPort,
		c.PostgresDB, c.PostgresSSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Invalid integer env var, using fallback", "key", key, "value", v, "fallback", fallback)
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return parsed, nil
}
