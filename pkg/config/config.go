// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/maps-review-scraper/pkg/client"
	"github.com/Sternrassler/maps-review-scraper/pkg/listing"
	"github.com/Sternrassler/maps-review-scraper/pkg/logging"
	"github.com/Sternrassler/maps-review-scraper/pkg/pagination"
	"github.com/Sternrassler/maps-review-scraper/pkg/scraper"
	"github.com/joho/godotenv"
)

// DefaultUserAgent is sent when USER_AGENT is unset.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

type Config struct {
	Cookie           string
	UserAgent        string
	HTTPTimeout      time.Duration
	MaxRetries       int
	RetryBaseDelay   time.Duration
	PageDelay        time.Duration
	BreakerThreshold int
	ListingEndpoint  string

	LogLevel  string
	LogPretty bool

	RedisURL  string
	ResultTTL time.Duration

	Port string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Cookie:           getEnv("MAPS_COOKIE", ""),
		UserAgent:        getEnv("USER_AGENT", DefaultUserAgent),
		HTTPTimeout:      getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:       getIntEnv("MAX_RETRIES", 3),
		RetryBaseDelay:   getDurationEnv("RETRY_BASE_DELAY", 2*time.Second),
		PageDelay:        getDurationEnv("PAGE_DELAY", pagination.DefaultPageDelay),
		BreakerThreshold: getIntEnv("BREAKER_THRESHOLD", 5),
		ListingEndpoint:  getEnv("LISTING_ENDPOINT", listing.DefaultEndpoint),
		LogLevel:         getEnv("LOG_LEVEL", string(logging.LevelInfo)),
		LogPretty:        getBoolEnv("LOG_PRETTY", false),
		RedisURL:         getEnv("REDIS_URL", ""),
		ResultTTL:        getDurationEnv("RESULT_TTL", 24*time.Hour),
		Port:             getEnv("PORT", "8080"),
	}
}

// Client returns the transport configuration.
func (c *Config) Client() client.Config {
	cfg := client.DefaultConfig(c.UserAgent)
	cfg.Cookie = c.Cookie
	cfg.Timeout = c.HTTPTimeout
	cfg.BreakerThreshold = 0
	if c.BreakerThreshold > 0 {
		cfg.BreakerThreshold = uint32(c.BreakerThreshold)
	}
	return cfg
}

// Scraper returns the scraper configuration for an existing transport.
func (c *Config) Scraper(transport scraper.Getter) scraper.Config {
	return scraper.Config{
		Client:   transport,
		Endpoint: c.ListingEndpoint,
		Retry: pagination.RetryConfig{
			MaxRetries: c.MaxRetries,
			BaseDelay:  c.RetryBaseDelay,
		},
		PageDelay: c.PageDelay,
	}
}

// Logging returns the logging configuration. Output is left to the caller.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:  logging.ParseLevel(c.LogLevel),
		Pretty: c.LogPretty,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Plain integers are seconds
		if i, err := strconv.Atoi(value); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
