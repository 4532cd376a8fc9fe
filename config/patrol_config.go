package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// Scoring
	RiskThreshold     int
	HighRiskThreshold int
	TaxonomyPath      string

	// Hotel registry
	RegistryPath string

	// Scrapers
	ScraperTimeoutSec  int
	ScraperMaxRetries  int
	ScraperUserAgent   string
	FetchWorkerCount   int
	FetchQueueSize     int
	IngestRateLimit    int
	IngestRateWindow   time.Duration
	TelegramPreviewURL string
	InstagramTagURL    string

	// Stats cache
	StatsCacheTTL time.Duration

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "patrol"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// Scoring
		RiskThreshold:     getEnvInt("RISK_THRESHOLD", 30),
		HighRiskThreshold: getEnvInt("HIGH_RISK_THRESHOLD", 70),
		TaxonomyPath:      getEnv("TAXONOMY_PATH", ""),

		// Hotel registry
		RegistryPath: getEnv("HOTEL_REGISTRY_PATH", ""),

		// Scrapers
		ScraperTimeoutSec:  getEnvInt("SCRAPER_TIMEOUT_SEC", 45),
		ScraperMaxRetries:  getEnvInt("SCRAPER_MAX_RETRIES", 2),
		ScraperUserAgent:   getEnv("SCRAPER_USER_AGENT", "Mozilla/5.0 (compatible; PatrolBot/1.0)"),
		FetchWorkerCount:   getEnvInt("FETCH_WORKER_COUNT", 4),
		FetchQueueSize:     getEnvInt("FETCH_QUEUE_SIZE", 64),
		IngestRateLimit:    getEnvInt("INGEST_RATE_LIMIT", 30),
		IngestRateWindow:   time.Duration(getEnvInt("INGEST_RATE_WINDOW_SEC", 60)) * time.Second,
		TelegramPreviewURL: getEnv("TELEGRAM_PREVIEW_URL", "https://t.me/s"),
		InstagramTagURL:    getEnv("INSTAGRAM_TAG_URL", "https://www.instagram.com/explore/tags"),

		// Stats cache
		StatsCacheTTL: time.Duration(getEnvInt("STATS_CACHE_TTL_SEC", 30)) * time.Second,

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
