package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server (serve command: API + metrics)
	Port string
	Env  string // development, staging, production

	// Database (optional: stored prices, ranking persistence)
	Database DatabaseConfig

	// Redis (optional: price series cache)
	Redis RedisConfig

	// Price history provider
	Provider ProviderConfig

	// Batch rating run
	Rating RatingConfig

	// Files
	StrategyFile string
	UniverseFile string
	HoldingsFile string
	OutputDir    string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ProviderConfig holds the daily price history source configuration
type ProviderConfig struct {
	Source    string // yahoo, db
	BaseURL   string
	Timeout   time.Duration
	RateLimit int // requests per second
	CacheTTL  time.Duration
}

// RatingConfig holds batch run parameters that are not part of the strategy file
type RatingConfig struct {
	Concurrency       int
	InstrumentTimeout time.Duration
	Schedule          string // cron expression for the serve command
	Persist           bool   // save results to Postgres
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Provider: ProviderConfig{
			Source:    getEnv("PROVIDER_SOURCE", "yahoo"),
			BaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:   getEnvAsDuration("PROVIDER_TIMEOUT", "20s"),
			RateLimit: getEnvAsInt("PROVIDER_RATE_LIMIT", 2),
			CacheTTL:  getEnvAsDuration("PROVIDER_CACHE_TTL", "6h"),
		},

		Rating: RatingConfig{
			Concurrency:       getEnvAsInt("RATING_CONCURRENCY", 4),
			InstrumentTimeout: getEnvAsDuration("RATING_INSTRUMENT_TIMEOUT", "45s"),
			Schedule:          getEnv("RATING_SCHEDULE", "0 30 15 * * 1-5"),
			Persist:           getEnvAsBool("RATING_PERSIST", false),
		},

		StrategyFile: getEnv("STRATEGY_FILE", ""),
		UniverseFile: getEnv("UNIVERSE_FILE", ""),
		HoldingsFile: getEnv("HOLDINGS_FILE", "etf_holdings.json"),
		OutputDir:    getEnv("OUTPUT_DIR", "."),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadWithEnvFile loads an explicit env file first, then reads the environment.
// Variables already set in the process environment win.
func LoadWithEnvFile(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return Load()
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Provider.Source != "yahoo" && c.Provider.Source != "db" {
		return fmt.Errorf("PROVIDER_SOURCE must be one of: yahoo, db")
	}

	// Postgres is only needed when it is actually used
	if (c.Provider.Source == "db" || c.Rating.Persist) && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when PROVIDER_SOURCE=db or RATING_PERSIST=true")
	}

	if c.Rating.Concurrency < 1 {
		return fmt.Errorf("RATING_CONCURRENCY must be >= 1")
	}

	if c.Provider.RateLimit < 1 {
		return fmt.Errorf("PROVIDER_RATE_LIMIT must be >= 1")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
