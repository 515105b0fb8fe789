package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ListingURLs    []string
	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int

	// Review collection budgets.
	TargetReviews    int
	MaxAttempts      int
	NoProgressBudget int
	ExtraPassBudget  int
	SettleDelay      time.Duration
	FinalSettleDelay time.Duration
	DefaultRating    int

	// LLM analysis.
	LLMBaseURL   string
	LLMAPIKey    string
	LLMModel     string
	TokenCeiling int
	ChunkOverlap int
	LLMCacheDir  string

	CSVOutputPath string
	ChromeBin     string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "review_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ListingURLs:    getEnvList("LISTING_URLS"),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 2),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),

		TargetReviews:    getEnvInt("TARGET_REVIEWS", 100),
		MaxAttempts:      getEnvInt("MAX_ATTEMPTS", 30),
		NoProgressBudget: getEnvInt("NO_PROGRESS_BUDGET", 10),
		ExtraPassBudget:  getEnvInt("EXTRA_PASS_BUDGET", 8),
		SettleDelay:      getEnvDuration("SETTLE_DELAY", 2*time.Second),
		FinalSettleDelay: getEnvDuration("FINAL_SETTLE_DELAY", 4*time.Second),
		DefaultRating:    getEnvInt("DEFAULT_RATING", 5),

		LLMBaseURL:   getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:    getEnv("LLM_API_KEY", ""),
		LLMModel:     getEnv("LLM_MODEL", "gpt-4o-mini"),
		TokenCeiling: getEnvInt("TOKEN_CEILING", 3000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 2),
		LLMCacheDir:  getEnv("LLM_CACHE_DIR", ""),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_reviews.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
