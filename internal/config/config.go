package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Star history strategies
const (
	StrategyEstimate = "estimate"
	StrategyREST     = "rest"
	StrategyGraphQL  = "graphql"
)

// Config holds the application configuration
type Config struct {
	// GitHub
	GitHubToken      string
	GitHubGraphQLURL string
	MaxStarredPages  int

	// Trends
	StarHistoryStrategy string // "estimate", "rest" or "graphql"
	TrendFetchDelay     time.Duration
	TrendTopN           int

	// Session store
	SQLitePath string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string

	// Environment ("dev" enables the development logger)
	AppEnv string
}

// MaxStarredPagesLimit caps the starred listing at 1000 repositories
const MaxStarredPagesLimit = 10

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		GitHubToken:         getEnv("GITHUB_TOKEN", ""),
		GitHubGraphQLURL:    getEnv("GITHUB_GRAPHQL_URL", "https://api.github.com/graphql"),
		MaxStarredPages:     getEnvInt("MAX_STARRED_PAGES", MaxStarredPagesLimit),
		StarHistoryStrategy: getEnv("STAR_HISTORY_STRATEGY", StrategyEstimate),
		TrendFetchDelay:     time.Duration(getEnvInt("TREND_FETCH_DELAY_MS", 500)) * time.Millisecond,
		TrendTopN:           getEnvInt("TREND_TOP_N", 10),
		SQLitePath:          getEnv("SQLITE_PATH", ":memory:"),
		APIPort:             getEnv("API_PORT", "8080"),
		APIHost:             getEnv("API_HOST", "localhost"),
		APIEndpoint:         getEnv("API_ENDPOINT", "http://localhost:8080"),
		AppEnv:              getEnv("APP_ENV", "production"),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer environment variable, falling back on parse errors
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// IsDev reports whether the development environment is selected
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.StarHistoryStrategy {
	case StrategyEstimate, StrategyREST, StrategyGraphQL:
	default:
		return &ConfigError{Field: "STAR_HISTORY_STRATEGY", Message: "must be 'estimate', 'rest' or 'graphql'"}
	}
	if c.MaxStarredPages < 1 {
		return &ConfigError{Field: "MAX_STARRED_PAGES", Message: "must be at least 1"}
	}
	if c.MaxStarredPages > MaxStarredPagesLimit {
		return &ConfigError{Field: "MAX_STARRED_PAGES", Message: fmt.Sprintf("must be at most %d", MaxStarredPagesLimit)}
	}
	if c.TrendFetchDelay < 0 {
		return &ConfigError{Field: "TREND_FETCH_DELAY_MS", Message: "must not be negative"}
	}
	if c.TrendTopN < 1 {
		return &ConfigError{Field: "TREND_TOP_N", Message: "must be at least 1"}
	}
	if c.SQLitePath == "" {
		return &ConfigError{Field: "SQLITE_PATH", Message: "must not be empty"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
