package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration. It is constructed once at startup
// and passed into each engine's constructor; nothing reads it through a
// global.
type Config struct {
	Port         int
	DevMode      bool
	LogLevel     string
	DataDir      string
	DatabasePath string
	StrategyPath string

	FMPAPIKey    string
	FMPBaseURL   string
	YahooBaseURL string

	Strategy Strategy
}

// Load reads configuration from environment variables and the strategy file.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8080),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		DatabasePath: getEnv("DATABASE_PATH", "./data/history.db"),
		StrategyPath: getEnv("STRATEGY_PATH", "./strategy.yaml"),
		FMPAPIKey:    getEnv("FMP_API_KEY", ""),
		FMPBaseURL:   getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3"),
		YahooBaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
	}

	strategy, err := LoadStrategy(cfg.StrategyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load strategy config: %w", err)
	}
	cfg.Strategy = *strategy

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.FMPAPIKey == "" {
		return fmt.Errorf("FMP_API_KEY is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
