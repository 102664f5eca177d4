// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultRenaissAPIURL  = "https://www.renaiss.xyz/api/trpc/collectible.list"
	defaultRenaissBaseURL = "https://www.renaiss.xyz"
)

// Config holds all application configuration.
type Config struct {
	DBPath     string
	DBLogLevel string
	Port       string

	CORSAllowedOrigins []string

	Renaiss RenaissConfig

	MonitorInterval  time.Duration
	MinProfitPercent float64

	CardCacheSize int
	CardCacheTTL  time.Duration
}

// RenaissConfig holds market API settings.
type RenaissConfig struct {
	APIURL            string
	BaseURL           string
	PageSize          int
	MaxPages          int
	Timeout           time.Duration
	RequestsPerMinute int
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DBPath:             "./renaiss_bot.db",
		DBLogLevel:         "warn",
		Port:               "8080",
		CORSAllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		Renaiss: RenaissConfig{
			APIURL:            defaultRenaissAPIURL,
			BaseURL:           defaultRenaissBaseURL,
			PageSize:          200,
			MaxPages:          1,
			Timeout:           15 * time.Second,
			RequestsPerMinute: 30,
		},
		MonitorInterval:  300 * time.Second,
		MinProfitPercent: 5.0,
		CardCacheSize:    256,
		CardCacheTTL:     300 * time.Second,
	}
}

// Load reads a .env file if present, applies environment overrides on top of
// Defaults and validates the result.
func Load() (*Config, error) {
	// Missing .env is fine, real deployments set the environment directly
	_ = godotenv.Load()

	cfg := Defaults()
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setStr(&cfg.DBPath, "DB_PATH")
	if os.Getenv("DB_LOG_SQL") == "true" {
		cfg.DBLogLevel = "info"
	}
	setStr(&cfg.DBLogLevel, "DB_LOG_LEVEL")
	setStr(&cfg.Port, "PORT")

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORSAllowedOrigins = strings.Split(origins, ",")
	}

	setStr(&cfg.Renaiss.APIURL, "RENAISS_API_URL")
	setStr(&cfg.Renaiss.BaseURL, "RENAISS_BASE_URL")
	setInt(&cfg.Renaiss.PageSize, "RENAISS_PAGE_SIZE")
	setInt(&cfg.Renaiss.MaxPages, "RENAISS_MAX_PAGES")
	setSeconds(&cfg.Renaiss.Timeout, "RENAISS_TIMEOUT_SECONDS")
	setInt(&cfg.Renaiss.RequestsPerMinute, "RENAISS_REQUESTS_PER_MINUTE")

	setSeconds(&cfg.MonitorInterval, "MONITOR_INTERVAL_SECONDS")
	setFloat(&cfg.MinProfitPercent, "MIN_PROFIT_PERCENT")

	setInt(&cfg.CardCacheSize, "CARD_CACHE_SIZE")
	setSeconds(&cfg.CardCacheTTL, "CARD_CACHE_TTL_SECONDS")
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Renaiss.APIURL == "" {
		return fmt.Errorf("RENAISS_API_URL cannot be empty")
	}
	if c.Renaiss.PageSize <= 0 {
		return fmt.Errorf("RENAISS_PAGE_SIZE must be positive, got %d", c.Renaiss.PageSize)
	}
	if c.Renaiss.MaxPages <= 0 {
		return fmt.Errorf("RENAISS_MAX_PAGES must be positive, got %d", c.Renaiss.MaxPages)
	}
	if c.MonitorInterval <= 0 {
		return fmt.Errorf("MONITOR_INTERVAL_SECONDS must be positive")
	}
	if c.MinProfitPercent < 0 {
		return fmt.Errorf("MIN_PROFIT_PERCENT cannot be negative")
	}
	return nil
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Config: ignoring invalid %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}

func setFloat(dst *float64, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Config: ignoring invalid %s=%q: %v", key, v, err)
		return
	}
	*dst = f
}

func setSeconds(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Config: ignoring invalid %s=%q: %v", key, v, err)
		return
	}
	*dst = time.Duration(n) * time.Second
}
