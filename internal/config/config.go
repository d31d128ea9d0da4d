// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string
	SessionTTL  time.Duration
	Catalog     CatalogConfig
	Generation  GenerationConfig
}

// CatalogConfig controls the marketplace search integration.
type CatalogConfig struct {
	BaseURL  string
	ProxyURL string
	Timeout  time.Duration
}

// GenerationConfig controls the text-generation backend. An empty APIKey
// disables generation; descriptions then fall back to a fixed sentence.
type GenerationConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/stylist.db"),
		SessionTTL:  getEnvDuration("SESSION_TTL", 60*time.Minute),
		Catalog: CatalogConfig{
			BaseURL:  getEnv("CATALOG_BASE_URL", "https://catalog.wb.ru/catalog/electronic14/v2/catalog"),
			ProxyURL: getEnv("CATALOG_PROXY_URL", ""),
			Timeout:  getEnvDuration("CATALOG_TIMEOUT", 15*time.Second),
		},
		Generation: GenerationConfig{
			APIKey:    getEnv("GENERATION_API_KEY", ""),
			BaseURL:   getEnv("GENERATION_BASE_URL", ""),
			Model:     getEnv("GENERATION_MODEL", "gpt-4o-mini"),
			MaxTokens: getEnvInt("GENERATION_MAX_TOKENS", 500),
			Timeout:   getEnvDuration("GENERATION_TIMEOUT", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("CATALOG_BASE_URL cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Generation.MaxTokens <= 0 {
		return fmt.Errorf("GENERATION_MAX_TOKENS must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
