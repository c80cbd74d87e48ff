package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	HACCP     HACCPConfig
	OpenAI    OpenAIConfig
	Catalog   CatalogConfig
	Cache     CacheConfig
	Database  DatabaseConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LogLevel       string   `mapstructure:"log_level"`
}

// HACCPConfig holds the certified product registry configuration
type HACCPConfig struct {
	ServiceKey string        `mapstructure:"service_key"`
	BaseURL    string        `mapstructure:"base_url"`
	RatePerSec float64       `mapstructure:"rate_per_sec"`
	Burst      int           `mapstructure:"burst"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig holds the candidate generator configuration. An empty key disables AI expansion.
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether an API key is configured
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// CatalogConfig holds the reference data file paths
type CatalogConfig struct {
	RawProducePath     string `mapstructure:"raw_produce_path"`
	SeafoodPath        string `mapstructure:"seafood_path"`
	ProcessedFoodsPath string `mapstructure:"processed_foods_path"`
	ObligationsPath    string `mapstructure:"obligations_path"`
	CaseSearchPath     string `mapstructure:"case_search_path"`
	CaseInfoPath       string `mapstructure:"case_info_path"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DatabaseConfig holds the case audit store configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `mapstructure:"dsn"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/allerscan/")

	// ALLERSCAN_HACCP_SERVICE_KEY -> haccp.service_key
	v.SetEnvPrefix("ALLERSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Keys without defaults are only seen by Unmarshal when bound explicitly
	for _, key := range []string{"haccp.service_key", "openai.api_key", "cache.redis_url"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile reads .env from the working directory if present.
// Variables already set in the environment win.
func loadEnvFile() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("server.log_level", "info")

	// HACCP defaults
	v.SetDefault("haccp.base_url", "http://apis.data.go.kr/B553748")
	v.SetDefault("haccp.rate_per_sec", 10.0)
	v.SetDefault("haccp.burst", 5)
	v.SetDefault("haccp.timeout", "10s")

	// OpenAI defaults
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4.1-mini")
	v.SetDefault("openai.timeout", "30s")

	// Catalog defaults
	v.SetDefault("catalog.raw_produce_path", "data/raw_produce_catalog.csv")
	v.SetDefault("catalog.seafood_path", "data/raw_produce_seafood_catalog.csv")
	v.SetDefault("catalog.processed_foods_path", "data/processed_foods_catalog.csv")
	v.SetDefault("catalog.obligations_path", "data/allergen_obligations.csv")
	v.SetDefault("catalog.case_search_path", "data/recipe_inspection_basis_search.csv")
	v.SetDefault("catalog.case_info_path", "data/regulatory_cases.csv")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "24h")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "allerscan.db")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.HACCP.ServiceKey == "" {
		return fmt.Errorf("HACCP service key is required (set ALLERSCAN_HACCP_SERVICE_KEY)")
	}

	if config.HACCP.RatePerSec <= 0 {
		return fmt.Errorf("haccp rate_per_sec must be positive, got: %v", config.HACCP.RatePerSec)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Database.Driver != "sqlite" && config.Database.Driver != "postgres" {
		return fmt.Errorf("database driver must be 'sqlite' or 'postgres', got: %s", config.Database.Driver)
	}

	if config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (set ALLERSCAN_DATABASE_DSN)")
	}

	return nil
}
