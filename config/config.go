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
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Search    SearchConfig    `mapstructure:"search"`
	Session   SessionConfig   `mapstructure:"session"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Retailers RetailersConfig `mapstructure:"retailers"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig selects the logrus level and formatter
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// SearchConfig bounds one aggregated search
type SearchConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig controls price index session lifetime
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// OptimizerConfig holds trip optimizer configuration
type OptimizerConfig struct {
	AdvisoryThreshold float64 `mapstructure:"advisory_threshold"`
}

// ResolverConfig holds generic item resolution configuration
type ResolverConfig struct {
	MinRelevance float64 `mapstructure:"min_relevance"`
	FuzzyMatch   bool    `mapstructure:"fuzzy_match"`
}

// HTTPConfig holds outbound retailer HTTP client configuration
type HTTPConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryMax     int           `mapstructure:"retry_max"`
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP         int     `mapstructure:"per_ip"` // requests per minute per client IP, 0 disables
	RetailerRPS   float64 `mapstructure:"retailer_rps"`
	RetailerBurst int     `mapstructure:"retailer_burst"`
}

// RetailersConfig holds per-retailer endpoints
type RetailersConfig struct {
	Woolworths          WoolworthsConfig `mapstructure:"woolworths"`
	Coles               ColesConfig      `mapstructure:"coles"`
	Aldi                AldiConfig       `mapstructure:"aldi"`
	PlaceholderImageURL string           `mapstructure:"placeholder_image_url"`
}

// WoolworthsConfig holds Woolworths API configuration
type WoolworthsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BaseURL  string `mapstructure:"base_url"`
	PageSize int    `mapstructure:"page_size"`
}

// ColesConfig holds Coles API configuration
type ColesConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	APIKey       string `mapstructure:"api_key"`
	StoreNumber  string `mapstructure:"store_number"`
}

// AldiConfig holds ALDI API configuration
type AldiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BaseURL  string `mapstructure:"base_url"`
	PageSize int    `mapstructure:"page_size"`
	MaxPages int    `mapstructure:"max_pages"` // pages fetched per search, the first included
}

// MetricsConfig selects the retailer search outcome recorder
type MetricsConfig struct {
	Type       string `mapstructure:"type"` // "memory" or "sqlite"
	SQLitePath string `mapstructure:"sqlite_path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shopmate/")

	// Environment variable settings
	v.SetEnvPrefix("SHOPMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Search, session and planning defaults
	v.SetDefault("search.timeout", "15s")
	v.SetDefault("session.ttl", "2h")
	v.SetDefault("optimizer.advisory_threshold", 1.50)
	v.SetDefault("resolver.min_relevance", 40.0)
	v.SetDefault("resolver.fuzzy_match", true)

	// Outbound HTTP defaults
	v.SetDefault("http.timeout", "10s")
	v.SetDefault("http.retry_max", 2)
	v.SetDefault("http.retry_wait_min", "200ms")
	v.SetDefault("http.retry_wait_max", "2s")
	v.SetDefault("http.user_agent", "ShopMate/1.0")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)
	v.SetDefault("ratelimit.retailer_rps", 5.0)
	v.SetDefault("ratelimit.retailer_burst", 5)

	// Retailer defaults
	v.SetDefault("retailers.woolworths.enabled", true)
	v.SetDefault("retailers.woolworths.base_url", "https://www.woolworths.com.au")
	v.SetDefault("retailers.woolworths.page_size", 36)

	v.SetDefault("retailers.coles.enabled", false)
	v.SetDefault("retailers.coles.base_url", "https://www.coles.com.au")
	v.SetDefault("retailers.coles.image_base_url", "https://productimages.coles.com.au/productimages")
	v.SetDefault("retailers.coles.api_key", "")
	v.SetDefault("retailers.coles.store_number", "0584")

	v.SetDefault("retailers.aldi.enabled", true)
	v.SetDefault("retailers.aldi.base_url", "https://api.aldi.com.au")
	v.SetDefault("retailers.aldi.page_size", 30)
	v.SetDefault("retailers.aldi.max_pages", 10)

	v.SetDefault("retailers.placeholder_image_url", "https://via.placeholder.com/200")

	// Metrics defaults
	v.SetDefault("metrics.type", "memory")
	v.SetDefault("metrics.sqlite_path", "")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Retailers.Coles.Enabled && config.Retailers.Coles.APIKey == "" {
		return fmt.Errorf("Coles API key is required when Coles is enabled (set SHOPMATE_RETAILERS_COLES_API_KEY)")
	}

	if config.Metrics.Type != "memory" && config.Metrics.Type != "sqlite" {
		return fmt.Errorf("metrics type must be 'memory' or 'sqlite', got: %s", config.Metrics.Type)
	}

	if config.Metrics.Type == "sqlite" && config.Metrics.SQLitePath == "" {
		return fmt.Errorf("SQLite path is required when metrics type is 'sqlite'")
	}

	if config.Optimizer.AdvisoryThreshold < 0 {
		return fmt.Errorf("optimizer advisory threshold must not be negative, got: %v", config.Optimizer.AdvisoryThreshold)
	}

	if config.Retailers.Woolworths.Enabled && config.Retailers.Woolworths.PageSize <= 0 {
		return fmt.Errorf("Woolworths page size must be positive, got: %d", config.Retailers.Woolworths.PageSize)
	}

	if config.Retailers.Aldi.Enabled && config.Retailers.Aldi.PageSize <= 0 {
		return fmt.Errorf("ALDI page size must be positive, got: %d", config.Retailers.Aldi.PageSize)
	}

	if config.Retailers.Aldi.Enabled && config.Retailers.Aldi.MaxPages <= 0 {
		return fmt.Errorf("ALDI max pages must be positive, got: %d", config.Retailers.Aldi.MaxPages)
	}

	return nil
}

// loadEnvFile loads KEY=VALUE pairs from ./.env without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
