package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	OpenFoodFacts OpenFoodFactsConfig
	OCR           OCRConfig
	Cache         CacheConfig
	RateLimit     RateLimitConfig
	Scoring       ScoringConfig
	Analysis      AnalysisConfig
	Logging       LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// OpenFoodFactsConfig holds Open Food Facts API configuration
type OpenFoodFactsConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// OCRConfig holds label OCR service configuration. An empty endpoint
// disables image analysis. AllowedImageHosts limits where label images may
// be downloaded from (comma separated in the environment).
type OCRConfig struct {
	Endpoint          string        `mapstructure:"endpoint"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxImageBytes     int64         `mapstructure:"max_image_bytes"`
	AllowedImageHosts []string      `mapstructure:"allowed_image_hosts"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"` // only "memory"
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Burst int `mapstructure:"burst"`
}

// ScoringConfig points at policy and synonym overrides. Empty paths use
// the embedded defaults.
type ScoringConfig struct {
	PolicyFile   string `mapstructure:"policy_file"`
	SynonymsFile string `mapstructure:"synonyms_file"`
}

// AnalysisConfig tunes search ranking and batch analysis
type AnalysisConfig struct {
	MinConfidence    float64 `mapstructure:"min_confidence"`
	SearchPageSize   int     `mapstructure:"search_page_size"`
	BatchConcurrency int     `mapstructure:"batch_concurrency"`
	MaxBatchSize     int     `mapstructure:"max_batch_size"`
}

// LoggingConfig holds log output configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
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
	v.AddConfigPath("/etc/foodscore/")

	// Environment variable settings
	v.SetEnvPrefix("FOODSCORE")
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

// loadEnvFile loads .env from the working directory when present.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return gotenv.Load(".env")
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it through Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "15s")

	// Open Food Facts defaults
	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("openfoodfacts.user_agent", "FoodScore/1.0 (https://github.com/TVimala/Packaged-Food-Rating-App)")
	v.SetDefault("openfoodfacts.timeout", "15s")
	v.SetDefault("openfoodfacts.requests_per_minute", 60)
	v.SetDefault("openfoodfacts.max_retries", 3)

	// OCR defaults
	v.SetDefault("ocr.endpoint", "")
	v.SetDefault("ocr.timeout", "30s")
	v.SetDefault("ocr.max_image_bytes", 10<<20)
	v.SetDefault("ocr.allowed_image_hosts", []string{})

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.max_entries", 10000)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.burst", 10)

	// Scoring defaults
	v.SetDefault("scoring.policy_file", "")
	v.SetDefault("scoring.synonyms_file", "")

	// Analysis defaults
	v.SetDefault("analysis.min_confidence", 40)
	v.SetDefault("analysis.search_page_size", 20)
	v.SetDefault("analysis.batch_concurrency", 4)
	v.SetDefault("analysis.max_batch_size", 50)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set FOODSCORE_SERVER_PORT)")
	}

	if u, err := url.Parse(config.OpenFoodFacts.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("Open Food Facts base URL must be absolute, got: %q", config.OpenFoodFacts.BaseURL)
	}

	if config.OpenFoodFacts.RequestsPerMinute <= 0 {
		return fmt.Errorf("Open Food Facts requests per minute must be positive, got: %d", config.OpenFoodFacts.RequestsPerMinute)
	}

	if config.OCR.Endpoint != "" {
		if u, err := url.Parse(config.OCR.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("OCR endpoint must be absolute, got: %q", config.OCR.Endpoint)
		}
	}

	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("per-IP rate limit must be positive, got: %d", config.RateLimit.PerIP)
	}

	if config.Analysis.MinConfidence < 0 || config.Analysis.MinConfidence > 100 {
		return fmt.Errorf("analysis min confidence must be within 0-100, got: %v", config.Analysis.MinConfidence)
	}

	switch config.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging format must be 'text' or 'json', got: %s", config.Logging.Format)
	}

	return nil
}
