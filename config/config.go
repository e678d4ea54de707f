package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	USDA      USDAConfig      `mapstructure:"usda"`
	Estimator EstimatorConfig `mapstructure:"estimator"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Import    ImportConfig    `mapstructure:"import"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds the sqlite location
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// USDAConfig holds USDA API configuration
type USDAConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// EstimatorConfig holds the chat-completions estimator configuration
type EstimatorConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // only "memory" is supported
	TTL  time.Duration `mapstructure:"ttl"`
}

// MatchingConfig tunes how provider foods are matched to catalog names
type MatchingConfig struct {
	MinConfidenceThreshold float64 `mapstructure:"min_confidence_threshold"`
	EnableFuzzyMatching    bool    `mapstructure:"enable_fuzzy_matching"`
	EnableDebugLogging     bool    `mapstructure:"enable_debug_logging"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP     int `mapstructure:"per_ip"`    // requests per minute per client
	USDA      int `mapstructure:"usda"`      // requests per hour
	Estimator int `mapstructure:"estimator"` // requests per minute
}

// ImportConfig bounds provider fetches made during a serving import
type ImportConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/nutrilog/")

	// NUTRILOG_USDA_API_KEY -> usda.api_key
	v.SetEnvPrefix("NUTRILOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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

// loadEnvFile exports variables from ./.env without overriding ones already set
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.path", "nutrilog.db")

	v.SetDefault("usda.api_key", "")
	v.SetDefault("usda.base_url", "https://api.nal.usda.gov/fdc")

	v.SetDefault("estimator.enabled", false)
	v.SetDefault("estimator.api_key", "")
	v.SetDefault("estimator.base_url", "https://api.openai.com/v1")
	v.SetDefault("estimator.model", "gpt-4o-mini")
	v.SetDefault("estimator.timeout", "15s")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "720h") // 30 days

	v.SetDefault("matching.min_confidence_threshold", 40.0)
	v.SetDefault("matching.enable_fuzzy_matching", true)
	v.SetDefault("matching.enable_debug_logging", false)

	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.usda", 1000)
	v.SetDefault("ratelimit.estimator", 60)

	v.SetDefault("import.timeout", "20s")
}

// validate validates the configuration
func validate(config *Config) error {
	usdaConfigured := config.USDA.APIKey != ""
	estimatorConfigured := config.Estimator.Enabled && config.Estimator.APIKey != ""
	if !usdaConfigured && !estimatorConfigured {
		return errors.New("a nutrition provider is required (set NUTRILOG_USDA_API_KEY or enable the estimator with NUTRILOG_ESTIMATOR_API_KEY)")
	}

	if config.Estimator.Enabled && config.Estimator.APIKey == "" {
		return errors.New("estimator API key is required when the estimator is enabled")
	}

	if config.Cache.Type != "memory" {
		return fmt.Errorf("cache type must be 'memory', got: %s", config.Cache.Type)
	}

	if strings.TrimSpace(config.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if config.Import.Timeout <= 0 {
		return fmt.Errorf("import timeout must be positive, got: %s", config.Import.Timeout)
	}

	if config.Matching.MinConfidenceThreshold < 0 || config.Matching.MinConfidenceThreshold > 100 {
		return fmt.Errorf("matching confidence threshold must be within 0-100, got: %v", config.Matching.MinConfidenceThreshold)
	}

	return nil
}

// DefaultSource returns the provider used when a request does not name one
func (c *Config) DefaultSource() string {
	if c.USDA.APIKey != "" {
		return "usda"
	}
	return "estimate"
}
