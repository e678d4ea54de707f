package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var configEnv = []string{
	"NUTRILOG_SERVER_PORT",
	"NUTRILOG_SERVER_ENVIRONMENT",
	"NUTRILOG_DATABASE_PATH",
	"NUTRILOG_USDA_API_KEY",
	"NUTRILOG_USDA_BASE_URL",
	"NUTRILOG_ESTIMATOR_ENABLED",
	"NUTRILOG_ESTIMATOR_API_KEY",
	"NUTRILOG_ESTIMATOR_MODEL",
	"NUTRILOG_CACHE_TYPE",
	"NUTRILOG_CACHE_TTL",
	"NUTRILOG_RATELIMIT_PER_IP",
	"NUTRILOG_RATELIMIT_USDA",
	"NUTRILOG_IMPORT_TIMEOUT",
}

// isolate runs the test in an empty directory with every config variable unset
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range configEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when only the API key is set", func(t *testing.T) {
		isolate(t)
		t.Setenv("NUTRILOG_USDA_API_KEY", "test-key")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Database.Path != "nutrilog.db" {
			t.Errorf("Database.Path = %s, want nutrilog.db", cfg.Database.Path)
		}
		if cfg.USDA.BaseURL != "https://api.nal.usda.gov/fdc" {
			t.Errorf("USDA.BaseURL = %s, want https://api.nal.usda.gov/fdc", cfg.USDA.BaseURL)
		}
		if cfg.Estimator.Model != "gpt-4o-mini" {
			t.Errorf("Estimator.Model = %s, want gpt-4o-mini", cfg.Estimator.Model)
		}
		if cfg.Cache.TTL != 720*time.Hour {
			t.Errorf("Cache.TTL = %v, want 720h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
		if cfg.RateLimit.USDA != 1000 {
			t.Errorf("RateLimit.USDA = %d, want 1000", cfg.RateLimit.USDA)
		}
		if cfg.Import.Timeout != 20*time.Second {
			t.Errorf("Import.Timeout = %v, want 20s", cfg.Import.Timeout)
		}
		if cfg.DefaultSource() != "usda" {
			t.Errorf("DefaultSource() = %s, want usda", cfg.DefaultSource())
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		isolate(t)
		t.Setenv("NUTRILOG_SERVER_PORT", "9090")
		t.Setenv("NUTRILOG_SERVER_ENVIRONMENT", "production")
		t.Setenv("NUTRILOG_DATABASE_PATH", "/var/lib/nutrilog/data.db")
		t.Setenv("NUTRILOG_ESTIMATOR_ENABLED", "true")
		t.Setenv("NUTRILOG_ESTIMATOR_API_KEY", "sk-test")
		t.Setenv("NUTRILOG_ESTIMATOR_MODEL", "gpt-4o")
		t.Setenv("NUTRILOG_CACHE_TTL", "24h")
		t.Setenv("NUTRILOG_RATELIMIT_PER_IP", "200")
		t.Setenv("NUTRILOG_IMPORT_TIMEOUT", "5s")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Database.Path != "/var/lib/nutrilog/data.db" {
			t.Errorf("Database.Path = %s", cfg.Database.Path)
		}
		if !cfg.Estimator.Enabled || cfg.Estimator.APIKey != "sk-test" || cfg.Estimator.Model != "gpt-4o" {
			t.Errorf("Estimator = %+v, want enabled gpt-4o with key", cfg.Estimator)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Import.Timeout != 5*time.Second {
			t.Errorf("Import.Timeout = %v, want 5s", cfg.Import.Timeout)
		}
		if cfg.DefaultSource() != "estimate" {
			t.Errorf("DefaultSource() = %s, want estimate", cfg.DefaultSource())
		}
	})

	t.Run("fails validation when no provider is configured", func(t *testing.T) {
		isolate(t)

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for missing provider")
		}
		if !strings.HasPrefix(err.Error(), "invalid configuration: a nutrition provider is required") {
			t.Errorf("Load() error = %v", err)
		}
	})

	t.Run("fails validation for unsupported cache type", func(t *testing.T) {
		isolate(t)
		t.Setenv("NUTRILOG_USDA_API_KEY", "test-key")
		t.Setenv("NUTRILOG_CACHE_TYPE", "redis")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for unsupported cache type")
		}
	})

	t.Run("reads values from a .env file", func(t *testing.T) {
		isolate(t)
		content := "# local overrides\nNUTRILOG_USDA_API_KEY=from-dotenv\nNUTRILOG_SERVER_PORT=7070\n"
		if err := os.WriteFile(".env", []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Cleanup(func() {
			os.Unsetenv("NUTRILOG_USDA_API_KEY")
			os.Unsetenv("NUTRILOG_SERVER_PORT")
		})

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.USDA.APIKey != "from-dotenv" {
			t.Errorf("USDA.APIKey = %s, want from-dotenv", cfg.USDA.APIKey)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070", cfg.Server.Port)
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		t.Chdir(t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("skips comments and keeps existing variables", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("NUTRILOG_TEST_OVERRIDE", "existing-value")

		content := `
# This is a comment
NUTRILOG_TEST_NEW=value1
# NUTRILOG_TEST_COMMENTED=should_not_load
NUTRILOG_TEST_OVERRIDE=new-value
`
		if err := os.WriteFile(".env", []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("NUTRILOG_TEST_NEW") })

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if got := os.Getenv("NUTRILOG_TEST_NEW"); got != "value1" {
			t.Errorf("NUTRILOG_TEST_NEW = %q, want value1", got)
		}
		if got := os.Getenv("NUTRILOG_TEST_COMMENTED"); got != "" {
			t.Errorf("NUTRILOG_TEST_COMMENTED = %q, want unset", got)
		}
		if got := os.Getenv("NUTRILOG_TEST_OVERRIDE"); got != "existing-value" {
			t.Errorf("NUTRILOG_TEST_OVERRIDE = %q, want existing-value", got)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Path: "nutrilog.db"},
			USDA:     USDAConfig{APIKey: "test-key"},
			Cache:    CacheConfig{Type: "memory"},
			Matching: MatchingConfig{MinConfidenceThreshold: 40},
			Import:   ImportConfig{Timeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "estimator only", mutate: func(c *Config) {
			c.USDA.APIKey = ""
			c.Estimator = EstimatorConfig{Enabled: true, APIKey: "sk"}
		}},
		{name: "no provider", mutate: func(c *Config) { c.USDA.APIKey = "" }, wantErr: true},
		{name: "estimator without key", mutate: func(c *Config) { c.Estimator.Enabled = true }, wantErr: true},
		{name: "invalid cache type", mutate: func(c *Config) { c.Cache.Type = "invalid-type" }, wantErr: true},
		{name: "empty database path", mutate: func(c *Config) { c.Database.Path = " " }, wantErr: true},
		{name: "zero import timeout", mutate: func(c *Config) { c.Import.Timeout = 0 }, wantErr: true},
		{name: "threshold above 100", mutate: func(c *Config) { c.Matching.MinConfidenceThreshold = 120 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
