package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sjperalta/fintera-lending/internal/finance/lifecycle"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Database
	DatabaseURL string

	// JWT
	JWTSecret string

	// Background Workers
	WorkerCount   int
	SweepInterval time.Duration
	GaugeInterval time.Duration

	// CORS
	AllowedOrigins []string

	// Sentry
	SentryDSN string

	// Ledger
	Currency     string
	AutoClassify bool
	Delinquency  lifecycle.DelinquencyPolicy
	PolicyFile   string
}

// policyFile is the YAML layout of POLICY_FILE
type policyFile struct {
	Currency     string                       `yaml:"currency"`
	AutoClassify *bool                        `yaml:"auto_classify"`
	Delinquency  *lifecycle.DelinquencyPolicy `yaml:"delinquency"`
}

// Load reads configuration from environment variables, then applies the
// optional policy file on top
func Load() (*Config, error) {
	defaults := lifecycle.DefaultDelinquencyPolicy()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 5),
		SweepInterval:  time.Duration(getEnvAsInt("SWEEP_INTERVAL_HOURS", 24)) * time.Hour,
		GaugeInterval:  time.Duration(getEnvAsInt("GAUGE_REFRESH_MINUTES", 15)) * time.Minute,
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		SentryDSN:      getEnv("SENTRY_DSN", ""),
		Currency:       getEnv("CURRENCY", "USD"),
		AutoClassify:   getEnvAsBool("AUTO_CLASSIFY", false),
		Delinquency: lifecycle.DelinquencyPolicy{
			NonPerformingAfterDays: getEnvAsInt("NON_PERFORMING_AFTER_DAYS", defaults.NonPerformingAfterDays),
			FullProvisionAfterDays: getEnvAsInt("FULL_PROVISION_AFTER_DAYS", defaults.FullProvisionAfterDays),
		},
		PolicyFile: getEnv("POLICY_FILE", ""),
	}

	if cfg.PolicyFile != "" {
		if err := cfg.applyPolicyFile(cfg.PolicyFile); err != nil {
			return nil, err
		}
	}

	// Validate required configuration
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	if err := validatePolicy(cfg.Delinquency); err != nil {
		return nil, err
	}

	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL_HOURS must be positive")
	}

	if cfg.GaugeInterval <= 0 {
		return nil, fmt.Errorf("GAUGE_REFRESH_MINUTES must be positive")
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) applyPolicyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read policy file: %w", err)
	}

	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse policy file: %w", err)
	}

	if pf.Currency != "" {
		c.Currency = pf.Currency
	}
	if pf.AutoClassify != nil {
		c.AutoClassify = *pf.AutoClassify
	}
	if pf.Delinquency != nil {
		if pf.Delinquency.NonPerformingAfterDays != 0 {
			c.Delinquency.NonPerformingAfterDays = pf.Delinquency.NonPerformingAfterDays
		}
		if pf.Delinquency.FullProvisionAfterDays != 0 {
			c.Delinquency.FullProvisionAfterDays = pf.Delinquency.FullProvisionAfterDays
		}
	}
	return nil
}

func validatePolicy(p lifecycle.DelinquencyPolicy) error {
	if p.NonPerformingAfterDays <= 0 {
		return fmt.Errorf("non performing threshold must be positive")
	}
	if p.FullProvisionAfterDays <= p.NonPerformingAfterDays {
		return fmt.Errorf("full provision threshold must exceed the non performing threshold")
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool reads an environment variable as boolean
func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
