// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DB_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay (config.development.yaml etc.)
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations (tests run from nested dirs)
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Printf("✅ Loaded .env from: %s\n", path)
				return
			}
		}
	}

	fmt.Printf("⚠️  .env file not found in any location, using system environment variables\n")
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Expand ${VAR} style placeholders in string values
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	// Database overrides
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}

	// Link provisioning service
	if cfg.Links.APIKey == "" {
		if val := os.Getenv("LINKS_API_KEY"); val != "" {
			cfg.Links.APIKey = val
		}
	}

	// Messaging
	if cfg.Messaging.AWSRegion == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Messaging.AWSRegion = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.AuditIndex == "" {
		cfg.Database.Elasticsearch.AuditIndex = "reminder-audit"
	}

	// Reminder engine defaults (hours: 48 / 72 / 168, pacing: 2-5m, cooldown 30m)
	if cfg.Reminders.FirstThresholdHours == 0 {
		cfg.Reminders.FirstThresholdHours = 48
	}
	if cfg.Reminders.SecondThresholdHours == 0 {
		cfg.Reminders.SecondThresholdHours = 72
	}
	if cfg.Reminders.WeeklyThresholdHours == 0 {
		cfg.Reminders.WeeklyThresholdHours = 168
	}
	if cfg.Reminders.MaxInactivityDays == 0 {
		cfg.Reminders.MaxInactivityDays = 30
	}
	if cfg.Reminders.MinDelay == 0 {
		cfg.Reminders.MinDelay = 2 * time.Minute
	}
	if cfg.Reminders.MaxDelay == 0 {
		cfg.Reminders.MaxDelay = 5 * time.Minute
	}
	if cfg.Reminders.BatchSize == 0 {
		cfg.Reminders.BatchSize = 20
	}
	if cfg.Reminders.Cooldown == 0 {
		cfg.Reminders.Cooldown = 30 * time.Minute
	}
	if cfg.Reminders.SendOverhead == 0 {
		cfg.Reminders.SendOverhead = 2 * time.Second
	}
	if cfg.Reminders.LeaseTTL == 0 {
		cfg.Reminders.LeaseTTL = 12 * time.Hour
	}

	// Messaging defaults
	if cfg.Messaging.Channel == "" {
		cfg.Messaging.Channel = "sms"
	}
	if cfg.Messaging.AWSRegion == "" {
		cfg.Messaging.AWSRegion = "us-east-1"
	}

	// Links defaults
	if cfg.Links.Timeout == 0 {
		cfg.Links.Timeout = 10000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Worker defaults
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.Registry.Path == "" {
		cfg.Registry.Path = "configs/activity-registry.json"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}

	if cfg.Reminders.MinDelay > cfg.Reminders.MaxDelay {
		return fmt.Errorf("reminders.min_delay must not exceed reminders.max_delay")
	}

	switch cfg.Messaging.Channel {
	case "sms", "email", "dry_run":
	default:
		return fmt.Errorf("messaging.channel must be one of sms, email, dry_run")
	}

	return nil
}
