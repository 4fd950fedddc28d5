// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Reminders RemindersConfig         `mapstructure:"reminders"`
	Messaging MessagingConfig         `mapstructure:"messaging"`
	Links     LinksConfig             `mapstructure:"links"`
	Forms     FormsConfig             `mapstructure:"forms"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Registry  RegistryConfig          `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	AuditIndex string   `mapstructure:"audit_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Specific Configuration Sections ---

// RemindersConfig carries every tunable of the escalation resolver and the
// batch dispatcher. Thresholds are hours since the relevant timestamps.
type RemindersConfig struct {
	FirstThresholdHours  int           `mapstructure:"first_threshold_hours"`
	SecondThresholdHours int           `mapstructure:"second_threshold_hours"`
	WeeklyThresholdHours int           `mapstructure:"weekly_threshold_hours"`
	MaxInactivityDays    int           `mapstructure:"max_inactivity_days"`
	MinDelay             time.Duration `mapstructure:"min_delay"`
	MaxDelay             time.Duration `mapstructure:"max_delay"`
	BatchSize            int           `mapstructure:"batch_size"`
	Cooldown             time.Duration `mapstructure:"cooldown"`
	SendOverhead         time.Duration `mapstructure:"send_overhead"`
	LeaseTTL             time.Duration `mapstructure:"lease_ttl"`
}

// MessagingConfig selects and configures the outbound messaging channel.
type MessagingConfig struct {
	Channel   string `mapstructure:"channel"` // "sms", "email" or "dry_run"
	AWSRegion string `mapstructure:"aws_region"`
	SenderID  string `mapstructure:"sender_id"`
	FromEmail string `mapstructure:"from_email"`
}

// LinksConfig configures the external link-provisioning service used for
// first-contact messages.
type LinksConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// FormsConfig maps customer criterion tags to default form types.
type FormsConfig struct {
	DefaultFormType   string            `mapstructure:"default_form_type"`
	CriterionDefaults map[string]string `mapstructure:"criterion_defaults"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RegistryConfig points at the on-disk activity registry.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}
