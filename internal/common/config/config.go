// internal/common/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"

	"retention-engine/internal/scoring"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Kafka         KafkaConfig        `mapstructure:"kafka"`
	Pipeline      PipelineConfig     `mapstructure:"pipeline"`
	Scoring       *scoring.Config    `mapstructure:"scoring"`
	Rulesets      RulesetConfig      `mapstructure:"rulesets"`
	Export        ExportConfig       `mapstructure:"export"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Source        SourceConfig        `mapstructure:"source"`
	Scored        ScoredTableConfig   `mapstructure:"scored"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

// SourceConfig locates the customer dataset. Kind selects between a SQL
// table ("sql") and a CSV file ("csv").
type SourceConfig struct {
	Kind    string `mapstructure:"kind"`
	DSN     string `mapstructure:"dsn"` // postgres:// or mysql:// scheme selects the driver
	Table   string `mapstructure:"table"`
	CSVPath string `mapstructure:"csv_path"`

	MaxConnections int `mapstructure:"max_connections"`
	MaxIdle        int `mapstructure:"max_idle"`
}

// Driver derives the database/sql driver name from the DSN scheme.
func (s SourceConfig) Driver() (string, error) {
	u, err := url.Parse(s.DSN)
	if err != nil {
		return "", fmt.Errorf("parse source dsn: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql", "mariadb":
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported dsn scheme %q", u.Scheme)
	}
}

// ScoredTableConfig names the output table for scored customers.
type ScoredTableConfig struct {
	Table string `mapstructure:"table"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// PipelineConfig holds batch driver settings.
type PipelineConfig struct {
	Workers            int    `mapstructure:"workers"`
	CheckpointInterval int    `mapstructure:"checkpoint_interval"` // records between checkpoints
	OnInvalidRecord    string `mapstructure:"on_invalid_record"`   // "skip" or "abort"
	ProgressBar        bool   `mapstructure:"progress_bar"`
}

// RulesetConfig points at the optional versioned scoring-profile registry.
type RulesetConfig struct {
	Path    string `mapstructure:"path"`
	Profile string `mapstructure:"profile"`
}

// ExportConfig holds report output settings.
type ExportConfig struct {
	ReportDir string `mapstructure:"report_dir"`
}

// NotificationConfig holds settings for intervention alerting.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled bool   `mapstructure:"enabled"`
		ToPhone string `mapstructure:"to_phone"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the Prometheus scrape endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
