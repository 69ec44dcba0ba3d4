// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"retention-engine/internal/scoring"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_SOURCE_DSN
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

	// Environment-specific overlay, ignored when absent.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

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

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env from the working directory upward so tests running
// from package directories still pick it up.
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
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
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

// expandEnvVars resolves ${VAR} placeholders in string config values.
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

// overrideEmptyConfig fills sensitive values from plain env vars when the
// YAML left them empty.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Source.DSN == "" {
		if val := os.Getenv("SOURCE_DSN"); val != "" {
			cfg.Database.Source.DSN = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
	if cfg.Database.Elasticsearch.Password == "" {
		if val := os.Getenv("ELASTICSEARCH_PASSWORD"); val != "" {
			cfg.Database.Elasticsearch.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Scoring == nil {
		cfg.Scoring = scoring.DefaultConfig()
	}

	if cfg.Database.Source.Kind == "" {
		cfg.Database.Source.Kind = "sql"
	}
	if cfg.Database.Source.Table == "" {
		cfg.Database.Source.Table = "customers"
	}
	if cfg.Database.Source.MaxConnections == 0 {
		cfg.Database.Source.MaxConnections = 25
	}
	if cfg.Database.Source.MaxIdle == 0 {
		cfg.Database.Source.MaxIdle = 5
	}
	if cfg.Database.Scored.Table == "" {
		cfg.Database.Scored.Table = "scored_customers"
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "scored-customers"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "scored-customers"
	}

	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = 4
	}
	if cfg.Pipeline.CheckpointInterval == 0 {
		cfg.Pipeline.CheckpointInterval = 500
	}
	if cfg.Pipeline.OnInvalidRecord == "" {
		cfg.Pipeline.OnInvalidRecord = "skip"
	}

	if cfg.Export.ReportDir == "" {
		cfg.Export.ReportDir = "reports"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9102"
	}
}

// validateConfig validates critical configuration fields. Scoring rules get
// their own deeper validation when the engine is constructed.
func validateConfig(cfg *Config) error {
	switch cfg.Database.Source.Kind {
	case "sql":
		if cfg.Database.Source.DSN == "" {
			return fmt.Errorf("database.source.dsn is required for sql sources")
		}
		if _, err := cfg.Database.Source.Driver(); err != nil {
			return fmt.Errorf("database.source.dsn: %w", err)
		}
	case "csv":
		if cfg.Database.Source.CSVPath == "" {
			return fmt.Errorf("database.source.csv_path is required for csv sources")
		}
	default:
		return fmt.Errorf("database.source.kind must be sql or csv, got %q", cfg.Database.Source.Kind)
	}

	if cfg.Pipeline.OnInvalidRecord != "skip" && cfg.Pipeline.OnInvalidRecord != "abort" {
		return fmt.Errorf("pipeline.on_invalid_record must be skip or abort, got %q", cfg.Pipeline.OnInvalidRecord)
	}

	if cfg.Database.Redis.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when redis is enabled")
	}
	if cfg.Database.Elasticsearch.Enabled && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses is required when elasticsearch is enabled")
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}

	if err := cfg.Scoring.Validate(); err != nil {
		return err
	}

	return nil
}
