package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default values applied when neither flags, config file, nor environment
// provide a setting.
const (
	DefaultHost        = "localhost"
	DefaultPort        = 5432
	DefaultBackupDir   = "./backups"
	DefaultKeepDays    = 14
	DefaultCompression = "gzip"
)

// DatabaseConfig holds connection parameters for the target database
type DatabaseConfig struct {
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
}

// Config is the explicit configuration passed into the producer and executor
// at construction. There is no process-wide implicit state.
type Config struct {
	Database    DatabaseConfig `mapstructure:"database"`
	BackupDir   string         `mapstructure:"backup_dir"`
	KeepDays    int            `mapstructure:"keep_days"`
	Compression string         `mapstructure:"compression"`
	LogFile     string         `mapstructure:"log_file"`
	Verbose     bool           `mapstructure:"verbose"`
	Quiet       bool           `mapstructure:"quiet"`
}

// ValidationError represents a single invalid configuration field
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration for '%s': %s", e.Field, e.Message)
}

// ValidationErrors collects all validation failures so the operator sees
// every problem in one run
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// Add appends a validation error to the collection
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// Validate checks the configuration and returns all problems found
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Database.Name == "" {
		errs.Add("database.name", "database name is required")
	}
	if c.Database.User == "" {
		errs.Add("database.user", "database user is required")
	}
	if c.Database.Password == "" {
		errs.Add("database.password", "database password is required")
	}
	if c.Database.Host == "" {
		errs.Add("database.host", "database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs.Add("database.port", fmt.Sprintf("port must be between 1 and 65535, got %d", c.Database.Port))
	}
	if c.BackupDir == "" {
		errs.Add("backup_dir", "backup directory is required")
	}
	if c.KeepDays <= 0 {
		errs.Add("keep_days", fmt.Sprintf("keep days must be positive, got %d", c.KeepDays))
	}
	switch c.Compression {
	case "gzip", "zstd":
	default:
		errs.Add("compression", fmt.Sprintf("unsupported compression '%s', must be gzip or zstd", c.Compression))
	}
	if c.Verbose && c.Quiet {
		errs.Add("verbose", "verbose and quiet are mutually exclusive")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults registers default values on the given viper instance
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.host", DefaultHost)
	v.SetDefault("database.port", DefaultPort)
	v.SetDefault("backup_dir", DefaultBackupDir)
	v.SetDefault("keep_days", DefaultKeepDays)
	v.SetDefault("compression", DefaultCompression)
}

// BindEnv wires the environment variables the original deployment uses
// (DB_NAME, DB_USER, ...) alongside the CLINIC_BACKUP_ prefixed ones
// handled by AutomaticEnv.
func BindEnv(v *viper.Viper) {
	v.BindEnv("database.name", "CLINIC_BACKUP_DATABASE_NAME", "DB_NAME")
	v.BindEnv("database.user", "CLINIC_BACKUP_DATABASE_USER", "DB_USER")
	v.BindEnv("database.password", "CLINIC_BACKUP_DATABASE_PASSWORD", "DB_PASSWORD")
	v.BindEnv("database.host", "CLINIC_BACKUP_DATABASE_HOST", "DB_HOST")
	v.BindEnv("database.port", "CLINIC_BACKUP_DATABASE_PORT", "DB_PORT")
	v.BindEnv("backup_dir", "CLINIC_BACKUP_BACKUP_DIR", "BACKUP_DIR")
	v.BindEnv("keep_days", "CLINIC_BACKUP_KEEP_DAYS", "KEEP_DAYS")
	v.BindEnv("compression", "CLINIC_BACKUP_COMPRESSION")
}

// Load builds a Config from a viper instance that has already read its
// config file, environment, and flag bindings. A .env file in the working
// directory is loaded first when present; missing files are not an error.
func Load(v *viper.Viper) (*Config, error) {
	_ = godotenv.Load()

	SetDefaults(v)
	BindEnv(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
