// Package config loads dbbridge configuration from defaults, a YAML file,
// DBBRIDGE_ environment variables, and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/dbbridge/pkg/coerce"
	"github.com/leapstack-labs/dbbridge/pkg/database"
)

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Dialect string `koanf:"dialect"` // postgresql, sqlite, libsql

	// Embedded databases (sqlite, libsql replica file)
	Path string `koanf:"path"`

	// DSN overrides every other connection field when set.
	DSN string `koanf:"dsn"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// ToDatabaseConfig converts the target into a database.Config for Open.
func (t *TargetConfig) ToDatabaseConfig() database.Config {
	return database.Config{
		Dialect:  database.Dialect(strings.ToLower(t.Dialect)),
		Path:     t.Path,
		DSN:      t.DSN,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Options:  t.Options,
	}
}

// Validate checks the dialect against the opener registry.
func (t *TargetConfig) Validate() error {
	if t.Dialect == "" {
		return fmt.Errorf("target dialect is required")
	}

	d := database.Dialect(strings.ToLower(t.Dialect))
	if !database.IsRegistered(d) {
		return &database.UnknownDialectError{
			Dialect:   d,
			Available: database.ListDialects(),
		}
	}
	return nil
}

// Config holds all dbbridge configuration options.
type Config struct {
	Target          TargetConfig `koanf:"target"`
	TimestampFormat string       `koanf:"timestamp_format"`
	MigrationsDir   string       `koanf:"migrations_dir"`
	Verbose         bool         `koanf:"verbose"`
	Output          string       `koanf:"output"`
}

// Validate checks the target and the timestamp format.
func (c *Config) Validate() error {
	if err := c.Target.Validate(); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}
	if _, err := coerce.ParseTimestampFormat(c.TimestampFormat); err != nil {
		return fmt.Errorf("invalid timestamp_format: %w", err)
	}
	return nil
}

// Format returns the validated timestamp format.
func (c *Config) Format() coerce.TimestampFormat {
	f, err := coerce.ParseTimestampFormat(c.TimestampFormat)
	if err != nil {
		return coerce.FormatISO8601
	}
	return f
}
