package config

import (
	"strings"

	"github.com/leapstack-labs/dbbridge/pkg/coerce"
	"github.com/leapstack-labs/dbbridge/pkg/database"
)

// Default configuration values.
const (
	DefaultDialect       = string(database.DialectSQLite)
	DefaultMigrationsDir = "migrations"
	DefaultOutput        = "auto" // Auto-detect: TTY=table, non-TTY=markdown
	DefaultPostgresPort  = 5432

	DefaultTimestampFormat = string(coerce.FormatISO8601)
)

func defaults() map[string]any {
	return map[string]any{
		"target.dialect":   DefaultDialect,
		"timestamp_format": DefaultTimestampFormat,
		"migrations_dir":   DefaultMigrationsDir,
		"verbose":          false,
		"output":           DefaultOutput,
	}
}

// ApplyTargetDefaults fills dialect-specific defaults.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Dialect = strings.ToLower(t.Dialect)
	if t.Dialect == string(database.DialectPostgreSQL) && t.DSN == "" && t.Port == 0 {
		t.Port = DefaultPostgresPort
	}
}
