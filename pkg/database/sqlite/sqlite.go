// Package sqlite opens embedded SQLite databases through the pure-Go modernc
// driver. It serves both the sqlite dialect and libsql edge replicas, which
// are read through their local replica file.
//
// Import this package with a blank identifier to register the openers:
//
//	import _ "github.com/leapstack-labs/dbbridge/pkg/database/sqlite"
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/dbbridge/pkg/database"
	"github.com/leapstack-labs/dbbridge/pkg/database/sqldb"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const defaultBusyTimeoutMS = "5000"

func init() {
	database.Register(database.DialectSQLite, Open)
	database.Register(database.DialectLibSQL, Open)
}

// Open opens the database file at cfg.Path. An empty path opens an in-memory
// database. cfg.Dialect selects between sqlite and libsql and defaults to
// sqlite.
func Open(ctx context.Context, cfg database.Config, logger *slog.Logger) (database.Database, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dialect := cfg.Dialect
	if dialect == "" {
		dialect = database.DialectSQLite
	}
	if !dialect.Embedded() {
		return nil, fmt.Errorf("sqlite driver cannot open dialect %q", dialect)
	}

	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}

	logger.Debug("opening sqlite database",
		slog.String("dialect", dialect.String()),
		slog.String("dsn", dsn))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Every connection to :memory: would otherwise see its own empty database.
	if isMemory(cfg) {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return sqldb.New(db, dialect, logger), nil
}

// BuildDSN constructs a modernc DSN with pragmas taken from cfg.Options.
// Recognized options are busy_timeout (milliseconds, default 5000) and
// foreign_keys ("on"/"off", default on).
func BuildDSN(cfg database.Config) (string, error) {
	if cfg.DSN != "" {
		if strings.Contains(cfg.DSN, "://") {
			return "", fmt.Errorf("remote database URLs are not supported for %s; use the local replica path", cfg.Dialect)
		}
		return cfg.DSN, nil
	}

	path := cfg.Path
	if path == "" {
		path = MemoryPath
	}

	busy := defaultBusyTimeoutMS
	if v, ok := cfg.Options["busy_timeout"]; ok && v != "" {
		busy = v
	}

	fk := "1"
	if v, ok := cfg.Options["foreign_keys"]; ok && (v == "off" || v == "0" || v == "false") {
		fk = "0"
	}

	return fmt.Sprintf("%s?_pragma=busy_timeout(%s)&_pragma=foreign_keys(%s)", path, busy, fk), nil
}

func isMemory(cfg database.Config) bool {
	if cfg.DSN != "" {
		return strings.Contains(cfg.DSN, ":memory:") || strings.Contains(cfg.DSN, "mode=memory")
	}
	return cfg.Path == "" || cfg.Path == MemoryPath
}
