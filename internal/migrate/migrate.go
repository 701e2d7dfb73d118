// Package migrate applies a directory of goose SQL migrations to a target
// database before it is served through the driver adapter.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/leapstack-labs/dbbridge/pkg/database"
	"github.com/pressly/goose/v3"
)

// goose keeps its dialect, base FS and logger in package globals.
var gooseMu sync.Mutex

// SQLDBer is implemented by database handles backed by database/sql.
type SQLDBer interface {
	SQLDB() *sql.DB
}

// Migrator runs migrations from one directory.
type Migrator struct {
	db      *sql.DB
	dialect database.Dialect
	fsys    fs.FS
	dir     string
	logger  *slog.Logger
}

// New creates a Migrator reading dir from fsys. A nil fsys reads the OS
// filesystem.
func New(db *sql.DB, dialect database.Dialect, fsys fs.FS, dir string, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Migrator{db: db, dialect: dialect, fsys: fsys, dir: dir, logger: logger}
}

// ForDatabase creates a Migrator for a database opened through the registry.
func ForDatabase(db database.Database, fsys fs.FS, dir string, logger *slog.Logger) (*Migrator, error) {
	s, ok := db.(SQLDBer)
	if !ok {
		return nil, fmt.Errorf("database %s does not expose a database/sql handle", db.Dialect())
	}
	return New(s.SQLDB(), db.Dialect(), fsys, dir, logger), nil
}

// gooseDialect maps a dialect to goose's name for it.
func gooseDialect(d database.Dialect) (string, error) {
	switch d {
	case database.DialectPostgreSQL:
		return "postgres", nil
	case database.DialectSQLite, database.DialectLibSQL:
		return "sqlite", nil
	}
	return "", fmt.Errorf("migrations not supported for dialect %q", d)
}

// with configures goose's globals for m and runs fn under the package lock.
func (m *Migrator) with(fn func() error) error {
	name, err := gooseDialect(m.dialect)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(m.fsys)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(&gooseLogger{logger: m.logger})

	if err := goose.SetDialect(name); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return fn()
}

// Up runs all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	return m.with(func() error {
		if err := goose.UpContext(ctx, m.db, m.dir); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	return m.with(func() error {
		if err := goose.DownContext(ctx, m.db, m.dir); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return nil
	})
}

// Version returns the current migration version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	var v int64
	err := m.with(func() error {
		var err error
		v, err = goose.GetDBVersionContext(ctx, m.db)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		return nil
	})
	return v, err
}

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf is only reached from goose's own CLI helpers, which we do not call.
func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	l.logger.Error(msg)
	panic(msg)
}
