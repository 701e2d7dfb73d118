// Package database defines the minimal database capability set that dbbridge
// consumes: a dialect, a way to prepare statements, multi-statement execution,
// and disposal.
//
// Concrete implementations live in subpackages. sqldb wraps database/sql, and
// the postgres and sqlite packages register openers for their dialects:
//
//	import _ "github.com/leapstack-labs/dbbridge/pkg/database/sqlite"
package database

import (
	"context"
)

// Dialect identifies which SQL engine family a database handle targets.
type Dialect string

// Supported dialects.
const (
	// DialectPostgreSQL is a postgres-compatible server.
	DialectPostgreSQL Dialect = "postgresql"

	// DialectSQLite is an embedded, file-backed engine.
	DialectSQLite Dialect = "sqlite"

	// DialectLibSQL is an edge replica speaking the SQLite dialect.
	DialectLibSQL Dialect = "libsql"
)

// Dialects returns every supported dialect.
func Dialects() []Dialect {
	return []Dialect{DialectPostgreSQL, DialectSQLite, DialectLibSQL}
}

// Valid reports whether d is one of the supported dialects.
func (d Dialect) Valid() bool {
	switch d {
	case DialectPostgreSQL, DialectSQLite, DialectLibSQL:
		return true
	}
	return false
}

// Embedded reports whether the dialect runs an in-process SQLite engine.
func (d Dialect) Embedded() bool {
	return d == DialectSQLite || d == DialectLibSQL
}

func (d Dialect) String() string {
	return string(d)
}

// Database is the capability set consumed by the driver adapter.
type Database interface {
	// Dialect returns the engine family of this handle.
	Dialect() Dialect

	// Prepare binds SQL text to a statement. Engines may defer the actual
	// preparation until the statement is executed.
	Prepare(sql string) Statement

	// Exec runs one or more statements that take no arguments.
	Exec(ctx context.Context, sql string) error

	// Dispose releases the handle.
	Dispose() error
}

// Statement is a prepared SQL statement.
type Statement interface {
	// All executes the statement and returns every row it produces.
	All(ctx context.Context, args ...any) (*Rows, error)

	// Run executes the statement for its side effects.
	Run(ctx context.Context, args ...any) (RunResult, error)
}

// Pinner is implemented by databases backed by a connection pool. Pin returns
// a Database bound to a single session; disposing it returns the session to
// the pool without closing the parent handle.
type Pinner interface {
	Pin(ctx context.Context) (Database, error)
}

// Discarder is implemented by pinned sessions that can be dropped instead of
// returned to the pool. A session whose transaction state is unknown must be
// discarded so no later caller inherits it.
type Discarder interface {
	Discard() error
}

// Column describes one result column as reported by the engine.
type Column struct {
	// Name is the column label.
	Name string

	// DatabaseType is the engine's declared type name (e.g. "INTEGER",
	// "VARCHAR(32)"). Empty when the engine cannot tell.
	DatabaseType string
}

// Rows is the materialized output of Statement.All.
type Rows struct {
	// Columns is the engine-provided metadata. It may be empty for engines
	// that report none, in which case Values must be empty too.
	Columns []Column

	// Values holds one slice per row, aligned with Columns.
	Values [][]any
}

// ColumnNames returns the names of all columns in order.
func (r *Rows) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// RunResult reports the effect of Statement.Run.
type RunResult struct {
	// Changes is the number of rows affected, 0 when unreported.
	Changes int64

	// LastInsertID is the engine's last inserted row id, 0 when unsupported.
	LastInsertID int64
}
