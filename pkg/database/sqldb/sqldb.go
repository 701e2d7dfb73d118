// Package sqldb implements database.Database on top of database/sql.
//
// Any registered database/sql driver can be used; the postgres and sqlite
// packages wire the pgx and modernc drivers respectively.
package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/leapstack-labs/dbbridge/pkg/database"
)

// querier is the subset shared by *sql.DB and *sql.Conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DB adapts a *sql.DB to database.Database.
type DB struct {
	db      *sql.DB
	dialect database.Dialect
	logger  *slog.Logger
}

// New wraps db. If logger is nil, a discard logger is used.
func New(db *sql.DB, dialect database.Dialect, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DB{db: db, dialect: dialect, logger: logger}
}

// Dialect returns the engine family of this handle.
func (d *DB) Dialect() database.Dialect {
	return d.dialect
}

// SQLDB returns the underlying pool, for schema setup and migrations.
func (d *DB) SQLDB() *sql.DB {
	return d.db
}

// Prepare binds query to a statement. The driver prepares it on execution.
func (d *DB) Prepare(query string) database.Statement {
	return &statement{q: d.db, sql: query, logger: d.logger}
}

// Exec runs a script of one or more statements.
func (d *DB) Exec(ctx context.Context, script string) error {
	return execScript(ctx, d.db, d.logger, script)
}

// Dispose closes the pool.
func (d *DB) Dispose() error {
	if d.db == nil {
		return nil
	}
	d.logger.Debug("closing database connection")
	return d.db.Close()
}

// Pin reserves a single connection from the pool.
func (d *DB) Pin(ctx context.Context) (database.Database, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return &Conn{conn: conn, dialect: d.dialect, logger: d.logger}, nil
}

// Conn is a database.Database bound to one pooled connection.
type Conn struct {
	conn    *sql.Conn
	dialect database.Dialect
	logger  *slog.Logger
}

// Dialect returns the engine family of this handle.
func (c *Conn) Dialect() database.Dialect {
	return c.dialect
}

// Prepare binds query to a statement on the pinned connection.
func (c *Conn) Prepare(query string) database.Statement {
	return &statement{q: c.conn, sql: query, logger: c.logger}
}

// Exec runs a script on the pinned connection.
func (c *Conn) Exec(ctx context.Context, script string) error {
	return execScript(ctx, c.conn, c.logger, script)
}

// Dispose returns the connection to the pool.
func (c *Conn) Dispose() error {
	return c.conn.Close()
}

// Discard closes the underlying driver connection so the pool never hands it
// out again.
func (c *Conn) Discard() error {
	c.logger.Debug("discarding pinned connection")
	err := c.conn.Raw(func(any) error { return driver.ErrBadConn })
	if errors.Is(err, driver.ErrBadConn) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to discard connection: %w", err)
	}
	return nil
}

func execScript(ctx context.Context, q querier, logger *slog.Logger, script string) error {
	logger.Debug("executing script", slog.Int("length", len(script)))
	if _, err := q.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

type statement struct {
	q      querier
	sql    string
	logger *slog.Logger
}

// All runs the query and materializes every row.
func (s *statement) All(ctx context.Context, args ...any) (*database.Rows, error) {
	s.logger.Debug("querying", slog.String("sql", s.sql), slog.Int("args", len(args)))

	rows, err := s.q.QueryContext(ctx, s.sql, bindArgs(args)...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column metadata: %w", err)
	}

	result := &database.Rows{
		Columns: make([]database.Column, len(types)),
		Values:  [][]any{},
	}
	for i, ct := range types {
		result.Columns[i] = database.Column{
			Name:         ct.Name(),
			DatabaseType: ct.DatabaseTypeName(),
		}
	}

	for rows.Next() {
		values := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result.Values = append(result.Values, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// Run executes the statement and reports its effect.
func (s *statement) Run(ctx context.Context, args ...any) (database.RunResult, error) {
	s.logger.Debug("executing", slog.String("sql", s.sql), slog.Int("args", len(args)))

	res, err := s.q.ExecContext(ctx, s.sql, bindArgs(args)...)
	if err != nil {
		return database.RunResult{}, fmt.Errorf("failed to execute statement: %w", err)
	}

	var out database.RunResult
	// Drivers that cannot report these return an error; treat it as zero.
	if n, err := res.RowsAffected(); err == nil {
		out.Changes = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out, nil
}

// bindArgs converts values database/sql cannot bind natively.
func bindArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case *big.Int:
			if v == nil {
				out[i] = nil
			} else if v.IsInt64() {
				out[i] = v.Int64()
			} else {
				out[i] = v.String()
			}
		default:
			out[i] = arg
		}
	}
	return out
}

var (
	_ database.Database = (*DB)(nil)
	_ database.Pinner   = (*DB)(nil)
	_ database.Database = (*Conn)(nil)
)
