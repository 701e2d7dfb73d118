// Package driveradapter exposes a database.Database through an ORM
// driver-adapter contract: raw queries with typed result sets, raw
// statements, scripts, and serialized transactions.
//
// A Factory owns one transaction lock. Only one transaction may be open per
// Factory at a time; further StartTransaction calls wait until it commits or
// rolls back. Queries issued outside a transaction do not take the lock.
//
// An in-memory SQLite database has a single connection, which an open
// transaction pins. Queries made on the Adapter outside that transaction
// wait until it finishes, and made from the goroutine holding it they never
// return. Use the Transaction for every statement while one is open.
//
//	db, _ := database.Open(ctx, database.Config{Dialect: database.DialectSQLite}, logger)
//	adapter, _ := driveradapter.New(db, driveradapter.WithLogger(logger)).Connect(ctx)
//	rs, err := adapter.QueryRaw(ctx, driveradapter.Query{SQL: "SELECT 1"})
package driveradapter

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/dbbridge/pkg/coerce"
	"github.com/leapstack-labs/dbbridge/pkg/coltype"
	"github.com/leapstack-labs/dbbridge/pkg/database"
	"golang.org/x/sync/semaphore"
)

// AdapterName identifies this adapter to the ORM.
const AdapterName = "dbbridge"

// ArgType is an alias for coerce.ArgType.
type ArgType = coerce.ArgType

// Provider is the database family reported upstream.
type Provider string

// Providers.
const (
	ProviderPostgres Provider = "postgres"
	ProviderSQLite   Provider = "sqlite"
)

// ProviderFor maps a dialect to the provider the ORM expects. libsql is
// reported as sqlite because the two are wire-compatible for the ORM.
func ProviderFor(d database.Dialect) Provider {
	switch d {
	case database.DialectPostgreSQL:
		return ProviderPostgres
	case database.DialectLibSQL:
		return ProviderSQLite
	default:
		return Provider(d)
	}
}

// Query is a raw SQL statement with positional arguments.
type Query struct {
	SQL      string    `json:"sql"`
	Args     []any     `json:"args"`
	ArgTypes []ArgType `json:"argTypes"`
}

// ResultSet is the columnar result of QueryRaw.
type ResultSet struct {
	ColumnNames []string      `json:"columnNames"`
	ColumnTypes []coltype.Tag `json:"columnTypes"`
	Rows        [][]any       `json:"rows"`
}

// Queryable is implemented by both *Adapter and *Transaction.
type Queryable interface {
	Provider() Provider
	AdapterName() string
	QueryRaw(ctx context.Context, q Query) (*ResultSet, error)
	ExecuteRaw(ctx context.Context, q Query) (int64, error)
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithTimestampFormat selects how date/time arguments are bound.
func WithTimestampFormat(format coerce.TimestampFormat) Option {
	return func(f *Factory) {
		f.coerceOpts.TimestampFormat = format
	}
}

// Factory creates adapters over a single database handle.
type Factory struct {
	db         database.Database
	provider   Provider
	txLock     *semaphore.Weighted
	logger     *slog.Logger
	coerceOpts coerce.Options
}

// New creates a Factory for db.
func New(db database.Database, opts ...Option) *Factory {
	f := &Factory{
		db:         db,
		provider:   ProviderFor(db.Dialect()),
		txLock:     semaphore.NewWeighted(1),
		logger:     slog.New(slog.DiscardHandler),
		coerceOpts: coerce.Options{TimestampFormat: coerce.FormatISO8601},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// AdapterName returns AdapterName.
func (f *Factory) AdapterName() string { return AdapterName }

// Provider returns the provider mapped from the database dialect.
func (f *Factory) Provider() Provider { return f.provider }

// Connect returns an adapter sharing this factory's transaction lock.
func (f *Factory) Connect(_ context.Context) (*Adapter, error) {
	return &Adapter{
		factory: f,
		exec:    f.executor(f.db),
	}, nil
}

func (f *Factory) executor(db database.Database) executor {
	return executor{
		db:      db,
		dialect: f.db.Dialect(),
		opts:    f.coerceOpts,
		logger:  f.logger,
	}
}

// Adapter is a connected driver adapter.
type Adapter struct {
	factory *Factory
	exec    executor
}

// AdapterName returns AdapterName.
func (a *Adapter) AdapterName() string { return AdapterName }

// Provider returns the provider mapped from the database dialect.
func (a *Adapter) Provider() Provider { return a.factory.provider }

// ExecuteScript runs a multi-statement script verbatim.
func (a *Adapter) ExecuteScript(ctx context.Context, script string) error {
	return a.factory.db.Exec(ctx, script)
}

// QueryRaw runs q and returns its rows.
func (a *Adapter) QueryRaw(ctx context.Context, q Query) (*ResultSet, error) {
	return a.exec.queryRaw(ctx, q)
}

// ExecuteRaw runs q and returns the number of affected rows.
func (a *Adapter) ExecuteRaw(ctx context.Context, q Query) (int64, error) {
	return a.exec.executeRaw(ctx, q)
}

// Dispose releases the underlying database handle.
func (a *Adapter) Dispose() error {
	return a.factory.db.Dispose()
}

// executor runs queries against one database handle.
type executor struct {
	db      database.Database
	dialect database.Dialect
	opts    coerce.Options
	logger  *slog.Logger
}

func (e executor) queryRaw(ctx context.Context, q Query) (*ResultSet, error) {
	args, err := coerce.Args(q.Args, q.ArgTypes, e.opts)
	if err != nil {
		return nil, err
	}

	rows, err := e.db.Prepare(q.SQL).All(ctx, args...)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = &database.Rows{}
	}
	return e.resultSet(rows)
}

func (e executor) executeRaw(ctx context.Context, q Query) (int64, error) {
	args, err := coerce.Args(q.Args, q.ArgTypes, e.opts)
	if err != nil {
		return 0, err
	}

	res, err := e.db.Prepare(q.SQL).Run(ctx, args...)
	if err != nil {
		return 0, err
	}
	return res.Changes, nil
}

// resultSet reshapes engine rows. Names and types come from the engine's
// column metadata; unclassifiable types are reported as Text.
func (e executor) resultSet(rows *database.Rows) (*ResultSet, error) {
	rs := &ResultSet{
		ColumnNames: make([]string, len(rows.Columns)),
		ColumnTypes: make([]coltype.Tag, len(rows.Columns)),
		Rows:        make([][]any, 0, len(rows.Values)),
	}
	for i, col := range rows.Columns {
		rs.ColumnNames[i] = col.Name
		rs.ColumnTypes[i] = coltype.ClassifyOr(e.dialect, col.DatabaseType, coltype.Text)
	}
	for _, row := range rows.Values {
		if len(row) != len(rs.ColumnNames) {
			return nil, ErrMalformedResult
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

var (
	_ Queryable = (*Adapter)(nil)
	_ Queryable = (*Transaction)(nil)
)
