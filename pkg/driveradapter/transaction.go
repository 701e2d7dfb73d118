package driveradapter

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/leapstack-labs/dbbridge/pkg/database"
)

// IsolationLevel is a transaction isolation level. The empty level means the
// engine default.
type IsolationLevel string

// Isolation levels.
const (
	ReadUncommitted IsolationLevel = "READ UNCOMMITTED"
	ReadCommitted   IsolationLevel = "READ COMMITTED"
	RepeatableRead  IsolationLevel = "REPEATABLE READ"
	Snapshot        IsolationLevel = "SNAPSHOT"
	Serializable    IsolationLevel = "SERIALIZABLE"
)

// TransactionOptions are reported to the ORM with each transaction.
type TransactionOptions struct {
	UsePhantomQuery bool `json:"usePhantomQuery"`
}

// checkIsolationLevel rejects levels the provider cannot honor. Embedded
// engines only offer serializable isolation.
func (f *Factory) checkIsolationLevel(level IsolationLevel) error {
	if level == "" {
		return nil
	}
	switch f.provider {
	case ProviderSQLite:
		if level != Serializable {
			return &InvalidIsolationLevelError{Level: level}
		}
	case ProviderPostgres:
		switch level {
		case ReadUncommitted, ReadCommitted, RepeatableRead, Serializable:
		default:
			return &InvalidIsolationLevelError{Level: level}
		}
	}
	return nil
}

// StartTransaction waits for the factory's transaction lock, then issues
// BEGIN. The caller must finish the transaction with Commit or Rollback; a
// transaction left open blocks every later StartTransaction on the factory.
//
// ctx bounds only the wait for the lock and the BEGIN statement.
func (a *Adapter) StartTransaction(ctx context.Context, level IsolationLevel) (*Transaction, error) {
	f := a.factory
	if err := f.checkIsolationLevel(level); err != nil {
		return nil, err
	}

	if err := f.txLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	tx := &Transaction{
		id:      uuid.NewString(),
		factory: f,
		logger:  f.logger,
	}

	db := f.db
	if p, ok := db.(database.Pinner); ok {
		session, err := p.Pin(ctx)
		if err != nil {
			f.txLock.Release(1)
			return nil, err
		}
		tx.session = session
		db = session
	}
	tx.exec = f.executor(db)

	if err := db.Exec(ctx, "BEGIN"); err != nil {
		_ = tx.release()
		return nil, err
	}

	if level != "" && f.provider == ProviderPostgres {
		if err := db.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL "+string(level)); err != nil {
			tx.abort(ctx, "SET TRANSACTION", err)
			_ = tx.release()
			return nil, err
		}
	}

	tx.logger.Debug("transaction started",
		slog.String("tx_id", tx.id),
		slog.String("isolation_level", string(level)))
	return tx, nil
}

// Transaction is an open transaction holding the factory's lock.
type Transaction struct {
	id      string
	factory *Factory
	exec    executor
	session database.Database
	logger  *slog.Logger

	// dirty marks a session that may still be inside a transaction.
	dirty bool

	mu     sync.Mutex
	closed bool
}

// ID returns a unique identifier for log correlation.
func (tx *Transaction) ID() string { return tx.id }

// AdapterName returns AdapterName.
func (tx *Transaction) AdapterName() string { return AdapterName }

// Provider returns the provider mapped from the database dialect.
func (tx *Transaction) Provider() Provider { return tx.factory.provider }

// Options returns the transaction options reported to the ORM.
func (tx *Transaction) Options() TransactionOptions {
	return TransactionOptions{UsePhantomQuery: false}
}

// QueryRaw runs q inside the transaction.
func (tx *Transaction) QueryRaw(ctx context.Context, q Query) (*ResultSet, error) {
	if tx.isClosed() {
		return nil, ErrTransactionClosed
	}
	return tx.exec.queryRaw(ctx, q)
}

// ExecuteRaw runs q inside the transaction.
func (tx *Transaction) ExecuteRaw(ctx context.Context, q Query) (int64, error) {
	if tx.isClosed() {
		return 0, ErrTransactionClosed
	}
	return tx.exec.executeRaw(ctx, q)
}

// Commit issues COMMIT and releases the lock, even when COMMIT fails. A
// failed COMMIT is followed by ROLLBACK, since engines such as SQLite keep
// the transaction open after a rejected commit.
func (tx *Transaction) Commit(ctx context.Context) error {
	return tx.finish(ctx, "COMMIT")
}

// Rollback issues ROLLBACK and releases the lock, even when ROLLBACK fails.
func (tx *Transaction) Rollback(ctx context.Context) error {
	return tx.finish(ctx, "ROLLBACK")
}

func (tx *Transaction) finish(ctx context.Context, stmt string) error {
	tx.mu.Lock()
	if tx.closed {
		tx.mu.Unlock()
		return ErrTransactionClosed
	}
	tx.closed = true
	tx.mu.Unlock()

	err := tx.exec.db.Exec(ctx, stmt)
	if err != nil {
		if stmt == "ROLLBACK" {
			tx.dirty = true
		} else {
			tx.abort(ctx, stmt, err)
		}
	}
	if relErr := tx.release(); err == nil {
		err = relErr
	}

	tx.logger.Debug("transaction finished",
		slog.String("tx_id", tx.id),
		slog.String("statement", stmt),
		slog.Bool("ok", err == nil))
	return err
}

// abort rolls back after stmt failed mid-transaction. It runs even when ctx
// is already cancelled. If ROLLBACK fails too, the session is marked dirty.
func (tx *Transaction) abort(ctx context.Context, stmt string, cause error) {
	err := tx.exec.db.Exec(context.WithoutCancel(ctx), "ROLLBACK")
	if err == nil {
		return
	}
	tx.dirty = true
	tx.logger.Warn("rollback after failed statement failed",
		slog.String("tx_id", tx.id),
		slog.String("statement", stmt),
		slog.Any("cause", cause),
		slog.Any("error", err))
}

// release returns the pinned session and frees the lock. A dirty session is
// discarded rather than returned to the pool when the engine allows it.
func (tx *Transaction) release() error {
	defer tx.factory.txLock.Release(1)
	if tx.session == nil {
		return nil
	}
	if d, ok := tx.session.(database.Discarder); ok && tx.dirty {
		return d.Discard()
	}
	return tx.session.Dispose()
}

func (tx *Transaction) isClosed() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.closed
}
