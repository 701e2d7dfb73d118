package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Config holds the configuration for opening a database handle.
type Config struct {
	// Dialect selects the registered opener.
	Dialect Dialect

	// Path is the file path for embedded databases. Use ":memory:" for an
	// in-memory database.
	Path string

	// DSN, when set, is passed to the driver verbatim and the network
	// fields below are ignored.
	DSN string

	// Host is the hostname for network databases.
	Host string

	// Port is the port number for network databases.
	Port int

	// Database is the database name.
	Database string

	// Username for authentication.
	Username string

	// Password for authentication.
	Password string

	// Options contains additional driver-specific options.
	Options map[string]string
}

// Opener opens a Database for a registered dialect.
type Opener func(ctx context.Context, cfg Config, logger *slog.Logger) (Database, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[Dialect]Opener)
)

// Register adds an opener to the registry.
// Called by driver packages in their init() functions.
func Register(d Dialect, opener Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d] = opener
}

// Get retrieves the opener registered for a dialect.
func Get(d Dialect) (Opener, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	o, ok := registry[d]
	return o, ok
}

// Open opens a Database using the opener registered for cfg.Dialect.
// The logger is passed to the opener (nil uses a discard logger).
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Database, error) {
	if cfg.Dialect == "" {
		return nil, fmt.Errorf("database dialect not specified")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opener, ok := Get(cfg.Dialect)
	if !ok {
		return nil, &UnknownDialectError{
			Dialect:   cfg.Dialect,
			Available: ListDialects(),
		}
	}
	return opener(ctx, cfg, logger)
}

// ListDialects returns all registered dialects (sorted).
func ListDialects() []Dialect {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]Dialect, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// IsRegistered checks if an opener is registered for the dialect.
func IsRegistered(d Dialect) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[d]
	return ok
}

// UnknownDialectError is returned when no opener is registered for a dialect.
type UnknownDialectError struct {
	Dialect   Dialect
	Available []Dialect
}

func (e *UnknownDialectError) Error() string {
	return fmt.Sprintf("unknown database dialect %q\nAvailable dialects: %v\nHint: Check target.dialect in dbbridge.yaml", e.Dialect, e.Available)
}
