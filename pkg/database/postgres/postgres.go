// Package postgres opens postgresql databases through the pgx driver.
//
// Import this package with a blank identifier to register the opener:
//
//	import _ "github.com/leapstack-labs/dbbridge/pkg/database/postgres"
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/dbbridge/pkg/database"
	"github.com/leapstack-labs/dbbridge/pkg/database/sqldb"
)

func init() {
	database.Register(database.DialectPostgreSQL, Open)
}

// Open connects to PostgreSQL and returns a pooled database handle.
func Open(ctx context.Context, cfg database.Config, logger *slog.Logger) (database.Database, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	connCfg, err := pgx.ParseConfig(BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres connection string: %w", err)
	}

	logger.Debug("connecting to postgres",
		slog.String("host", connCfg.Host),
		slog.String("database", connCfg.Database))

	db := stdlib.OpenDB(*connCfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return sqldb.New(db, database.DialectPostgreSQL, logger), nil
}

// BuildDSN constructs a PostgreSQL connection string. An explicit DSN wins.
func BuildDSN(cfg database.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}
