package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/dbbridge/internal/config"
	"github.com/leapstack-labs/dbbridge/pkg/database"
	"github.com/leapstack-labs/dbbridge/pkg/driveradapter"
	"github.com/spf13/cobra"
)

type configKey struct{}

type loggerKey struct{}

// WithConfig stores the loaded configuration in ctx.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores the logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetConfig retrieves the config from ctx, or a default config.
func GetConfig(ctx context.Context) *config.Config {
	if ctx != nil {
		if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
			return c
		}
	}
	return &config.Config{
		Target:          config.TargetConfig{Dialect: config.DefaultDialect},
		TimestampFormat: config.DefaultTimestampFormat,
		MigrationsDir:   config.DefaultMigrationsDir,
		Output:          config.DefaultOutput,
	}
}

// GetLogger retrieves the logger from ctx.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	DB      database.Database
	Adapter *driveradapter.Adapter
}

// NewCommandContext opens the configured target and connects an adapter.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	logger := GetLogger(ctx)

	db, err := database.Open(ctx, cfg.Target.ToDatabaseConfig(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s database: %w", cfg.Target.Dialect, err)
	}

	adapter, err := driveradapter.New(db,
		driveradapter.WithLogger(logger),
		driveradapter.WithTimestampFormat(cfg.Format()),
	).Connect(ctx)
	if err != nil {
		_ = db.Dispose()
		return nil, nil, fmt.Errorf("failed to connect adapter: %w", err)
	}

	cleanup := func() {
		if err := adapter.Dispose(); err != nil {
			logger.Warn("failed to dispose database", slog.String("error", err.Error()))
		}
	}

	return &CommandContext{
		Cfg:     cfg,
		Logger:  logger,
		DB:      db,
		Adapter: adapter,
	}, cleanup, nil
}
