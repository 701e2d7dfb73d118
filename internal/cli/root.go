// Package cli provides the command-line interface for dbbridge.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/leapstack-labs/dbbridge/internal/cli/commands"
	"github.com/leapstack-labs/dbbridge/internal/config"
	"github.com/spf13/cobra"

	// Register database openers.
	_ "github.com/leapstack-labs/dbbridge/pkg/database/postgres"
	_ "github.com/leapstack-labs/dbbridge/pkg/database/sqlite"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dbbridge",
		Short: "dbbridge - ORM driver adapter for SQL databases",
		Long: `dbbridge serves a postgres, sqlite or libsql database through an ORM
driver-adapter contract: typed result sets, coerced arguments, and
serialized transactions.

The CLI exercises the adapter directly against the configured target.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			res, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), res.Config.Verbose)
			if res.File != "" {
				logger.Debug("using config file", slog.String("path", res.File))
			}

			ctx := commands.WithConfig(cmd.Context(), res.Config)
			ctx = commands.WithLogger(ctx, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./dbbridge.yaml)")
	rootCmd.PersistentFlags().String("dialect", "", "Database dialect (postgresql|sqlite|libsql)")
	rootCmd.PersistentFlags().String("database", "", "Path to the sqlite/libsql database file (:memory: for in-memory)")
	rootCmd.PersistentFlags().String("dsn", "", "Connection string, overrides other target fields")
	rootCmd.PersistentFlags().String("timestamp-format", "", "How date/time arguments are bound (iso8601|unixepoch-ms)")
	rootCmd.PersistentFlags().String("migrations-dir", "", "Directory of goose SQL migrations")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|table|json|csv|md|yaml)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "table", "json", "csv", "md", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"postgresql", "sqlite", "libsql"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("timestamp-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"iso8601", "unixepoch-ms"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewExecCommand())
	rootCmd.AddCommand(commands.NewScriptCommand())
	rootCmd.AddCommand(commands.NewClassifyCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())

	return rootCmd
}

// newLogger builds the stderr text logger; verbose lowers the level to debug.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
