package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/dbbridge/pkg/driveradapter"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query and exec commands.
type QueryOptions struct {
	Args           []string
	Input          string
	Transaction    bool
	IsolationLevel string
}

func addQueryFlags(cmd *cobra.Command, opts *QueryOptions) {
	cmd.Flags().StringArrayVarP(&opts.Args, "arg", "a", nil, "Positional argument as type:value (repeatable), e.g. int:42, datetime:2024-01-01, null:")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().BoolVar(&opts.Transaction, "transaction", false, "Run inside a transaction and commit on success")
	cmd.Flags().StringVar(&opts.IsolationLevel, "isolation-level", "", "Isolation level for --transaction (e.g. SERIALIZABLE)")

	_ = cmd.RegisterFlagCompletionFunc("isolation-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			string(driveradapter.ReadUncommitted),
			string(driveradapter.ReadCommitted),
			string(driveradapter.RepeatableRead),
			string(driveradapter.Snapshot),
			string(driveradapter.Serializable),
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a query and print its rows",
		Long: `Run a raw SQL query through the driver adapter and print the typed result set.

Arguments are bound positionally and coerced by their declared type, exactly
as an ORM would send them.`,
		Example: `  # Query with arguments
  dbbridge query "SELECT * FROM users WHERE id = ? AND active = ?" --arg int:1 --arg boolean:true

  # Output as JSON, including column type tags
  dbbridge query "SELECT * FROM users" -o json

  # Read SQL from a file inside a serializable transaction
  dbbridge query -i report.sql --transaction --isolation-level SERIALIZABLE`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}
	addQueryFlags(cmd, opts)
	return cmd
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "exec [SQL]",
		Short: "Run a statement and print the affected row count",
		Example: `  dbbridge exec "UPDATE users SET active = ? WHERE id = ?" --arg boolean:false --arg int:7
  dbbridge exec "DELETE FROM sessions WHERE expires_at < ?" --arg datetime:2024-01-01T00:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args, opts)
		},
	}
	addQueryFlags(cmd, opts)
	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	q, err := buildQuery(cmd, args, opts)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var rs *driveradapter.ResultSet
	err = withQueryable(cmd.Context(), cmdCtx, opts, func(ctx context.Context, target driveradapter.Queryable) error {
		var qerr error
		rs, qerr = target.QueryRaw(ctx, q)
		return qerr
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	return renderResultSet(cmd.OutOrStdout(), rs, cmdCtx.Cfg.Output)
}

func runExec(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	q, err := buildQuery(cmd, args, opts)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var affected int64
	err = withQueryable(cmd.Context(), cmdCtx, opts, func(ctx context.Context, target driveradapter.Queryable) error {
		var xerr error
		affected, xerr = target.ExecuteRaw(ctx, q)
		return xerr
	})
	if err != nil {
		return fmt.Errorf("statement failed: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", affected)
	return nil
}

// withQueryable runs fn on the adapter, or inside a transaction that
// commits when fn succeeds and rolls back otherwise.
func withQueryable(ctx context.Context, cmdCtx *CommandContext, opts *QueryOptions, fn func(context.Context, driveradapter.Queryable) error) error {
	if !opts.Transaction {
		if opts.IsolationLevel != "" {
			return errors.New("--isolation-level requires --transaction")
		}
		return fn(ctx, cmdCtx.Adapter)
	}

	level := driveradapter.IsolationLevel(strings.ToUpper(strings.TrimSpace(opts.IsolationLevel)))
	tx, err := cmdCtx.Adapter.StartTransaction(ctx, level)
	if err != nil {
		return err
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			cmdCtx.Logger.Warn("rollback failed",
				slog.String("tx_id", tx.ID()),
				slog.String("error", rbErr.Error()))
		}
		return err
	}
	return tx.Commit(ctx)
}

func buildQuery(cmd *cobra.Command, args []string, opts *QueryOptions) (driveradapter.Query, error) {
	sql, err := readSQL(cmd, args, opts.Input)
	if err != nil {
		return driveradapter.Query{}, err
	}

	values, types, err := parseArgs(opts.Args)
	if err != nil {
		return driveradapter.Query{}, err
	}

	return driveradapter.Query{SQL: sql, Args: values, ArgTypes: types}, nil
}

// readSQL takes SQL from positional args, then --input, then piped stdin.
func readSQL(cmd *cobra.Command, args []string, input string) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case input != "":
		content, err := os.ReadFile(input)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(content), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return "", errors.New("no SQL given (pass it as an argument, with --input, or on stdin)")
	}
	content, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return "", errors.New("no SQL given (pass it as an argument, with --input, or on stdin)")
	}
	return string(content), nil
}
