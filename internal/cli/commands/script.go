package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewScriptCommand creates the script command.
func NewScriptCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "script [FILE]",
		Short: "Execute a multi-statement SQL script",
		Long: `Execute a SQL script verbatim. Statements take no arguments and nothing is
printed on success.`,
		Example: `  dbbridge script schema.sql
  cat seed.sql | dbbridge script`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				input = args[0]
			}
			script, err := readSQL(cmd, nil, input)
			if err != nil {
				return err
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cmdCtx.Adapter.ExecuteScript(cmd.Context(), script); err != nil {
				return fmt.Errorf("script failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Read the script from file")
	return cmd
}
