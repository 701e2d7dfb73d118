package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/dbbridge/pkg/coltype"
	"github.com/leapstack-labs/dbbridge/pkg/database"
	"github.com/spf13/cobra"
)

// NewClassifyCommand creates the classify command.
func NewClassifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify TYPE...",
		Short: "Show the column type tag for declared type names",
		Long: `Classify declared column type names for the configured dialect.

Names are matched case-insensitively with any size suffix such as (255)
ignored. Unknown names are reported as such; query results fall back to Text
for them.`,
		Example: `  dbbridge classify INTEGER "VARCHAR(32)" jsonb
  dbbridge classify --dialect postgresql TIMESTAMPTZ BYTEA`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig(cmd.Context())
			d := database.Dialect(strings.ToLower(cfg.Target.Dialect))

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"type", "tag", "name"})
			for _, name := range args {
				tag, ok := coltype.Classify(d, name)
				if !ok {
					t.AppendRow(table.Row{name, "-", "unknown"})
					continue
				}
				t.AppendRow(table.Row{name, int(tag), tag.String()})
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dialect: %s\n", d)
			t.Render()
			return nil
		},
	}
	return cmd
}
