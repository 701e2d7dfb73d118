package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/dbbridge/pkg/database"
	"github.com/leapstack-labs/dbbridge/pkg/driveradapter"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Args:  cobra.NoArgs,
		Short: "Show version information",
		Long:  `Display dbbridge version and the registered database dialects.`,
		Run: func(cmd *cobra.Command, _ []string) {
			dialects := database.ListDialects()
			names := make([]string, len(dialects))
			for i, d := range dialects {
				names[i] = d.String()
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dbbridge v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Driver adapter %q for dialects: %s\n",
				driveradapter.AdapterName, strings.Join(names, ", "))
		},
	}
}
