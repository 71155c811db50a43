package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/otf2sum/internal/output"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the structured report",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), output.ReportSchema)
		},
	}
}
