package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/otf2sum/internal/otf2"
	"github.com/wesleyorama2/otf2sum/internal/output"
)

func newDefsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defs ARCHIVE",
		Short: "Print the global definitions of an archive",
		Long: `Defs prints how many definitions of each kind the archive holds, then
lists its locations in definition order, its regions and its metric members.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(cmd, args[0], func(archive *otf2.Archive, printer *output.Printer) error {
				printer.Definitions(archive.Definitions())
				return nil
			})
		},
	}
}
