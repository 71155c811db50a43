package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/otf2sum/internal/otf2"
	"github.com/wesleyorama2/otf2sum/internal/output"
)

func newClockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clock ARCHIVE",
		Short: "Print the clock properties of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(cmd, args[0], func(archive *otf2.Archive, printer *output.Printer) error {
				printer.ClockProperties(archive.Clock())
				return nil
			})
		},
	}
}

// withArchive opens path, runs fn with a printer on stdout and closes the
// archive again.
func withArchive(cmd *cobra.Command, path string, fn func(*otf2.Archive, *output.Printer) error) (err error) {
	log, err := loggerFromFlags(cmd)
	if err != nil {
		return err
	}
	noColor, _ := cmd.Flags().GetBool("no-color")

	archive, err := otf2.Open(path, otf2.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := archive.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(archive, output.NewPrinter(cmd.OutOrStdout(), false, noColor))
}
