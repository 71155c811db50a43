package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/otf2sum/internal/config"
	"github.com/wesleyorama2/otf2sum/internal/output"
)

var version = "0.1.0"

// NewRootCmd builds the command tree. Each call returns fresh commands with
// their own flag state.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "otf2sum",
		Short:   "Summarize the events of OTF2 trace archives",
		Version: version,
		Long: `otf2sum reads a performance trace archive, walks its event stream once
in timestamp order and reports event-kind counts together with the distinct
locations, regions and metrics it observed.

Archives use the OTF2 directory layout (traces.otf2, traces.def, traces/*.evt)
with MessagePack-encoded definitions and events. Binary archives written by
the OTF2 C library, such as Score-P output, are not readable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "Diagnostic log level (trace, debug, info, warn, error, disabled)")

	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newClockCmd())
	cmd.AddCommand(newDefsCmd())
	cmd.AddCommand(newSchemaCmd())
	return cmd
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = NewRootCmd()

// Execute runs the root command and prints any error to stderr.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger returns a console logger on w. Colors follow the same rules as
// the report output.
func newLogger(w io.Writer, level string, noColor bool) (zerolog.Logger, error) {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor || !output.IsTerminal(w),
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// loggerFromFlags builds the logger from the persistent flags.
func loggerFromFlags(cmd *cobra.Command) (zerolog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	noColor, _ := cmd.Flags().GetBool("no-color")
	return newLogger(cmd.ErrOrStderr(), level, noColor)
}
