package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/otf2sum/internal/config"
	"github.com/wesleyorama2/otf2sum/internal/otf2"
	"github.com/wesleyorama2/otf2sum/internal/output"
	"github.com/wesleyorama2/otf2sum/internal/summary"
	"github.com/wesleyorama2/otf2sum/internal/timing"
	"github.com/wesleyorama2/otf2sum/pkg/jsonpath"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [ARCHIVE]",
		Short: "Print clock properties, timings and the event summary of an archive",
		Long: `Report opens the archive, prints its clock properties, reads every event
once and prints the event summary: total events, counts per event kind,
unique locations, unique regions and the metrics that were sampled.

ARCHIVE is the anchor file (traces.otf2) or the directory holding it. Only
MessagePack-encoded archives are read; see "otf2sum --help". ARCHIVE may also
be set with "archive" in the configuration file.

With --format json or yaml the progress lines go to stderr and stdout holds
only the structured report. --extract prints the values of JSONPath
expressions evaluated against the JSON report instead.`,
		Example: `  otf2sum report run/traces.otf2
  otf2sum report run/ --format json
  otf2sum report run/ --extract '$.events.total' --extract '$.metrics.names'
  otf2sum report --config otf2sum.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReport,
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file (YAML, JSON or TOML)")
	cmd.Flags().StringP("format", "f", config.FormatText, "Output format (text, json, yaml)")
	cmd.Flags().BoolP("verbose", "v", false, "Also print definition counts, location spread and name listings")
	cmd.Flags().StringArrayP("extract", "e", nil, "JSONPath expression evaluated against the JSON report (repeatable)")
	return cmd
}

// buildReportConfig merges the configuration file with the command line.
// Flags that were set explicitly win.
func buildReportConfig(cmd *cobra.Command, args []string) (*config.ReportConfig, error) {
	flags := cmd.Flags()

	cfg := config.Default()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("no-color") {
		cfg.NoColor, _ = flags.GetBool("no-color")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("extract") {
		cfg.Extract, _ = flags.GetStringArray("extract")
	}
	if len(args) == 1 {
		cfg.Archive = args[0]
	}

	if cfg.Archive == "" {
		return nil, errors.New("no archive given: pass ARCHIVE or set archive in the config file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	timer := timing.NewTimer()
	execution := timer.Begin(timing.PhaseExecution)

	cfg, err := buildReportConfig(cmd, args)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.NoColor)
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	structured := cfg.Format != config.FormatText || len(cfg.Extract) > 0
	progress := stdout
	if structured {
		progress = cmd.ErrOrStderr()
	}
	printer := output.NewPrinter(progress, cfg.Verbose, cfg.NoColor)

	res, err := collect(cfg.Archive, printer, timer, log)
	if err != nil {
		return err
	}
	printer.Elapsed(output.ElapsedExecution, timer.End(execution))

	var spread *summary.Spread
	if cfg.Verbose || structured {
		s, err := res.report.LocationSpread()
		if err != nil {
			return fmt.Errorf("failed to compute location spread: %w", err)
		}
		spread = &s
	}

	if !structured {
		printer.Report(res.report)
		printer.Listing(res.report)
		if spread != nil {
			printer.Spread(*spread)
		}
		printer.Phases(timer.Summary())
		return nil
	}

	data := output.NewReportData(res.path, res.clock, res.report, res.begins, spread, timer.Report())
	if len(cfg.Extract) > 0 {
		doc, err := data.JSON()
		if err != nil {
			return err
		}
		values, err := jsonpath.ExtractAll(string(doc), cfg.Extract)
		if err != nil {
			return fmt.Errorf("failed to extract values: %w", err)
		}
		for _, v := range values {
			fmt.Fprintln(stdout, v)
		}
		return nil
	}

	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	return output.Encode(stdout, format, data)
}

// result is what one pass over an archive produced.
type result struct {
	path   string
	clock  otf2.ClockProperties
	report *summary.Report
	begins []output.ProgramBeginData
}

// collect times the whole archive pass, archive release included.
func collect(path string, printer *output.Printer, timer *timing.Timer, log zerolog.Logger) (*result, error) {
	total := timer.Begin(timing.PhaseTotal)
	res, err := summarizeArchive(path, printer, timer, log)
	if err != nil {
		return nil, err
	}
	printer.Elapsed(output.ElapsedTotal, timer.End(total))
	return res, nil
}

// summarizeArchive opens the archive, prints its clock block and summarizes
// its events. The archive is closed on every return path.
func summarizeArchive(path string, printer *output.Printer, timer *timing.Timer, log zerolog.Logger) (res *result, err error) {
	open := timer.Begin(timing.PhaseOpen)
	archive, err := otf2.Open(path, otf2.WithLogger(log))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := archive.Close(); cerr != nil && err == nil {
			res, err = nil, fmt.Errorf("failed to close archive: %w", cerr)
		}
	}()

	clock := archive.Clock()
	printer.ClockProperties(clock)
	printer.Elapsed(output.ElapsedOpen, timer.End(open))
	timer.Record(timing.PhaseDefinitions, archive.DefinitionsElapsed())
	printer.ArchiveCounts(archive.NumberOfLocations(), archive.Definitions().Read)

	events, err := archive.Events()
	if err != nil {
		return nil, err
	}

	res = &result{path: archive.Path(), clock: clock}
	process := timer.Begin(timing.PhaseProcess)
	report, err := summary.Summarize(events, summary.Options{
		OnProgramBegin: func(loc *otf2.Location, ev *otf2.ProgramBegin) {
			printer.ProgramBegin(loc.Name, ev.Time(), clock.GlobalOffset)
			res.begins = append(res.begins, output.ProgramBeginData{
				Location:     loc.Name,
				Time:         ev.Time(),
				GlobalOffset: clock.GlobalOffset,
			})
		},
	})
	if err != nil {
		return nil, err
	}
	printer.Elapsed(output.ElapsedProcess, timer.End(process))
	res.report = report

	log.Debug().
		Uint64("events", report.TotalEvents).
		Int("locations", report.UniqueLocations()).
		Msg("archive summarized")
	return res, nil
}
