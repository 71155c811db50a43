package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/otf2sum/internal/otf2"
	"github.com/wesleyorama2/otf2sum/internal/summary"
	"github.com/wesleyorama2/otf2sum/internal/timing"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat maps a format name to an OutputFormat.
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(name); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q", name)
	}
}

// ReportData is the structured form of a report run.
type ReportData struct {
	Archive       string               `json:"archive" yaml:"archive"`
	Clock         otf2.ClockProperties `json:"clock" yaml:"clock"`
	Events        EventsData           `json:"events" yaml:"events"`
	Locations     NamesData            `json:"locations" yaml:"locations"`
	Regions       NamesData            `json:"regions" yaml:"regions"`
	Metrics       MetricsData          `json:"metrics" yaml:"metrics"`
	ProgramBegins []ProgramBeginData   `json:"programBegins,omitempty" yaml:"programBegins,omitempty"`
	Spread        *SpreadData          `json:"spread,omitempty" yaml:"spread,omitempty"`
	Timings       timing.Report        `json:"timings" yaml:"timings"`
}

// EventsData holds the event totals.
type EventsData struct {
	Total uint64     `json:"total" yaml:"total"`
	Kinds []KindData `json:"kinds" yaml:"kinds"`
}

// KindData is the count of one event kind.
type KindData struct {
	Kind  string `json:"kind" yaml:"kind"`
	Count uint64 `json:"count" yaml:"count"`
}

// NamesData is a set of distinct names in first-seen order.
type NamesData struct {
	Unique int      `json:"unique" yaml:"unique"`
	Names  []string `json:"names" yaml:"names"`
}

// MetricsData counts metric events and their distinct members.
type MetricsData struct {
	Events uint64   `json:"events" yaml:"events"`
	Unique int      `json:"unique" yaml:"unique"`
	Names  []string `json:"names" yaml:"names"`
}

// ProgramBeginData is one ProgramBegin event seen during the pass.
type ProgramBeginData struct {
	Location     string `json:"location" yaml:"location"`
	Time         uint64 `json:"time" yaml:"time"`
	GlobalOffset uint64 `json:"globalOffset" yaml:"globalOffset"`
}

// SpreadData is the events-per-location distribution.
type SpreadData struct {
	Min    int64   `json:"min" yaml:"min"`
	Median int64   `json:"median" yaml:"median"`
	Max    int64   `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
}

// NewReportData builds the structured form of a finished run. spread may be
// nil.
func NewReportData(archive string, clock otf2.ClockProperties, r *summary.Report,
	begins []ProgramBeginData, spread *summary.Spread, timings timing.Report) *ReportData {
	data := &ReportData{
		Archive: archive,
		Clock:   clock,
		Events: EventsData{
			Total: r.TotalEvents,
			Kinds: make([]KindData, 0, len(summary.Kinds)),
		},
		Locations:     NamesData{Unique: r.UniqueLocations(), Names: r.Locations()},
		Regions:       NamesData{Unique: r.UniqueRegions(), Names: r.Regions()},
		Metrics:       MetricsData{Events: r.MetricEvents, Unique: r.UniqueMetrics(), Names: r.Metrics()},
		ProgramBegins: begins,
		Timings:       timings,
	}
	for _, kc := range r.Kinds() {
		data.Events.Kinds = append(data.Events.Kinds, KindData{Kind: string(kc.Kind), Count: kc.Count})
	}
	if spread != nil {
		data.Spread = &SpreadData{
			Min:    spread.Min,
			Median: spread.Median,
			Max:    spread.Max,
			Mean:   spread.Mean,
		}
	}
	return data
}

// JSON returns the indented JSON document.
func (d *ReportData) JSON() ([]byte, error) {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	return out, nil
}

// Encode writes data to w in the given structured format.
func Encode(w io.Writer, format OutputFormat, data *ReportData) error {
	switch format {
	case FormatJSON:
		out, err := data.JSON()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(out)); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to marshal report to YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q is not a structured format", format)
	}
}
