package output

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/wesleyorama2/otf2sum/internal/otf2"
	"github.com/wesleyorama2/otf2sum/internal/summary"
)

// Labels of the elapsed-time lines.
const (
	ElapsedOpen      = "Time taken to open OTF2 archive"
	ElapsedProcess   = "Time taken to read and process events"
	ElapsedTotal     = "Total time"
	ElapsedExecution = "Total execution time"
)

// Printer writes the human-readable report. Every method writes straight to
// the underlying writer so progress lines appear as the run advances.
type Printer struct {
	w       io.Writer
	scheme  *ColorScheme
	Verbose bool
}

// NewPrinter creates a printer. Colors are used only when noColor is false
// and w is a terminal.
func NewPrinter(w io.Writer, verbose, noColor bool) *Printer {
	return &Printer{
		w:       w,
		scheme:  SchemeFor(noColor, IsTerminal(w)),
		Verbose: verbose,
	}
}

// NewPrinterWithScheme creates a printer with an explicit color scheme.
func NewPrinterWithScheme(w io.Writer, verbose bool, scheme *ColorScheme) *Printer {
	return &Printer{w: w, scheme: scheme, Verbose: verbose}
}

func (p *Printer) header(title string) {
	fmt.Fprintln(p.w, p.scheme.Header.Sprint(title))
}

func (p *Printer) field(label string, value any) {
	fmt.Fprintf(p.w, "  %s: %s\n", p.scheme.Label.Sprintf("%-19s", label), p.scheme.Value.Sprint(value))
}

func (p *Printer) line(label string, value any) {
	fmt.Fprintf(p.w, "%s: %s\n", label, p.scheme.Value.Sprint(value))
}

func (p *Printer) names(title string, names []string) {
	p.header(title)
	for _, name := range names {
		fmt.Fprintf(p.w, "  %s\n", p.scheme.Name.Sprint(name))
	}
}

// ClockProperties prints the four clock fields as stored in the archive.
func (p *Printer) ClockProperties(c otf2.ClockProperties) {
	p.header("Trace Clock Properties:")
	p.field("Timer Resolution", c.TimerResolution)
	p.field("Global Offset", c.GlobalOffset)
	p.field("Trace Length", c.TraceLength)
	p.field("Realtime Timestamp", c.RealtimeTimestamp)
}

// Elapsed prints one elapsed-time line in seconds with two decimals.
func (p *Printer) Elapsed(label string, d time.Duration) {
	fmt.Fprintf(p.w, "%s: %s\n", label, p.scheme.Elapsed.Sprintf("%.2f seconds", d.Seconds()))
}

// ArchiveCounts prints the location and definition counts of an opened
// archive. Verbose only.
func (p *Printer) ArchiveCounts(locations, definitions uint64) {
	if !p.Verbose {
		return
	}
	p.line("Number of locations", locations)
	p.line("Global definitions read", definitions)
}

// ProgramBegin prints the diagnostic pair for a ProgramBegin event.
func (p *Printer) ProgramBegin(location string, ts, globalOffset uint64) {
	fmt.Fprintf(p.w, "%s at location %s with time %d\n",
		p.scheme.Notice.Sprint("Program Begin Event"), location, ts)
	fmt.Fprintf(p.w, "Time from clock properties: %d\n", globalOffset)
}

// Report prints the event summary.
func (p *Printer) Report(r *summary.Report) {
	fmt.Fprintln(p.w)
	p.header("Event Summary:")
	p.line("Total number of events", r.TotalEvents)
	fmt.Fprintln(p.w, "Event types and their counts:")
	for _, kc := range r.Kinds() {
		fmt.Fprintf(p.w, "  %s: %s events\n", p.scheme.Label.Sprint(kc.Kind), p.scheme.Value.Sprint(kc.Count))
	}
	p.line("Total unique locations", r.UniqueLocations())
	p.line("Total unique regions", r.UniqueRegions())
	p.line("Total metric events", r.MetricEvents)
	p.line("Total unique metrics", r.UniqueMetrics())
	p.names("Unique metrics:", r.Metrics())
}

// Listing prints the unique locations and regions. Verbose only.
func (p *Printer) Listing(r *summary.Report) {
	if !p.Verbose {
		return
	}
	p.names("Unique locations:", r.Locations())
	p.names("Unique regions:", r.Regions())
}

// Spread prints the events-per-location distribution. Verbose only.
func (p *Printer) Spread(s summary.Spread) {
	if !p.Verbose || s.Locations == 0 {
		return
	}
	p.header("Events per location:")
	p.field("Min", s.Min)
	p.field("Median", s.Median)
	p.field("Max", s.Max)
	p.field("Mean", fmt.Sprintf("%.2f", s.Mean))
}

// Phases prints a preformatted phase table. Verbose only.
func (p *Printer) Phases(table string) {
	if !p.Verbose || table == "" {
		return
	}
	p.header("Phases:")
	fmt.Fprint(p.w, table)
}

// Definitions prints the global definitions of an archive: counts first,
// then locations in definition order and regions by reference.
func (p *Printer) Definitions(d *otf2.Definitions) {
	p.header("Global Definitions:")
	p.field("Definitions read", d.Read)
	p.field("Strings", len(d.Strings))
	p.field("Location groups", len(d.LocationGroups))
	p.field("Locations", len(d.Locations))
	p.field("Regions", len(d.Regions))
	p.field("Metric members", len(d.MetricMembers))
	p.field("Metric classes", len(d.MetricClasses))

	p.header("Locations:")
	for _, loc := range d.Locations {
		group := ""
		if loc.Group != nil {
			group = loc.Group.Name
		}
		fmt.Fprintf(p.w, "  %s [%s] group=%s events=%d\n",
			p.scheme.Name.Sprint(loc.Name), loc.Type, group, loc.NumberOfEvents)
	}

	regions := make([]*otf2.Region, 0, len(d.Regions))
	for _, r := range d.Regions {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Ref < regions[j].Ref })
	p.header("Regions:")
	for _, r := range regions {
		fmt.Fprintf(p.w, "  %s\n", p.scheme.Name.Sprint(r.Name))
	}

	members := make([]*otf2.MetricMember, 0, len(d.MetricMembers))
	for _, m := range d.MetricMembers {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Ref < members[j].Ref })
	p.header("Metric members:")
	for _, m := range members {
		if m.Unit != "" {
			fmt.Fprintf(p.w, "  %s (%s)\n", p.scheme.Name.Sprint(m.Name), m.Unit)
			continue
		}
		fmt.Fprintf(p.w, "  %s\n", p.scheme.Name.Sprint(m.Name))
	}
}
