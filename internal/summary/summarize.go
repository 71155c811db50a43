package summary

import (
	"errors"
	"fmt"
	"io"

	"github.com/wesleyorama2/otf2sum/internal/otf2"
)

// Source yields events in archive order and io.EOF at the end.
// *otf2.GlobalEvtReader implements it.
type Source interface {
	ReadEvent() (*otf2.Location, otf2.Event, error)
}

// Options hooks into the pass.
type Options struct {
	// OnProgramBegin is called for every ProgramBegin event before the
	// event is classified.
	OnProgramBegin func(loc *otf2.Location, ev *otf2.ProgramBegin)
}

// Accumulator folds records into a Report.
type Accumulator struct {
	report *Report
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{report: newReport()}
}

// Add folds one record in.
func (a *Accumulator) Add(rec Record) {
	r := a.report
	r.TotalEvents++

	n, _ := r.kinds.Get(rec.Kind)
	r.kinds.Set(rec.Kind, n+1)

	n, _ = r.locations.Get(rec.Location)
	r.locations.Set(rec.Location, n+1)

	switch rec.Kind {
	case KindEnter, KindLeave:
		if rec.HasRegion {
			n, _ = r.regions.Get(rec.Region)
			r.regions.Set(rec.Region, n+1)
		}
	case KindMetric:
		r.MetricEvents++
		if rec.HasMetric {
			n, _ = r.metrics.Get(rec.Metric)
			r.metrics.Set(rec.Metric, n+1)
		}
	}
}

// Report returns the report built so far. Later calls to Add keep updating
// the returned value.
func (a *Accumulator) Report() *Report {
	return a.report
}

// Summarize makes a single forward pass over src and returns the report.
// A read error aborts the pass; no partial report is returned.
func Summarize(src Source, opts Options) (*Report, error) {
	acc := NewAccumulator()
	for {
		loc, ev, err := src.ReadEvent()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read event %d: %w", acc.report.TotalEvents+1, err)
		}

		// ProgramBegin is checked on its own; it still classifies below.
		if begin, ok := ev.(*otf2.ProgramBegin); ok && opts.OnProgramBegin != nil {
			opts.OnProgramBegin(loc, begin)
		}
		acc.Add(Classify(loc, ev))
	}
	return acc.Report(), nil
}
