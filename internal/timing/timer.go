// Package timing records how long the phases of a report run take.
package timing

import (
	"fmt"
	"strings"
	"time"
)

// Phase names used by the report command.
const (
	PhaseOpen        = "open"
	PhaseDefinitions = "definitions"
	PhaseProcess     = "process"
	PhaseTotal       = "total"

	// PhaseExecution spans the whole command, configuration loading included.
	PhaseExecution = "execution"
)

// Phase records the duration of one named step.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Done  bool
}

// Timer tracks named phases. Phases may nest or overlap; each one is timed
// independently. A Timer is not safe for concurrent use.
type Timer struct {
	phases []Phase
	now    func() time.Time
}

// NewTimer creates an empty Timer.
func NewTimer() *Timer {
	return &Timer{phases: make([]Phase, 0, 4), now: time.Now}
}

// Begin starts a phase and returns its index.
func (t *Timer) Begin(name string) int {
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End finishes the phase at idx and returns its duration. Ending a phase
// twice keeps the first measurement.
func (t *Timer) End(idx int) time.Duration {
	if idx < 0 || idx >= len(t.phases) {
		return 0
	}
	p := &t.phases[idx]
	if !p.Done {
		p.Dur = t.now().Sub(p.Start)
		p.Done = true
	}
	return p.Dur
}

// Record adds a phase that was measured elsewhere, such as inside a
// constructor, and returns its index.
func (t *Timer) Record(name string, d time.Duration) int {
	t.phases = append(t.phases, Phase{Name: name, Start: t.now().Add(-d), Dur: d, Done: true})
	return len(t.phases) - 1
}

// Duration returns the measured duration of the named phase.
func (t *Timer) Duration(name string) (time.Duration, bool) {
	for _, p := range t.phases {
		if p.Name == name && p.Done {
			return p.Dur, true
		}
	}
	return 0, false
}

// Phases returns a copy of the recorded phases.
func (t *Timer) Phases() []Phase {
	out := make([]Phase, len(t.phases))
	copy(out, t.phases)
	return out
}

// Report is the serializable form of a Timer.
type Report struct {
	Phases []PhaseReport `json:"phases" yaml:"phases"`
}

// PhaseReport is one finished phase in seconds.
type PhaseReport struct {
	Name    string  `json:"name" yaml:"name"`
	Seconds float64 `json:"seconds" yaml:"seconds"`
}

// Report returns the finished phases in the order they were started.
func (t *Timer) Report() Report {
	r := Report{Phases: make([]PhaseReport, 0, len(t.phases))}
	for _, p := range t.phases {
		if !p.Done {
			continue
		}
		r.Phases = append(r.Phases, PhaseReport{Name: p.Name, Seconds: p.Dur.Seconds()})
	}
	return r
}

// Summary returns one line per finished phase.
func (t *Timer) Summary() string {
	var b strings.Builder
	for _, p := range t.Report().Phases {
		fmt.Fprintf(&b, "  %-10s %8.2f s\n", p.Name, p.Seconds)
	}
	return b.String()
}
