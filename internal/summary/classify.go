// Package summary classifies trace events and folds them into a report.
package summary

import (
	"github.com/wesleyorama2/otf2sum/internal/otf2"
)

// Kind is the classification of an event in the report.
type Kind string

const (
	KindEnter   Kind = "Enter"
	KindLeave   Kind = "Leave"
	KindMetric  Kind = "Metric"
	KindUnknown Kind = "Unknown"
)

// Kinds lists every kind a record can be classified as.
var Kinds = []Kind{KindEnter, KindLeave, KindMetric, KindUnknown}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindEnter, KindLeave, KindMetric, KindUnknown:
		return true
	}
	return false
}

// Record is the classified form of one event.
//
// Region is set for Enter and Leave, Metric and Value for Metric. HasRegion
// and HasMetric are false only when the event references an undefined region
// or metric; such records are still counted under their kind. A defined
// region or member with an empty name is a name like any other.
type Record struct {
	Location  string
	Kind      Kind
	Region    string
	HasRegion bool
	Metric    string
	HasMetric bool
	Value     float64
}

// Classify maps an event to its record. It is total: anything that is not
// Enter, Leave or Metric is Unknown, ProgramBegin included.
func Classify(loc *otf2.Location, ev otf2.Event) Record {
	rec := Record{Kind: KindUnknown}
	if loc != nil {
		rec.Location = loc.Name
	}

	switch e := ev.(type) {
	case *otf2.Enter:
		rec.Kind = KindEnter
		rec.Region, rec.HasRegion = regionName(e.Region)
	case *otf2.Leave:
		rec.Kind = KindLeave
		rec.Region, rec.HasRegion = regionName(e.Region)
	case *otf2.Metric:
		rec.Kind = KindMetric
		if m := e.Member(); m != nil {
			rec.Metric, rec.HasMetric = m.Name, true
		}
		rec.Value = e.Value()
	}
	return rec
}

func regionName(r *otf2.Region) (string, bool) {
	if r == nil {
		return "", false
	}
	return r.Name, true
}
