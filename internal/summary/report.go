package summary

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/HdrHistogram/hdrhistogram-go"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// KindCount is one entry of the per-kind tally.
type KindCount struct {
	Kind  Kind
	Count uint64
}

// Report is the result of one pass over an archive. Kinds and name sets keep
// first-seen order.
type Report struct {
	TotalEvents  uint64
	MetricEvents uint64

	kinds     *orderedmap.OrderedMap[Kind, uint64]
	locations *orderedmap.OrderedMap[string, uint64]
	regions   *orderedmap.OrderedMap[string, uint64]
	metrics   *orderedmap.OrderedMap[string, uint64]
}

func newReport() *Report {
	return &Report{
		kinds:     orderedmap.New[Kind, uint64](),
		locations: orderedmap.New[string, uint64](),
		regions:   orderedmap.New[string, uint64](),
		metrics:   orderedmap.New[string, uint64](),
	}
}

// Kinds returns the per-kind counts in first-seen order.
func (r *Report) Kinds() []KindCount {
	out := make([]KindCount, 0, r.kinds.Len())
	for pair := r.kinds.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, KindCount{Kind: pair.Key, Count: pair.Value})
	}
	return out
}

// Count returns the number of records of kind k.
func (r *Report) Count(k Kind) uint64 {
	n, _ := r.kinds.Get(k)
	return n
}

// Locations returns the distinct location names in first-seen order.
func (r *Report) Locations() []string { return keys(r.locations) }

// Regions returns the distinct region names in first-seen order.
func (r *Report) Regions() []string { return keys(r.regions) }

// Metrics returns the distinct metric member names in first-seen order.
func (r *Report) Metrics() []string { return keys(r.metrics) }

// UniqueLocations returns the number of distinct locations.
func (r *Report) UniqueLocations() int { return r.locations.Len() }

// UniqueRegions returns the number of distinct regions.
func (r *Report) UniqueRegions() int { return r.regions.Len() }

// UniqueMetrics returns the number of distinct metric members.
func (r *Report) UniqueMetrics() int { return r.metrics.Len() }

// LocationEvents returns how many events were recorded on the named location.
func (r *Report) LocationEvents(name string) uint64 {
	n, _ := r.locations.Get(name)
	return n
}

func keys(m *orderedmap.OrderedMap[string, uint64]) []string {
	out := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Spread describes how events are distributed over locations.
type Spread struct {
	Locations int
	Min       int64
	Median    int64
	Max       int64
	Mean      float64
}

// LocationSpread summarizes the per-location event counts. The median comes
// from an HDR histogram with three significant digits, clamped to [Min, Max]
// because a bucket's upper edge can exceed every recorded count.
func (r *Report) LocationSpread() (Spread, error) {
	s := Spread{Locations: r.locations.Len()}
	if s.Locations == 0 {
		return s, nil
	}

	counts := make([]int64, 0, s.Locations)
	var total int64
	for pair := r.locations.Oldest(); pair != nil; pair = pair.Next() {
		n, err := safecast.Conv[int64](pair.Value)
		if err != nil {
			return Spread{}, fmt.Errorf("location %q: %w", pair.Key, err)
		}
		counts = append(counts, n)
		total += n
		if s.Min == 0 || n < s.Min {
			s.Min = n
		}
		if n > s.Max {
			s.Max = n
		}
	}

	hist := hdrhistogram.New(1, max(s.Max, 2), 3)
	for _, n := range counts {
		if err := hist.RecordValue(n); err != nil {
			return Spread{}, fmt.Errorf("record location count %d: %w", n, err)
		}
	}
	s.Median = min(max(hist.ValueAtQuantile(50), s.Min), s.Max)
	s.Mean = float64(total) / float64(s.Locations)
	return s, nil
}
