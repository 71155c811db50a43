package summary

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/otf2sum/internal/otf2"
	"github.com/wesleyorama2/otf2sum/internal/otf2/format"
	"github.com/wesleyorama2/otf2sum/internal/otf2/otf2test"
)

// sliceSource replays a fixed list of events, then returns err (io.EOF if nil).
type sliceSource struct {
	locs   []*otf2.Location
	events []otf2.Event
	err    error
	pos    int
}

func (s *sliceSource) add(loc *otf2.Location, ev otf2.Event) *sliceSource {
	s.locs = append(s.locs, loc)
	s.events = append(s.events, ev)
	return s
}

func (s *sliceSource) ReadEvent() (*otf2.Location, otf2.Event, error) {
	if s.pos >= len(s.events) {
		if s.err != nil {
			return nil, nil, s.err
		}
		return nil, nil, io.EOF
	}
	i := s.pos
	s.pos++
	return s.locs[i], s.events[i], nil
}

var (
	rank0 = &otf2.Location{Name: "rank0"}
	rank1 = &otf2.Location{Name: "rank1"}

	regionA = &otf2.Region{Name: "A"}
	regionB = &otf2.Region{Name: "B"}

	flopsClass = &otf2.MetricClass{Members: []*otf2.MetricMember{{Name: "flops"}}}
	powerClass = &otf2.MetricClass{Members: []*otf2.MetricMember{{Name: "power"}}}
)

func enter(ts uint64, r *otf2.Region) *otf2.Enter {
	return &otf2.Enter{Base: otf2.Base{Timestamp: ts}, Region: r}
}

func leave(ts uint64, r *otf2.Region) *otf2.Leave {
	return &otf2.Leave{Base: otf2.Base{Timestamp: ts}, Region: r}
}

func metric(ts uint64, c *otf2.MetricClass, v float64) *otf2.Metric {
	return &otf2.Metric{Base: otf2.Base{Timestamp: ts}, Class: c, Values: []float64{v}}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		event otf2.Event
		want  Record
	}{
		{
			name:  "enter",
			event: enter(1, regionA),
			want:  Record{Location: "rank0", Kind: KindEnter, Region: "A", HasRegion: true},
		},
		{
			name:  "leave",
			event: leave(1, regionB),
			want:  Record{Location: "rank0", Kind: KindLeave, Region: "B", HasRegion: true},
		},
		{
			name:  "metric",
			event: metric(1, flopsClass, 42),
			want:  Record{Location: "rank0", Kind: KindMetric, Metric: "flops", HasMetric: true, Value: 42},
		},
		{
			name:  "program begin is unknown",
			event: &otf2.ProgramBegin{ProgramName: "./app"},
			want:  Record{Location: "rank0", Kind: KindUnknown},
		},
		{
			name:  "program end",
			event: &otf2.ProgramEnd{},
			want:  Record{Location: "rank0", Kind: KindUnknown},
		},
		{
			name:  "mpi send",
			event: &otf2.MpiSend{Receiver: 1},
			want:  Record{Location: "rank0", Kind: KindUnknown},
		},
		{
			name:  "unmodelled record",
			event: &otf2.Other{Type: format.RecordType(99)},
			want:  Record{Location: "rank0", Kind: KindUnknown},
		},
		{
			name:  "enter with undefined region",
			event: enter(1, nil),
			want:  Record{Location: "rank0", Kind: KindEnter},
		},
		{
			name:  "enter with unnamed region",
			event: enter(1, &otf2.Region{}),
			want:  Record{Location: "rank0", Kind: KindEnter, HasRegion: true},
		},
		{
			name:  "metric with unnamed member",
			event: metric(1, &otf2.MetricClass{Members: []*otf2.MetricMember{{}}}, 7),
			want:  Record{Location: "rank0", Kind: KindMetric, HasMetric: true, Value: 7},
		},
		{
			name:  "metric with undefined class",
			event: &otf2.Metric{Values: []float64{3}},
			want:  Record{Location: "rank0", Kind: KindMetric, Value: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(rank0, tt.event)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Kind.Valid())
		})
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, Kind("ProgramBegin").Valid())
	assert.False(t, Kind("").Valid())
}

func TestSummarize_Scenario(t *testing.T) {
	src := (&sliceSource{}).
		add(rank0, enter(1, regionA)).
		add(rank0, enter(2, regionA)).
		add(rank0, enter(3, regionB)).
		add(rank0, leave(4, regionA)).
		add(rank0, leave(5, regionB)).
		add(rank0, metric(6, flopsClass, 42.0))

	report, err := Summarize(src, Options{})
	require.NoError(t, err)

	assert.Equal(t, uint64(6), report.TotalEvents)
	assert.Equal(t, uint64(3), report.Count(KindEnter))
	assert.Equal(t, uint64(2), report.Count(KindLeave))
	assert.Equal(t, uint64(1), report.Count(KindMetric))
	assert.Equal(t, uint64(0), report.Count(KindUnknown))
	assert.Equal(t, []string{"rank0"}, report.Locations())
	assert.Equal(t, []string{"A", "B"}, report.Regions())
	assert.Equal(t, uint64(1), report.MetricEvents)
	assert.Equal(t, []string{"flops"}, report.Metrics())

	want := []KindCount{{KindEnter, 3}, {KindLeave, 2}, {KindMetric, 1}}
	if diff := cmp.Diff(want, report.Kinds()); diff != "" {
		t.Errorf("Kinds() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_KindsInFirstSeenOrder(t *testing.T) {
	src := (&sliceSource{}).
		add(rank0, metric(1, powerClass, 1)).
		add(rank0, &otf2.ProgramBegin{}).
		add(rank0, leave(2, regionA)).
		add(rank0, enter(3, regionA))

	report, err := Summarize(src, Options{})
	require.NoError(t, err)

	var got []Kind
	for _, kc := range report.Kinds() {
		got = append(got, kc.Kind)
	}
	assert.Equal(t, []Kind{KindMetric, KindUnknown, KindLeave, KindEnter}, got)
}

func TestSummarize_Invariants(t *testing.T) {
	src := (&sliceSource{}).
		add(rank0, &otf2.ProgramBegin{}).
		add(rank0, enter(1, regionA)).
		add(rank1, enter(1, regionA)).
		add(rank1, metric(2, powerClass, 10)).
		add(rank1, metric(3, powerClass, 11)).
		add(rank0, metric(3, flopsClass, 5)).
		add(rank0, leave(4, regionA)).
		add(rank1, &otf2.BufferFlush{}).
		add(rank1, leave(5, nil))

	report, err := Summarize(src, Options{})
	require.NoError(t, err)

	var sum uint64
	for _, kc := range report.Kinds() {
		assert.True(t, kc.Kind.Valid(), "unexpected kind %q", kc.Kind)
		sum += kc.Count
	}
	assert.Equal(t, uint64(len(src.events)), sum)
	assert.Equal(t, report.TotalEvents, sum)

	assert.LessOrEqual(t, uint64(report.UniqueLocations()), report.TotalEvents)
	assert.GreaterOrEqual(t, report.MetricEvents, uint64(report.UniqueMetrics()))
	assert.Equal(t, uint64(3), report.MetricEvents)
	assert.Equal(t, []string{"power", "flops"}, report.Metrics())

	// The Leave without a region is counted but adds no region.
	assert.Equal(t, uint64(2), report.Count(KindLeave))
	assert.Equal(t, []string{"A"}, report.Regions())
	assert.Equal(t, uint64(5), report.LocationEvents("rank1"))
}

func TestSummarize_ProgramBeginHook(t *testing.T) {
	begin := &otf2.ProgramBegin{Base: otf2.Base{Timestamp: 77}, ProgramName: "./app"}
	src := (&sliceSource{}).
		add(rank1, begin).
		add(rank1, enter(80, regionA))

	var seen []string
	report, err := Summarize(src, Options{
		OnProgramBegin: func(loc *otf2.Location, ev *otf2.ProgramBegin) {
			seen = append(seen, loc.Name)
			assert.Equal(t, uint64(77), ev.Time())
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"rank1"}, seen)
	assert.Equal(t, uint64(1), report.Count(KindUnknown))
	assert.Equal(t, uint64(1), report.Count(KindEnter))
}

func TestSummarize_ReadErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	src := (&sliceSource{err: boom}).
		add(rank0, enter(1, regionA))

	report, err := Summarize(src, Options{})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "read event 2")
}

func TestLocationSpread(t *testing.T) {
	src := &sliceSource{}
	for i := 0; i < 10; i++ {
		src.add(rank0, enter(uint64(i), regionA))
	}
	for i := 0; i < 4; i++ {
		src.add(rank1, enter(uint64(i), regionA))
	}
	src.add(&otf2.Location{Name: "rank2"}, enter(0, regionA))

	report, err := Summarize(src, Options{})
	require.NoError(t, err)

	spread, err := report.LocationSpread()
	require.NoError(t, err)
	assert.Equal(t, 3, spread.Locations)
	assert.Equal(t, int64(1), spread.Min)
	assert.Equal(t, int64(10), spread.Max)
	assert.Equal(t, int64(4), spread.Median)
	assert.InDelta(t, 5.0, spread.Mean, 1e-9)

	empty, err := NewAccumulator().Report().LocationSpread()
	require.NoError(t, err)
	assert.Equal(t, Spread{}, empty)
}

func TestLocationSpread_LargeCounts(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
	}{
		{"equal", []int{100_001, 100_001, 100_001}},
		{"mixed", []int{3_000, 5_001, 90_000}},
		{"single", []int{4_097}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccumulator()
			for i, n := range tt.counts {
				loc := fmt.Sprintf("rank%d", i)
				for j := 0; j < n; j++ {
					acc.Add(Record{Location: loc, Kind: KindEnter, Region: "A", HasRegion: true})
				}
			}

			spread, err := acc.Report().LocationSpread()
			require.NoError(t, err)
			assert.GreaterOrEqual(t, spread.Median, spread.Min)
			assert.LessOrEqual(t, spread.Median, spread.Max)

			sorted := slices.Clone(tt.counts)
			slices.Sort(sorted)
			assert.InEpsilon(t, float64(sorted[len(sorted)/2]), float64(spread.Median), 1e-3)
		})
	}
}

func TestSummarize_Archive(t *testing.T) {
	b := otf2test.New()
	loc := b.Location("rank0", b.Group("rank 0"))
	a := b.Region("A")
	bb := b.Region("B")
	flops := b.Metric("flops", "1")
	b.ProgramBegin(loc, 1, "./app").
		Enter(loc, 2, a).
		Enter(loc, 3, a).
		Enter(loc, 4, bb).
		Leave(loc, 5, a).
		Leave(loc, 6, bb).
		MetricSample(loc, 7, flops, 42.0).
		ProgramEnd(loc, 8)
	path, err := b.Write(t.TempDir(), "traces")
	require.NoError(t, err)

	run := func() *Report {
		archive, err := otf2.Open(path)
		require.NoError(t, err)
		defer archive.Close()

		events, err := archive.Events()
		require.NoError(t, err)

		report, err := Summarize(events, Options{})
		require.NoError(t, err)
		return report
	}

	first := run()
	assert.Equal(t, uint64(8), first.TotalEvents)
	assert.Equal(t, uint64(2), first.Count(KindUnknown))
	assert.Equal(t, 2, first.UniqueRegions())
	assert.Equal(t, []string{"flops"}, first.Metrics())

	// Same archive, same answer.
	second := run()
	assert.Equal(t, first.Kinds(), second.Kinds())
	assert.Equal(t, first.Locations(), second.Locations())
	assert.Equal(t, first.Regions(), second.Regions())
	assert.Equal(t, first.Metrics(), second.Metrics())
	assert.Equal(t, first.MetricEvents, second.MetricEvents)
}
