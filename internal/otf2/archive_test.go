package otf2_test

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/otf2sum/internal/otf2"
	"github.com/wesleyorama2/otf2sum/internal/otf2/format"
	"github.com/wesleyorama2/otf2sum/internal/otf2/otf2test"
)

type readEvent struct {
	location string
	record   format.RecordType
	time     uint64
}

// readAll drains every event of the archive.
func readAll(t *testing.T, a *otf2.Archive) []readEvent {
	t.Helper()

	events, err := a.Events()
	require.NoError(t, err)
	defer events.Close()

	var out []readEvent
	for {
		loc, ev, err := events.ReadEvent()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		out = append(out, readEvent{location: loc.Name, record: ev.Record(), time: ev.Time()})
	}
	return out
}

func twoRankArchive(t *testing.T, compress bool) string {
	t.Helper()

	b := otf2test.New().Clock(1_000_000, 500, 9_000, 1_700_000_000)
	if compress {
		b.Compress()
	}
	g0 := b.Group("MPI Rank 0")
	g1 := b.Group("MPI Rank 1")
	r0 := b.Location("Master thread", g0)
	r1 := b.Location("Master thread:1", g1)
	main := b.Region("main")
	solve := b.Region("solve")
	power := b.Metric("power", "W")

	b.ProgramBegin(r0, 10, "./app").
		Enter(r0, 20, main).
		Enter(r0, 40, solve).
		Leave(r0, 60, solve).
		Leave(r0, 80, main)
	b.ProgramBegin(r1, 10, "./app").
		Enter(r1, 20, main).
		MetricSample(r1, 30, power, 123.5).
		Leave(r1, 90, main)

	path, err := b.Write(t.TempDir(), "traces")
	require.NoError(t, err)
	return path
}

func TestOpen_ClockAndDefinitions(t *testing.T) {
	path := twoRankArchive(t, false)

	a, err := otf2.Open(path)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, otf2.ClockProperties{
		TimerResolution:   1_000_000,
		GlobalOffset:      500,
		TraceLength:       9_000,
		RealtimeTimestamp: 1_700_000_000,
	}, a.Clock())
	assert.Equal(t, "3.0", a.Version())
	assert.Equal(t, "otf2test", a.Creator())
	assert.Equal(t, uint64(2), a.NumberOfLocations())

	defs := a.Definitions()
	require.Len(t, defs.Locations, 2)
	assert.Equal(t, "Master thread", defs.Locations[0].Name)
	assert.Equal(t, "MPI Rank 1", defs.Locations[1].Group.Name)
	assert.Equal(t, otf2.LocationTypeCPUThread, defs.Locations[0].Type)
	assert.Len(t, defs.Regions, 2)
	assert.Len(t, defs.MetricClasses, 1)
	assert.Equal(t, "W", defs.MetricMembers[0].Unit)
	assert.Positive(t, a.DefinitionsElapsed())

	loc, ok := defs.Location(1)
	require.True(t, ok)
	assert.Equal(t, "Master thread:1", loc.Name)
	_, ok = defs.Location(7)
	assert.False(t, ok)
}

func TestOpen_Directory(t *testing.T) {
	path := twoRankArchive(t, false)

	a, err := otf2.Open(filepath.Dir(path))
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, path, a.Path())
}

func TestOpen_Errors(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		_, err := otf2.Open(filepath.Join(t.TempDir(), "nope.otf2"))
		require.Error(t, err)

		var openErr *otf2.OpenError
		require.True(t, errors.As(err, &openErr))
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})

	t.Run("directory without anchor", func(t *testing.T) {
		_, err := otf2.Open(t.TempDir())
		assert.ErrorIs(t, err, otf2.ErrInvalidArchive)
	})

	t.Run("anchor is not yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "traces.otf2")
		require.NoError(t, os.WriteFile(path, []byte("\x00\x01binary: [garbage"), 0o644))
		_, err := otf2.Open(path)
		assert.ErrorIs(t, err, otf2.ErrInvalidArchive)
	})

	t.Run("unsupported version", func(t *testing.T) {
		b := otf2test.New()
		b.Anchor.Version = "2.1"
		path, err := b.Write(t.TempDir(), "traces")
		require.NoError(t, err)

		_, err = otf2.Open(path)
		assert.ErrorIs(t, err, otf2.ErrInvalidArchive)
		assert.Contains(t, err.Error(), "unsupported version")
	})

	t.Run("missing definitions", func(t *testing.T) {
		path := twoRankArchive(t, false)
		require.NoError(t, os.Remove(format.DefsPath(path)))
		_, err := otf2.Open(path)
		assert.ErrorIs(t, err, otf2.ErrInvalidArchive)
	})

	t.Run("corrupt definitions", func(t *testing.T) {
		path := twoRankArchive(t, false)
		require.NoError(t, os.WriteFile(format.DefsPath(path), []byte{0xc1, 0x00}, 0o644))
		_, err := otf2.Open(path)
		assert.ErrorIs(t, err, otf2.ErrInvalidArchive)
	})

	t.Run("duplicate region", func(t *testing.T) {
		b := otf2test.New()
		b.Region("main")
		b.Defs.Regions = append(b.Defs.Regions, b.Defs.Regions[0])
		path, err := b.Write(t.TempDir(), "traces")
		require.NoError(t, err)

		_, err = otf2.Open(path)
		assert.ErrorIs(t, err, otf2.ErrInvalidArchive)
	})
}

func TestEvents_MergedByTimestamp(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "zstd"
		}
		t.Run(name, func(t *testing.T) {
			a, err := otf2.Open(twoRankArchive(t, compress))
			require.NoError(t, err)
			defer a.Close()

			got := readAll(t, a)
			want := []readEvent{
				{"Master thread", format.RecordProgramBegin, 10},
				{"Master thread:1", format.RecordProgramBegin, 10},
				{"Master thread", format.RecordEnter, 20},
				{"Master thread:1", format.RecordEnter, 20},
				{"Master thread:1", format.RecordMetric, 30},
				{"Master thread", format.RecordEnter, 40},
				{"Master thread", format.RecordLeave, 60},
				{"Master thread", format.RecordLeave, 80},
				{"Master thread:1", format.RecordLeave, 90},
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestEvents_DecodedFields(t *testing.T) {
	b := otf2test.New()
	loc := b.Location("rank0", b.Group("rank 0"))
	region := b.Region("compute")
	flops := b.Metric("flops", "1")
	b.ProgramBegin(loc, 1, "./hpl").
		Enter(loc, 2, region).
		MetricSample(loc, 3, flops, 42).
		Enter(loc, 4, format.RegionRef(99)).
		Event(loc, format.EventRecord{Type: format.RecordType(200), Time: 5}).
		Event(loc, format.EventRecord{Type: format.RecordMpiSend, Time: 6, Ref: 1, Tag: 7, Comm: 2, Length: 64})
	path, err := b.Write(t.TempDir(), "traces")
	require.NoError(t, err)

	a, err := otf2.Open(path)
	require.NoError(t, err)
	defer a.Close()

	events, err := a.Events()
	require.NoError(t, err)

	next := func() otf2.Event {
		_, ev, err := events.ReadEvent()
		require.NoError(t, err)
		return ev
	}

	begin, ok := next().(*otf2.ProgramBegin)
	require.True(t, ok)
	assert.Equal(t, "./hpl", begin.ProgramName)

	enter, ok := next().(*otf2.Enter)
	require.True(t, ok)
	require.NotNil(t, enter.Region)
	assert.Equal(t, "compute", enter.Region.Name)

	metric, ok := next().(*otf2.Metric)
	require.True(t, ok)
	require.NotNil(t, metric.Member())
	assert.Equal(t, "flops", metric.Member().Name)
	assert.Equal(t, 42.0, metric.Value())

	undefined, ok := next().(*otf2.Enter)
	require.True(t, ok)
	assert.Nil(t, undefined.Region)

	other, ok := next().(*otf2.Other)
	require.True(t, ok)
	assert.Equal(t, format.RecordType(200), other.Record())

	send, ok := next().(*otf2.MpiSend)
	require.True(t, ok)
	assert.Equal(t, uint32(1), send.Receiver)
	assert.Equal(t, uint32(7), send.Tag)
	assert.Equal(t, uint64(64), send.Length)

	_, _, err = events.ReadEvent()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, uint64(6), events.Read())
}

func TestEvents_LocationWithoutStream(t *testing.T) {
	b := otf2test.New()
	g := b.Group("rank 0")
	busy := b.Location("busy", g)
	idle := b.Location("idle", g)
	b.Enter(busy, 1, b.Region("main"))
	b.NoStream(idle)
	path, err := b.Write(t.TempDir(), "traces")
	require.NoError(t, err)

	a, err := otf2.Open(path)
	require.NoError(t, err)
	defer a.Close()

	assert.Len(t, readAll(t, a), 1)
}

func TestEvents_Corrupt(t *testing.T) {
	t.Run("header for another location", func(t *testing.T) {
		b := otf2test.New()
		loc := b.Location("rank0", b.Group("rank 0"))
		b.Header(loc, format.EventsHeader{Magic: format.EventsMagic, Location: 5})
		path, err := b.Write(t.TempDir(), "traces")
		require.NoError(t, err)

		a, err := otf2.Open(path)
		require.NoError(t, err)
		defer a.Close()

		_, err = a.Events()
		assert.ErrorIs(t, err, otf2.ErrCorruptEvents)
	})

	t.Run("truncated record", func(t *testing.T) {
		b := otf2test.New()
		loc := b.Location("rank0", b.Group("rank 0"))
		region := b.Region("main")
		b.Enter(loc, 1, region).Enter(loc, 2, region)
		path, err := b.Write(t.TempDir(), "traces")
		require.NoError(t, err)

		evt := format.EventsPath(path, loc, format.CompressionNone)
		data, err := os.ReadFile(evt)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(evt, data[:len(data)-2], 0o644))

		a, err := otf2.Open(path)
		require.NoError(t, err)
		defer a.Close()

		events, err := a.Events()
		require.NoError(t, err)

		_, _, err = events.ReadEvent()
		require.ErrorIs(t, err, otf2.ErrCorruptEvents)

		// The error is sticky.
		_, _, err = events.ReadEvent()
		assert.ErrorIs(t, err, otf2.ErrCorruptEvents)
	})
}

func TestArchive_Close(t *testing.T) {
	a, err := otf2.Open(twoRankArchive(t, false))
	require.NoError(t, err)

	events, err := a.Events()
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, _, err = events.ReadEvent()
	assert.ErrorIs(t, err, otf2.ErrClosed)

	_, err = a.Events()
	assert.ErrorIs(t, err, otf2.ErrClosed)
}
