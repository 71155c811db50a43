// Package otf2test builds small trace archives on disk for tests.
package otf2test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/otf2sum/internal/otf2/format"
)

// Builder accumulates definitions and events and writes them as an archive.
// Refs are assigned in creation order starting at zero.
type Builder struct {
	Anchor format.Anchor
	Defs   format.GlobalDefs

	strings map[string]format.StringRef
	events  map[format.LocationRef][]format.EventRecord
	headers map[format.LocationRef]*format.EventsHeader
	raw     map[format.LocationRef][]byte
	skip    map[format.LocationRef]bool
}

// New returns a builder with a 3.0 anchor and a 1 GHz clock.
func New() *Builder {
	return &Builder{
		Anchor: format.Anchor{
			Version:     "3.0",
			Creator:     "otf2test",
			Compression: format.CompressionNone,
		},
		Defs: format.GlobalDefs{
			Magic: format.DefsMagic,
			Clock: format.ClockProperties{
				TimerResolution:   1_000_000_000,
				GlobalOffset:      0,
				TraceLength:       0,
				RealtimeTimestamp: 0,
			},
		},
		strings: make(map[string]format.StringRef),
		events:  make(map[format.LocationRef][]format.EventRecord),
		headers: make(map[format.LocationRef]*format.EventsHeader),
		raw:     make(map[format.LocationRef][]byte),
		skip:    make(map[format.LocationRef]bool),
	}
}

// Clock sets the clock properties.
func (b *Builder) Clock(resolution, offset, length, realtime uint64) *Builder {
	b.Defs.Clock = format.ClockProperties{
		TimerResolution:   resolution,
		GlobalOffset:      offset,
		TraceLength:       length,
		RealtimeTimestamp: realtime,
	}
	return b
}

// Compress makes Write emit zstd-compressed event streams.
func (b *Builder) Compress() *Builder {
	b.Anchor.Compression = format.CompressionZstd
	return b
}

// Intern interns s and returns its reference.
func (b *Builder) Intern(s string) format.StringRef {
	if ref, ok := b.strings[s]; ok {
		return ref
	}
	ref := format.StringRef(len(b.Defs.Strings))
	b.Defs.Strings = append(b.Defs.Strings, format.StringDef{Ref: ref, Value: s})
	b.strings[s] = ref
	return ref
}

// Group defines a location group.
func (b *Builder) Group(name string) format.LocationGroupRef {
	ref := format.LocationGroupRef(len(b.Defs.LocationGroups))
	b.Defs.LocationGroups = append(b.Defs.LocationGroups, format.LocationGroupDef{
		Ref:    ref,
		Name:   b.Intern(name),
		Parent: format.UndefinedLocationGroup,
	})
	return ref
}

// Location defines a CPU thread location in group.
func (b *Builder) Location(name string, group format.LocationGroupRef) format.LocationRef {
	ref := format.LocationRef(len(b.Defs.Locations))
	b.Defs.Locations = append(b.Defs.Locations, format.LocationDef{
		Ref:   ref,
		Name:  b.Intern(name),
		Type:  1,
		Group: group,
	})
	return ref
}

// Region defines a region.
func (b *Builder) Region(name string) format.RegionRef {
	ref := format.RegionRef(len(b.Defs.Regions))
	b.Defs.Regions = append(b.Defs.Regions, format.RegionDef{
		Ref:           ref,
		Name:          b.Intern(name),
		CanonicalName: b.Intern(name),
		Description:   format.UndefinedString,
		SourceFile:    format.UndefinedString,
	})
	return ref
}

// Metric defines a single-member metric class and returns the class ref.
func (b *Builder) Metric(member, unit string) format.MetricRef {
	mref := format.MetricMemberRef(len(b.Defs.MetricMembers))
	b.Defs.MetricMembers = append(b.Defs.MetricMembers, format.MetricMemberDef{
		Ref:         mref,
		Name:        b.Intern(member),
		Description: format.UndefinedString,
		Unit:        b.Intern(unit),
	})
	cref := format.MetricRef(len(b.Defs.MetricClasses))
	b.Defs.MetricClasses = append(b.Defs.MetricClasses, format.MetricClassDef{
		Ref:     cref,
		Members: []format.MetricMemberRef{mref},
	})
	return cref
}

// Event appends a raw record to loc's stream.
func (b *Builder) Event(loc format.LocationRef, rec format.EventRecord) *Builder {
	b.events[loc] = append(b.events[loc], rec)
	return b
}

// ProgramBegin appends a ProgramBegin event.
func (b *Builder) ProgramBegin(loc format.LocationRef, ts uint64, program string) *Builder {
	return b.Event(loc, format.EventRecord{Type: format.RecordProgramBegin, Time: ts, Name: b.Intern(program)})
}

// ProgramEnd appends a ProgramEnd event.
func (b *Builder) ProgramEnd(loc format.LocationRef, ts uint64) *Builder {
	return b.Event(loc, format.EventRecord{Type: format.RecordProgramEnd, Time: ts})
}

// Enter appends an Enter event.
func (b *Builder) Enter(loc format.LocationRef, ts uint64, region format.RegionRef) *Builder {
	return b.Event(loc, format.EventRecord{Type: format.RecordEnter, Time: ts, Ref: uint64(region)})
}

// Leave appends a Leave event.
func (b *Builder) Leave(loc format.LocationRef, ts uint64, region format.RegionRef) *Builder {
	return b.Event(loc, format.EventRecord{Type: format.RecordLeave, Time: ts, Ref: uint64(region)})
}

// MetricSample appends a Metric event with one value.
func (b *Builder) MetricSample(loc format.LocationRef, ts uint64, metric format.MetricRef, value float64) *Builder {
	return b.Event(loc, format.EventRecord{Type: format.RecordMetric, Time: ts, Ref: uint64(metric), Values: []float64{value}})
}

// Header overrides the stream header written for loc.
func (b *Builder) Header(loc format.LocationRef, hdr format.EventsHeader) *Builder {
	b.headers[loc] = &hdr
	return b
}

// RawStream replaces loc's event file content with data, written as is.
func (b *Builder) RawStream(loc format.LocationRef, data []byte) *Builder {
	b.raw[loc] = data
	return b
}

// NoStream leaves loc without an event file.
func (b *Builder) NoStream(loc format.LocationRef) *Builder {
	b.skip[loc] = true
	return b
}

// Write writes the archive under dir as <name>.otf2, <name>.def and
// <name>/ and returns the anchor path.
func (b *Builder) Write(dir, name string) (string, error) {
	for i := range b.Defs.Locations {
		loc := &b.Defs.Locations[i]
		if loc.NumberOfEvents == 0 {
			loc.NumberOfEvents = uint64(len(b.events[loc.Ref]))
		}
	}

	anchor := b.Anchor
	anchor.NumberOfLocations = uint64(len(b.Defs.Locations))
	anchor.NumberOfGlobalDefinitions = b.Defs.Count()

	anchorPath := filepath.Join(dir, name+format.AnchorExt)
	data, err := yaml.Marshal(&anchor)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(anchorPath, data, 0o644); err != nil {
		return "", err
	}

	defs, err := msgpack.Marshal(&b.Defs)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(format.DefsPath(anchorPath), defs, 0o644); err != nil {
		return "", err
	}

	if err := os.MkdirAll(format.EventsDir(anchorPath), 0o755); err != nil {
		return "", err
	}
	for _, loc := range b.Defs.Locations {
		if b.skip[loc.Ref] {
			continue
		}
		stream, err := b.encodeStream(loc.Ref)
		if err != nil {
			return "", fmt.Errorf("location %d: %w", loc.Ref, err)
		}
		path := format.EventsPath(anchorPath, loc.Ref, b.Anchor.Compression)
		if err := os.WriteFile(path, stream, 0o644); err != nil {
			return "", err
		}
	}
	return anchorPath, nil
}

func (b *Builder) encodeStream(loc format.LocationRef) ([]byte, error) {
	if raw, ok := b.raw[loc]; ok {
		return raw, nil
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	hdr := format.EventsHeader{Magic: format.EventsMagic, Location: loc}
	if h, ok := b.headers[loc]; ok {
		hdr = *h
	}
	if err := enc.Encode(&hdr); err != nil {
		return nil, err
	}
	for i := range b.events[loc] {
		if err := enc.Encode(&b.events[loc][i]); err != nil {
			return nil, err
		}
	}

	if b.Anchor.Compression != format.CompressionZstd {
		return buf.Bytes(), nil
	}
	zenc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer zenc.Close()
	return zenc.EncodeAll(buf.Bytes(), nil), nil
}
