// Package format describes the on-disk records of a trace archive.
//
// An archive follows the OTF2 directory layout:
//
//	traces.otf2          anchor (YAML)
//	traces.def           global definitions (MessagePack)
//	traces/<ref>.evt     one event stream per location (MessagePack)
//	traces/<ref>.evt.zst the same stream, zstd-compressed
//
// The record shapes are shared by the reader in package otf2 and by the
// fixture writer in package otf2test.
package format

import (
	"fmt"
	"path/filepath"
	"strings"
)

// File name extensions of the archive members.
const (
	AnchorExt = ".otf2"
	DefsExt   = ".def"
	EventsExt = ".evt"
	ZstdExt   = ".zst"
)

// Magic values written at the start of the definition and event files.
const (
	DefsMagic   = "OTF2SUM-DEF"
	EventsMagic = "OTF2SUM-EVT"
)

// SupportedMajorVersion is the anchor major version the reader understands.
const SupportedMajorVersion = "3"

// Compression names the codec applied to event streams.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// Reference types. Values equal to the matching Undefined constant mean
// "no reference".
type (
	StringRef        uint32
	LocationRef      uint64
	LocationGroupRef uint32
	RegionRef        uint32
	MetricMemberRef  uint32
	MetricRef        uint32
)

const (
	UndefinedString        StringRef        = ^StringRef(0)
	UndefinedLocation      LocationRef      = ^LocationRef(0)
	UndefinedLocationGroup LocationGroupRef = ^LocationGroupRef(0)
	UndefinedRegion        RegionRef        = ^RegionRef(0)
	UndefinedMetricMember  MetricMemberRef  = ^MetricMemberRef(0)
	UndefinedMetric        MetricRef        = ^MetricRef(0)
)

// Anchor is the YAML document stored in the .otf2 file.
type Anchor struct {
	Version                   string      `yaml:"version"`
	Creator                   string      `yaml:"creator,omitempty"`
	Description               string      `yaml:"description,omitempty"`
	Compression               Compression `yaml:"compression,omitempty"`
	NumberOfLocations         uint64      `yaml:"number_of_locations"`
	NumberOfGlobalDefinitions uint64      `yaml:"number_of_global_definitions"`
}

// Validate checks the anchor fields the reader depends on.
func (a *Anchor) Validate() error {
	if a.Version == "" {
		return fmt.Errorf("anchor: missing version")
	}
	major, _, _ := strings.Cut(a.Version, ".")
	if major != SupportedMajorVersion {
		return fmt.Errorf("anchor: unsupported version %q (want %s.x)", a.Version, SupportedMajorVersion)
	}
	switch a.Compression {
	case "", CompressionNone, CompressionZstd:
	default:
		return fmt.Errorf("anchor: unknown compression %q", a.Compression)
	}
	return nil
}

// ClockProperties is the archive-wide clock definition.
type ClockProperties struct {
	TimerResolution   uint64 `msgpack:"timer_resolution"`
	GlobalOffset      uint64 `msgpack:"global_offset"`
	TraceLength       uint64 `msgpack:"trace_length"`
	RealtimeTimestamp uint64 `msgpack:"realtime_timestamp"`
}

// StringDef maps a string reference to its value.
type StringDef struct {
	Ref   StringRef `msgpack:"ref"`
	Value string    `msgpack:"value"`
}

// LocationGroupDef describes a process/rank that owns locations.
type LocationGroupDef struct {
	Ref    LocationGroupRef `msgpack:"ref"`
	Name   StringRef        `msgpack:"name"`
	Type   uint8            `msgpack:"type"`
	Parent LocationGroupRef `msgpack:"parent"`
}

// LocationDef describes one execution location.
type LocationDef struct {
	Ref            LocationRef      `msgpack:"ref"`
	Name           StringRef        `msgpack:"name"`
	Type           uint8            `msgpack:"type"`
	NumberOfEvents uint64           `msgpack:"number_of_events"`
	Group          LocationGroupRef `msgpack:"group"`
}

// RegionDef describes one instrumented code region.
type RegionDef struct {
	Ref           RegionRef `msgpack:"ref"`
	Name          StringRef `msgpack:"name"`
	CanonicalName StringRef `msgpack:"canonical_name"`
	Description   StringRef `msgpack:"description"`
	Role          uint8     `msgpack:"role"`
	Paradigm      uint8     `msgpack:"paradigm"`
	SourceFile    StringRef `msgpack:"source_file"`
	BeginLine     uint32    `msgpack:"begin_line"`
	EndLine       uint32    `msgpack:"end_line"`
}

// MetricMemberDef describes one measurement channel.
type MetricMemberDef struct {
	Ref         MetricMemberRef `msgpack:"ref"`
	Name        StringRef       `msgpack:"name"`
	Description StringRef       `msgpack:"description"`
	Unit        StringRef       `msgpack:"unit"`
	MetricType  uint8           `msgpack:"metric_type"`
	ValueType   uint8           `msgpack:"value_type"`
}

// MetricClassDef groups members that are sampled together by one Metric event.
type MetricClassDef struct {
	Ref        MetricRef         `msgpack:"ref"`
	Members    []MetricMemberRef `msgpack:"members"`
	Occurrence uint8             `msgpack:"occurrence"`
}

// GlobalDefs is the single document stored in the .def file.
type GlobalDefs struct {
	Magic          string             `msgpack:"magic"`
	Clock          ClockProperties    `msgpack:"clock"`
	Strings        []StringDef        `msgpack:"strings"`
	LocationGroups []LocationGroupDef `msgpack:"location_groups"`
	Locations      []LocationDef      `msgpack:"locations"`
	Regions        []RegionDef        `msgpack:"regions"`
	MetricMembers  []MetricMemberDef  `msgpack:"metric_members"`
	MetricClasses  []MetricClassDef   `msgpack:"metric_classes"`
}

// Count returns the number of definition records, the clock properties
// included.
func (d *GlobalDefs) Count() uint64 {
	return 1 + uint64(len(d.Strings)+len(d.LocationGroups)+len(d.Locations)+
		len(d.Regions)+len(d.MetricMembers)+len(d.MetricClasses))
}

// EventsHeader is the first value of every event stream.
type EventsHeader struct {
	Magic    string      `msgpack:"magic"`
	Location LocationRef `msgpack:"location"`
}

// RecordType tags an event record.
type RecordType uint8

const (
	RecordBufferFlush RecordType = iota + 1
	RecordProgramBegin
	RecordProgramEnd
	RecordEnter
	RecordLeave
	RecordMetric
	RecordMpiSend
	RecordMpiRecv
)

func (t RecordType) String() string {
	switch t {
	case RecordBufferFlush:
		return "BufferFlush"
	case RecordProgramBegin:
		return "ProgramBegin"
	case RecordProgramEnd:
		return "ProgramEnd"
	case RecordEnter:
		return "Enter"
	case RecordLeave:
		return "Leave"
	case RecordMetric:
		return "Metric"
	case RecordMpiSend:
		return "MpiSend"
	case RecordMpiRecv:
		return "MpiRecv"
	default:
		return fmt.Sprintf("RecordType(%d)", uint8(t))
	}
}

// EventRecord is one record of an event stream. Which fields are meaningful
// depends on Type:
//
//	Enter, Leave    Ref = region
//	Metric          Ref = metric class, Values = one value per member
//	MpiSend         Ref = receiver rank, Tag, Comm, Length
//	MpiRecv         Ref = sender rank, Tag, Comm, Length
//	ProgramBegin    Name = program name, Args = argument strings
//	ProgramEnd      ExitStatus
//	BufferFlush     StopTime
type EventRecord struct {
	Type       RecordType  `msgpack:"t"`
	Time       uint64      `msgpack:"ts"`
	Ref        uint64      `msgpack:"r,omitempty"`
	Values     []float64   `msgpack:"v,omitempty"`
	Name       StringRef   `msgpack:"n,omitempty"`
	Args       []StringRef `msgpack:"a,omitempty"`
	Tag        uint32      `msgpack:"tag,omitempty"`
	Comm       uint32      `msgpack:"comm,omitempty"`
	Length     uint64      `msgpack:"len,omitempty"`
	ExitStatus int64       `msgpack:"exit,omitempty"`
	StopTime   uint64      `msgpack:"stop,omitempty"`
}

// DefsPath returns the definition file path for an anchor path.
func DefsPath(anchor string) string {
	return strings.TrimSuffix(anchor, AnchorExt) + DefsExt
}

// EventsDir returns the directory holding the per-location event streams.
func EventsDir(anchor string) string {
	return strings.TrimSuffix(anchor, AnchorExt)
}

// EventsPath returns the event stream path of a location.
func EventsPath(anchor string, loc LocationRef, c Compression) string {
	name := fmt.Sprintf("%d%s", uint64(loc), EventsExt)
	if c == CompressionZstd {
		name += ZstdExt
	}
	return filepath.Join(EventsDir(anchor), name)
}
