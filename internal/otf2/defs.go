package otf2

import (
	"github.com/wesleyorama2/otf2sum/internal/otf2/format"
)

// ClockProperties is the archive clock definition.
type ClockProperties struct {
	TimerResolution   uint64 `json:"timerResolution" yaml:"timerResolution"`
	GlobalOffset      uint64 `json:"globalOffset" yaml:"globalOffset"`
	TraceLength       uint64 `json:"traceLength" yaml:"traceLength"`
	RealtimeTimestamp uint64 `json:"realtimeTimestamp" yaml:"realtimeTimestamp"`
}

// LocationType classifies a location.
type LocationType uint8

const (
	LocationTypeUnknown LocationType = iota
	LocationTypeCPUThread
	LocationTypeAccelerator
	LocationTypeMetric
)

func (t LocationType) String() string {
	switch t {
	case LocationTypeCPUThread:
		return "CPU_THREAD"
	case LocationTypeAccelerator:
		return "ACCELERATOR_STREAM"
	case LocationTypeMetric:
		return "METRIC"
	default:
		return "UNKNOWN"
	}
}

// LocationGroup is a process or rank owning locations.
type LocationGroup struct {
	Ref  format.LocationGroupRef
	Name string
}

// Location is a thread, stream or metric context under which events are
// recorded.
type Location struct {
	Ref            format.LocationRef
	Name           string
	Type           LocationType
	NumberOfEvents uint64
	Group          *LocationGroup
}

// Region is an instrumented code region.
type Region struct {
	Ref           format.RegionRef
	Name          string
	CanonicalName string
	Description   string
	Role          uint8
	Paradigm      uint8
	SourceFile    string
	BeginLine     uint32
	EndLine       uint32
}

// MetricMember is one measurement channel.
type MetricMember struct {
	Ref         format.MetricMemberRef
	Name        string
	Description string
	Unit        string
}

// MetricClass is a set of members sampled together.
type MetricClass struct {
	Ref     format.MetricRef
	Members []*MetricMember
}

// Definitions holds the resolved global definitions of an archive. Names
// whose string reference is undefined resolve to the empty string.
type Definitions struct {
	// Read is the number of definition records in the file.
	Read uint64

	Strings        map[format.StringRef]string
	LocationGroups map[format.LocationGroupRef]*LocationGroup
	Regions        map[format.RegionRef]*Region
	MetricMembers  map[format.MetricMemberRef]*MetricMember
	MetricClasses  map[format.MetricRef]*MetricClass

	// Locations are kept in definition order, which is also the tie-break
	// order of the global event reader.
	Locations  []*Location
	locationAt map[format.LocationRef]int
}

// Location returns the location with the given reference.
func (d *Definitions) Location(ref format.LocationRef) (*Location, bool) {
	i, ok := d.locationAt[ref]
	if !ok {
		return nil, false
	}
	return d.Locations[i], true
}

func (d *Definitions) str(ref format.StringRef) string {
	if ref == format.UndefinedString {
		return ""
	}
	return d.Strings[ref]
}

func newDefinitions(raw *format.GlobalDefs) (*Definitions, error) {
	d := &Definitions{
		Read:           raw.Count(),
		Strings:        make(map[format.StringRef]string, len(raw.Strings)),
		LocationGroups: make(map[format.LocationGroupRef]*LocationGroup, len(raw.LocationGroups)),
		Regions:        make(map[format.RegionRef]*Region, len(raw.Regions)),
		MetricMembers:  make(map[format.MetricMemberRef]*MetricMember, len(raw.MetricMembers)),
		MetricClasses:  make(map[format.MetricRef]*MetricClass, len(raw.MetricClasses)),
		Locations:      make([]*Location, 0, len(raw.Locations)),
		locationAt:     make(map[format.LocationRef]int, len(raw.Locations)),
	}

	// Strings first; every other definition refers to them.
	for _, s := range raw.Strings {
		if _, dup := d.Strings[s.Ref]; dup {
			return nil, invalidf("duplicate string definition %d", s.Ref)
		}
		d.Strings[s.Ref] = s.Value
	}

	for _, g := range raw.LocationGroups {
		if _, dup := d.LocationGroups[g.Ref]; dup {
			return nil, invalidf("duplicate location group definition %d", g.Ref)
		}
		d.LocationGroups[g.Ref] = &LocationGroup{Ref: g.Ref, Name: d.str(g.Name)}
	}

	for _, l := range raw.Locations {
		if _, dup := d.locationAt[l.Ref]; dup {
			return nil, invalidf("duplicate location definition %d", l.Ref)
		}
		d.locationAt[l.Ref] = len(d.Locations)
		d.Locations = append(d.Locations, &Location{
			Ref:            l.Ref,
			Name:           d.str(l.Name),
			Type:           LocationType(l.Type),
			NumberOfEvents: l.NumberOfEvents,
			Group:          d.LocationGroups[l.Group],
		})
	}

	for _, r := range raw.Regions {
		if _, dup := d.Regions[r.Ref]; dup {
			return nil, invalidf("duplicate region definition %d", r.Ref)
		}
		d.Regions[r.Ref] = &Region{
			Ref:           r.Ref,
			Name:          d.str(r.Name),
			CanonicalName: d.str(r.CanonicalName),
			Description:   d.str(r.Description),
			Role:          r.Role,
			Paradigm:      r.Paradigm,
			SourceFile:    d.str(r.SourceFile),
			BeginLine:     r.BeginLine,
			EndLine:       r.EndLine,
		}
	}

	for _, m := range raw.MetricMembers {
		if _, dup := d.MetricMembers[m.Ref]; dup {
			return nil, invalidf("duplicate metric member definition %d", m.Ref)
		}
		d.MetricMembers[m.Ref] = &MetricMember{
			Ref:         m.Ref,
			Name:        d.str(m.Name),
			Description: d.str(m.Description),
			Unit:        d.str(m.Unit),
		}
	}

	for _, c := range raw.MetricClasses {
		if _, dup := d.MetricClasses[c.Ref]; dup {
			return nil, invalidf("duplicate metric class definition %d", c.Ref)
		}
		class := &MetricClass{Ref: c.Ref, Members: make([]*MetricMember, 0, len(c.Members))}
		for _, ref := range c.Members {
			member, ok := d.MetricMembers[ref]
			if !ok {
				return nil, invalidf("metric class %d references undefined member %d", c.Ref, ref)
			}
			class.Members = append(class.Members, member)
		}
		d.MetricClasses[c.Ref] = class
	}

	return d, nil
}
