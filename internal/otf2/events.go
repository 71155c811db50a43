package otf2

import (
	"github.com/wesleyorama2/otf2sum/internal/otf2/format"
)

// Event is one record of a location's event stream.
//
// The set of implementations is closed: *ProgramBegin, *ProgramEnd, *Enter,
// *Leave, *Metric, *MpiSend, *MpiRecv, *BufferFlush and *Other. Callers
// switch on the concrete type.
type Event interface {
	// Time is the event timestamp in timer ticks.
	Time() uint64
	// Record is the record tag the event was decoded from.
	Record() format.RecordType

	event()
}

// Base carries the fields shared by every event.
type Base struct {
	Timestamp uint64
}

func (b Base) Time() uint64 { return b.Timestamp }
func (Base) event()         {}

// ProgramBegin marks the start of the measured program on a location.
type ProgramBegin struct {
	Base
	ProgramName      string
	ProgramArguments []string
}

func (*ProgramBegin) Record() format.RecordType { return format.RecordProgramBegin }

// ProgramEnd marks the end of the measured program on a location.
type ProgramEnd struct {
	Base
	ExitStatus int64
}

func (*ProgramEnd) Record() format.RecordType { return format.RecordProgramEnd }

// Enter marks entry into a region. Region is nil when the record references
// a region that has no definition.
type Enter struct {
	Base
	Region *Region
}

func (*Enter) Record() format.RecordType { return format.RecordEnter }

// Leave marks exit from a region. Region is nil when the record references
// a region that has no definition.
type Leave struct {
	Base
	Region *Region
}

func (*Leave) Record() format.RecordType { return format.RecordLeave }

// Metric is one sample of a metric class. Values holds one value per class
// member, in member order.
type Metric struct {
	Base
	Class  *MetricClass
	Values []float64
}

func (*Metric) Record() format.RecordType { return format.RecordMetric }

// Member returns the first member of the sampled class, or nil if the class
// is undefined or empty. Score-P metric plugins emit single-member classes.
func (m *Metric) Member() *MetricMember {
	if m.Class == nil || len(m.Class.Members) == 0 {
		return nil
	}
	return m.Class.Members[0]
}

// Value returns the first sampled value.
func (m *Metric) Value() float64 {
	if len(m.Values) == 0 {
		return 0
	}
	return m.Values[0]
}

// MpiSend is a point-to-point send.
type MpiSend struct {
	Base
	Receiver     uint32
	Communicator uint32
	Tag          uint32
	Length       uint64
}

func (*MpiSend) Record() format.RecordType { return format.RecordMpiSend }

// MpiRecv is a point-to-point receive.
type MpiRecv struct {
	Base
	Sender       uint32
	Communicator uint32
	Tag          uint32
	Length       uint64
}

func (*MpiRecv) Record() format.RecordType { return format.RecordMpiRecv }

// BufferFlush marks the measurement system flushing its event buffer.
type BufferFlush struct {
	Base
	StopTime uint64
}

func (*BufferFlush) Record() format.RecordType { return format.RecordBufferFlush }

// Other is a record whose tag this reader does not model.
type Other struct {
	Base
	Type format.RecordType
}

func (o *Other) Record() format.RecordType { return o.Type }
