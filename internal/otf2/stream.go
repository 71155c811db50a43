package otf2

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/wesleyorama2/otf2sum/internal/otf2/format"
)

// locationStream decodes the event file of a single location.
type locationStream struct {
	loc   *Location
	order int // position in definition order
	defs  *Definitions

	file *os.File
	zdec *zstd.Decoder
	dec  *msgpack.Decoder

	next Event // peeked event, nil once exhausted
	read uint64
}

// openLocationStream opens the event file of loc. A location without an
// event file yields an empty stream.
func openLocationStream(a *Archive, loc *Location, order int) (*locationStream, error) {
	s := &locationStream{loc: loc, order: order, defs: a.defs}

	path := format.EventsPath(a.path, loc.Ref, a.anchor.Compression)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			a.log.Debug().Str("location", loc.Name).Str("path", path).Msg("location has no event stream")
			return s, nil
		}
		return nil, err
	}
	s.file = f

	var r io.Reader = bufio.NewReader(f)
	if a.anchor.Compression == format.CompressionZstd {
		zdec, err := zstd.NewReader(r)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: location %q: %v", ErrCorruptEvents, loc.Name, err)
		}
		s.zdec = zdec
		r = zdec
	}
	s.dec = msgpack.NewDecoder(r)

	var hdr format.EventsHeader
	if err := s.dec.Decode(&hdr); err != nil {
		s.close()
		return nil, fmt.Errorf("%w: location %q: header: %v", ErrCorruptEvents, loc.Name, err)
	}
	if hdr.Magic != format.EventsMagic || hdr.Location != loc.Ref {
		s.close()
		return nil, fmt.Errorf("%w: location %q: header does not match location %d", ErrCorruptEvents, loc.Name, loc.Ref)
	}

	a.log.Debug().
		Str("location", loc.Name).
		Str("path", path).
		Str("compression", string(a.anchor.Compression)).
		Msg("opened event stream")

	return s, nil
}

// advance decodes the next record into s.next. At the end of the stream
// s.next is nil and the error is nil.
func (s *locationStream) advance() error {
	s.next = nil
	if s.dec == nil {
		return nil
	}

	// A clean end of stream shows up as EOF before the next record starts;
	// EOF inside a record is corruption.
	if _, err := s.dec.PeekCode(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: location %q: %v", ErrCorruptEvents, s.loc.Name, err)
	}

	var rec format.EventRecord
	if err := s.dec.Decode(&rec); err != nil {
		return fmt.Errorf("%w: location %q: event %d: %v", ErrCorruptEvents, s.loc.Name, s.read, err)
	}
	s.read++
	s.next = s.decodeEvent(&rec)
	return nil
}

func (s *locationStream) decodeEvent(rec *format.EventRecord) Event {
	base := Base{Timestamp: rec.Time}
	switch rec.Type {
	case format.RecordProgramBegin:
		args := make([]string, 0, len(rec.Args))
		for _, ref := range rec.Args {
			args = append(args, s.defs.str(ref))
		}
		return &ProgramBegin{Base: base, ProgramName: s.defs.str(rec.Name), ProgramArguments: args}
	case format.RecordProgramEnd:
		return &ProgramEnd{Base: base, ExitStatus: rec.ExitStatus}
	case format.RecordEnter:
		return &Enter{Base: base, Region: s.defs.Regions[format.RegionRef(rec.Ref)]}
	case format.RecordLeave:
		return &Leave{Base: base, Region: s.defs.Regions[format.RegionRef(rec.Ref)]}
	case format.RecordMetric:
		return &Metric{Base: base, Class: s.defs.MetricClasses[format.MetricRef(rec.Ref)], Values: rec.Values}
	case format.RecordMpiSend:
		return &MpiSend{Base: base, Receiver: uint32(rec.Ref), Communicator: rec.Comm, Tag: rec.Tag, Length: rec.Length}
	case format.RecordMpiRecv:
		return &MpiRecv{Base: base, Sender: uint32(rec.Ref), Communicator: rec.Comm, Tag: rec.Tag, Length: rec.Length}
	case format.RecordBufferFlush:
		return &BufferFlush{Base: base, StopTime: rec.StopTime}
	default:
		return &Other{Base: base, Type: rec.Type}
	}
}

func (s *locationStream) close() error {
	s.next = nil
	s.dec = nil
	if s.zdec != nil {
		s.zdec.Close()
		s.zdec = nil
	}
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
