package otf2

import (
	"container/heap"
	"errors"
	"io"
)

// GlobalEvtReader yields the events of all locations merged by timestamp.
// Events with equal timestamps come out in location definition order, so
// the sequence is fully determined by the archive.
type GlobalEvtReader struct {
	streams  []*locationStream
	frontier streamHeap
	read     uint64
	err      error
	closed   bool
}

func newGlobalEvtReader(a *Archive) (*GlobalEvtReader, error) {
	r := &GlobalEvtReader{}
	for i, loc := range a.defs.Locations {
		s, err := openLocationStream(a, loc, i)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.streams = append(r.streams, s)

		if err := s.advance(); err != nil {
			r.Close()
			return nil, err
		}
		if s.next != nil {
			r.frontier = append(r.frontier, s)
		}
	}
	heap.Init(&r.frontier)
	return r, nil
}

// ReadEvent returns the next event and the location it was recorded on.
// It returns io.EOF once every stream is exhausted. Any other error is
// sticky: later calls return it again.
func (r *GlobalEvtReader) ReadEvent() (*Location, Event, error) {
	if r.closed {
		return nil, nil, ErrClosed
	}
	if r.err != nil {
		return nil, nil, r.err
	}
	if len(r.frontier) == 0 {
		return nil, nil, io.EOF
	}

	s := r.frontier[0]
	loc, ev := s.loc, s.next
	if err := s.advance(); err != nil {
		r.err = err
		return nil, nil, err
	}
	if s.next == nil {
		heap.Pop(&r.frontier)
	} else {
		heap.Fix(&r.frontier, 0)
	}

	r.read++
	return loc, ev, nil
}

// Read returns the number of events returned so far.
func (r *GlobalEvtReader) Read() uint64 { return r.read }

// Close releases the event files. It is safe to call more than once.
func (r *GlobalEvtReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for _, s := range r.streams {
		if err := s.close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.streams = nil
	r.frontier = nil
	return errors.Join(errs...)
}

// streamHeap orders location streams by the timestamp of their next event.
type streamHeap []*locationStream

func (h streamHeap) Len() int { return len(h) }

func (h streamHeap) Less(i, j int) bool {
	ti, tj := h[i].next.Time(), h[j].next.Time()
	if ti != tj {
		return ti < tj
	}
	return h[i].order < h[j].order
}

func (h streamHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *streamHeap) Push(x any) { *h = append(*h, x.(*locationStream)) }

func (h *streamHeap) Pop() any {
	old := *h
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return s
}
