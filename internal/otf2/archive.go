// Package otf2 reads trace archives laid out like OTF2: a YAML anchor, a
// global definition file and one event stream per location.
//
// Typical use:
//
//	a, err := otf2.Open("traces.otf2")
//	if err != nil {
//		return err
//	}
//	defer a.Close()
//
//	events, err := a.Events()
//	if err != nil {
//		return err
//	}
//	for {
//		loc, ev, err := events.ReadEvent()
//		if err == io.EOF {
//			break
//		}
//		if err != nil {
//			return err
//		}
//		...
//	}
package otf2

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/otf2sum/internal/otf2/format"
)

// Option configures Open.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger sets the logger used for reader diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Archive is an open trace archive. It must be closed with Close.
type Archive struct {
	path   string
	anchor format.Anchor
	clock  ClockProperties
	defs   *Definitions
	log    zerolog.Logger

	// defsElapsed is the time spent reading the global definitions.
	defsElapsed time.Duration

	readers []*GlobalEvtReader
	closed  bool
}

// Open opens the archive at path. Path is either the anchor file or a
// directory containing exactly one anchor file.
//
// Errors are *OpenError values wrapping fs.ErrNotExist for a missing path
// and ErrInvalidArchive for a malformed anchor or definition file.
func Open(path string, opts ...Option) (*Archive, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	anchorPath, err := resolveAnchor(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	a := &Archive{path: anchorPath, log: o.logger}
	if err := a.readAnchor(); err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	start := time.Now()
	if err := a.readDefinitions(); err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	a.defsElapsed = time.Since(start)

	a.log.Debug().
		Str("anchor", anchorPath).
		Str("version", a.anchor.Version).
		Int("locations", len(a.defs.Locations)).
		Uint64("definitions", a.defs.Read).
		Dur("definitions_elapsed", a.defsElapsed).
		Msg("opened trace archive")

	return a, nil
}

func resolveAnchor(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}

	matches, err := filepath.Glob(filepath.Join(path, "*"+format.AnchorExt))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", invalidf("no %s anchor file in directory", format.AnchorExt)
	case 1:
		return matches[0], nil
	default:
		return "", invalidf("directory holds %d anchor files, name one of them", len(matches))
	}
}

func (a *Archive) readAnchor() error {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, &a.anchor); err != nil {
		return invalidf("anchor: %v", err)
	}
	if err := a.anchor.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if a.anchor.Compression == "" {
		a.anchor.Compression = format.CompressionNone
	}
	return nil
}

func (a *Archive) readDefinitions() error {
	f, err := os.Open(format.DefsPath(a.path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return invalidf("missing global definition file")
		}
		return err
	}
	defer f.Close()

	var raw format.GlobalDefs
	if err := msgpack.NewDecoder(bufio.NewReader(f)).Decode(&raw); err != nil {
		return invalidf("global definitions: %v", err)
	}
	if raw.Magic != format.DefsMagic {
		return invalidf("global definitions: bad magic %q", raw.Magic)
	}

	defs, err := newDefinitions(&raw)
	if err != nil {
		return err
	}
	if n := uint64(len(defs.Locations)); n != a.anchor.NumberOfLocations {
		return invalidf("anchor declares %d locations, definitions hold %d", a.anchor.NumberOfLocations, n)
	}
	if a.anchor.NumberOfGlobalDefinitions != 0 && a.anchor.NumberOfGlobalDefinitions != defs.Read {
		return invalidf("anchor declares %d global definitions, file holds %d", a.anchor.NumberOfGlobalDefinitions, defs.Read)
	}

	a.defs = defs
	a.clock = ClockProperties(raw.Clock)
	return nil
}

// Path returns the anchor file path.
func (a *Archive) Path() string { return a.path }

// Version returns the anchor version string.
func (a *Archive) Version() string { return a.anchor.Version }

// Creator returns the tool that wrote the archive, if recorded.
func (a *Archive) Creator() string { return a.anchor.Creator }

// Clock returns the archive clock properties.
func (a *Archive) Clock() ClockProperties { return a.clock }

// Definitions returns the resolved global definitions.
func (a *Archive) Definitions() *Definitions { return a.defs }

// DefinitionsElapsed returns how long Open spent reading the global
// definitions.
func (a *Archive) DefinitionsElapsed() time.Duration { return a.defsElapsed }

// NumberOfLocations returns the number of defined locations.
func (a *Archive) NumberOfLocations() uint64 { return a.anchor.NumberOfLocations }

// Events opens the event streams of all locations and returns a reader
// yielding their events merged in timestamp order. The reader is closed by
// Archive.Close if the caller does not close it first.
func (a *Archive) Events() (*GlobalEvtReader, error) {
	if a.closed {
		return nil, ErrClosed
	}
	r, err := newGlobalEvtReader(a)
	if err != nil {
		return nil, err
	}
	a.readers = append(a.readers, r)
	return r, nil
}

// Close releases every file held by the archive. It is safe to call more
// than once.
func (a *Archive) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	for _, r := range a.readers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.readers = nil
	return errors.Join(errs...)
}
