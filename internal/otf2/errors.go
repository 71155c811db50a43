package otf2

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArchive reports an anchor or definition file that is not a
	// readable trace archive.
	ErrInvalidArchive = errors.New("invalid trace archive")

	// ErrCorruptEvents reports an event stream that cannot be decoded.
	ErrCorruptEvents = errors.New("corrupt event stream")

	// ErrClosed is returned when reading from a closed archive or reader.
	ErrClosed = errors.New("trace archive closed")
)

// OpenError is returned by Open when the archive cannot be opened.
type OpenError struct {
	Path string
	Err  error
}

// Error returns the error message
func (e *OpenError) Error() string {
	return fmt.Sprintf("open trace archive %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArchive, fmt.Sprintf(format, args...))
}
