package output

import (
	"github.com/fatih/color"
)

// ColorScheme defines the colors used for different elements in the output
type ColorScheme struct {
	Header  *color.Color
	Label   *color.Color
	Value   *color.Color
	Name    *color.Color
	Elapsed *color.Color
	Notice  *color.Color
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Header:  color.New(color.FgCyan, color.Bold),
		Label:   color.New(color.FgYellow),
		Value:   color.New(color.FgWhite, color.Bold),
		Name:    color.New(color.FgGreen),
		Elapsed: color.New(color.FgMagenta),
		Notice:  color.New(color.FgBlue),
	}
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()

	scheme.Header.DisableColor()
	scheme.Label.DisableColor()
	scheme.Value.DisableColor()
	scheme.Name.DisableColor()
	scheme.Elapsed.DisableColor()
	scheme.Notice.DisableColor()

	return scheme
}

// SchemeFor picks the scheme for a writer: no colors when asked to, or when
// the writer is not a terminal.
func SchemeFor(noColor, terminal bool) *ColorScheme {
	if noColor || !terminal {
		return NoColorScheme()
	}
	scheme := DefaultColorScheme()
	// color.NoColor is decided from os.Stdout; the writer may be stderr.
	scheme.Header.EnableColor()
	scheme.Label.EnableColor()
	scheme.Value.EnableColor()
	scheme.Name.EnableColor()
	scheme.Elapsed.EnableColor()
	scheme.Notice.EnableColor()
	return scheme
}
