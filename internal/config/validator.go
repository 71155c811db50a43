package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the settings. The archive path is not required here
// since it may come from the command line.
func (c *ReportConfig) Validate() error {
	errs := &ValidationErrors{}

	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		errs.Add("format", fmt.Sprintf("unknown format %q (want text, json or yaml)", c.Format))
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs.Add("logLevel", err.Error())
	}

	for i, expr := range c.Extract {
		if strings.TrimSpace(expr) == "" {
			errs.Add(fmt.Sprintf("extract[%d]", i), "expression cannot be empty")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ParseLogLevel maps a level name to a zerolog level. The empty string is
// the default level.
func ParseLogLevel(name string) (zerolog.Level, error) {
	if name == "" {
		name = DefaultLogLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
	}
	if level == zerolog.NoLevel {
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}
