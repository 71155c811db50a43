// Package config loads report settings from a YAML, JSON or TOML file.
package config

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DefaultLogLevel is used when neither the file nor the flags set one.
const DefaultLogLevel = "warn"

// ReportConfig holds the settings of the report command.
//
// Example YAML:
//
//	archive: run/traces.otf2
//	format: text
//	verbose: true
//	noColor: false
//	logLevel: warn
//	extract:
//	  - $.events.total
type ReportConfig struct {
	// Archive is the anchor file or archive directory
	Archive string `json:"archive,omitempty" yaml:"archive,omitempty" toml:"archive"`

	// Format is one of text, json or yaml
	Format string `json:"format,omitempty" yaml:"format,omitempty" toml:"format"`

	// Verbose adds definition counts, location spread and name listings
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty" toml:"verbose"`

	// NoColor disables colored text output
	NoColor bool `json:"noColor,omitempty" yaml:"noColor,omitempty" toml:"noColor"`

	// LogLevel is a zerolog level name
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty" toml:"logLevel"`

	// Extract holds JSONPath expressions evaluated against the JSON report
	Extract []string `json:"extract,omitempty" yaml:"extract,omitempty" toml:"extract"`
}

// Default returns the configuration used when no file is given.
func Default() *ReportConfig {
	return &ReportConfig{
		Format:   FormatText,
		LogLevel: DefaultLogLevel,
	}
}

// applyDefaults fills unset fields.
func (c *ReportConfig) applyDefaults() {
	if c.Format == "" {
		c.Format = FormatText
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}
