// Package log wraps slog with the error-code integration and level/format
// plumbing the command layer configures from flags.
package log

import (
	"io"
	"os"
	"strings"
)

// Format selects the log encoding
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// ParseFormat maps a configuration string to a Format; unknown values mean
// text since the build console is the primary consumer.
func ParseFormat(s string) Format {
	if strings.ToLower(s) == "json" {
		return FormatJSON
	}
	return FormatText
}

// Output wraps the destination writer so configs stay comparable
type Output struct {
	writer io.Writer
}

func (o Output) Writer() io.Writer {
	return o.writer
}

// NewOutput wraps an arbitrary writer, used by tests to capture entries
func NewOutput(w io.Writer) Output {
	return Output{writer: w}
}

// OutputStderr writes log entries to stderr. Stdout is reserved for
// formatted command output so the two streams stay separable in CI.
func OutputStderr() Output {
	return Output{writer: os.Stderr}
}

// Config holds the logger settings
type Config struct {
	Level  Level
	Format Format
	Output Output

	// AddSource includes the file:line of the call site in every entry
	AddSource bool
}

// DefaultConfig logs at info level as text to stderr
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
		Output: OutputStderr(),
	}
}

// CIConfig logs at info level as JSON to stderr, the shape CI log
// collectors ingest.
func CIConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: OutputStderr(),
	}
}
