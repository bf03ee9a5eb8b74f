// Package ux renders command output: machine formats for pipelines,
// styled verdict lines for humans.
package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Formatter writes a command's result in one output format
type Formatter interface {
	Format(data any) error
}

// FormatterOptions controls where and how output is written
type FormatterOptions struct {
	// Writer defaults to os.Stdout
	Writer io.Writer
	// NoColor disables styled output in text mode
	NoColor bool
	// Compact drops indentation in json and yaml modes
	Compact bool
}

// NewFormatter selects the formatter for a format name. Supported names
// are text, json and yaml; an empty name means text.
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	if opts == nil {
		opts = &FormatterOptions{}
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case "json", "yaml", "text", "":
		return &formatter{mode: format, opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
}

type formatter struct {
	mode string
	opts *FormatterOptions
}

func (f *formatter) Format(data any) error {
	switch f.mode {
	case "json":
		return f.writeJSON(data)
	case "yaml":
		return f.writeYAML(data)
	default:
		return f.writeText(data)
	}
}

func (f *formatter) writeJSON(data any) error {
	encoder := json.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

func (f *formatter) writeYAML(data any) error {
	encoder := yaml.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent(2)
	}
	defer encoder.Close()
	return encoder.Encode(data)
}

// writeText accepts strings and fmt.Stringer values; anything else has no
// sensible line rendering and is rejected so the caller picks json instead.
func (f *formatter) writeText(data any) error {
	switch v := data.(type) {
	case string:
		_, err := fmt.Fprintln(f.opts.Writer, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.opts.Writer, v.String())
		return err
	default:
		return fmt.Errorf("text output needs a string or Stringer, got %T", data)
	}
}
