// Package output renders CLI results as JSON, JSON lines, YAML or text.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatText  Format = "text"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatText, FormatJSON, FormatJSONL, FormatYAML}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// Writer handles output serialization.
type Writer interface {
	// Write outputs a single result.
	Write(data any) error

	// Flush ensures all data is written.
	Flush() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return &JSONWriter{w: bufio.NewWriter(w), pretty: cfg.pretty, indent: cfg.indent}, nil
	case FormatJSONL:
		return &JSONWriter{w: bufio.NewWriter(w), lines: true}, nil
	case FormatYAML:
		return &YAMLWriter{w: bufio.NewWriter(w)}, nil
	case FormatText:
		return &TextWriter{w: bufio.NewWriter(w)}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// JSONWriter writes JSON. In lines mode every item is written as one
// compact line immediately; otherwise items are buffered and a single item
// is written as an object, several as an array.
type JSONWriter struct {
	w      *bufio.Writer
	pretty bool
	indent string
	lines  bool
	items  []any
}

// Write writes or buffers one item.
func (w *JSONWriter) Write(data any) error {
	if !w.lines {
		w.items = append(w.items, data)
		return nil
	}
	out, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(append(out, '\n')); err != nil {
		return err
	}
	return w.w.Flush()
}

// Flush writes buffered items.
func (w *JSONWriter) Flush() error {
	if w.lines || len(w.items) == 0 {
		return w.w.Flush()
	}

	var doc any = w.items
	if len(w.items) == 1 {
		doc = w.items[0]
	}

	var out []byte
	var err error
	if w.pretty {
		out, err = json.MarshalIndent(doc, "", w.indent)
	} else {
		out, err = json.Marshal(doc)
	}
	if err != nil {
		return err
	}
	w.items = w.items[:0]

	if _, err := w.w.Write(append(out, '\n')); err != nil {
		return err
	}
	return w.w.Flush()
}

// YAMLWriter writes each item as its own YAML document.
type YAMLWriter struct {
	w     *bufio.Writer
	items []any
}

// Write buffers a single item.
func (w *YAMLWriter) Write(data any) error {
	w.items = append(w.items, data)
	return nil
}

// Flush writes the buffered items as a YAML stream.
func (w *YAMLWriter) Flush() error {
	if len(w.items) == 0 {
		return w.w.Flush()
	}

	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)
	for _, item := range w.items {
		if err := encoder.Encode(item); err != nil {
			return err
		}
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	w.items = w.items[:0]
	return w.w.Flush()
}
