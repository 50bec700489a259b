package endpoint

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Format identifies how an API surface document is encoded
type Format string

const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat validates a user supplied format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatJSON, FormatYAML, FormatText:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: auto, json, yaml, text)", name)
	}
}

// DetectFormat determines the format from a file name. Anything that is not
// recognised as a structured document is treated as a plain endpoint list.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// ErrInvalidEncoding is reported when text input is not valid UTF-8
var ErrInvalidEncoding = errors.New("input is not valid UTF-8")

// ParseError is returned when an API surface document cannot be parsed.
// It is fatal: no descriptors are returned alongside it.
type ParseError struct {
	Source string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s as %s: %v", e.Source, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads an API surface document and returns its descriptors in
// document order. name is used for error messages and, when format is
// FormatAuto, to pick the format from its extension.
func Load(name string, r io.Reader, format Format) ([]Descriptor, error) {
	if format == "" || format == FormatAuto {
		format = DetectFormat(name)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var descriptors []Descriptor
	switch format {
	case FormatJSON:
		descriptors, err = parseJSON(data)
	case FormatYAML:
		descriptors, err = parseYAML(data)
	case FormatText:
		descriptors, err = parseText(data)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, &ParseError{Source: name, Format: format, Err: err}
	}
	return descriptors, nil
}

// LoadFile loads descriptors from a file on disk
func LoadFile(path string, format Format) ([]Descriptor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spec file: %w", err)
	}
	defer file.Close()

	return Load(path, file, format)
}

// parseText treats every non-blank line as a path template with no method
func parseText(data []byte) ([]Descriptor, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var descriptors []Descriptor
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		descriptors = append(descriptors, Descriptor{Path: line})
	}
	return descriptors, nil
}
