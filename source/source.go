// Package source reads documents into dynamic values and writes them back,
// in JSON through goccy/go-json and in YAML through yaml.v3. Key order is
// preserved both ways.
package source

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/reoring/datafixer/dynamic"
	eng "github.com/reoring/datafixer/internal/engine"
	"github.com/reoring/datafixer/source/gojson"
)

// Format is a supported document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// Options bounds what a decoder accepts.
type Options struct {
	MaxDepth        int  // 0 means unlimited
	AllowDuplicates bool // last occurrence wins instead of failing
	Float64         bool // decode every number as float64
}

// DefaultOptions rejects duplicate keys and nesting deeper than 512 levels.
func DefaultOptions() Options { return Options{MaxDepth: 512} }

func (o Options) engine() eng.Options {
	out := eng.Options{MaxDepth: o.MaxDepth, OnDuplicate: eng.DupError}
	if o.AllowDuplicates {
		out.OnDuplicate = eng.DupLastWins
	}
	if o.Float64 {
		out.Numbers = eng.NumberFloat64
	}
	return out
}

// Decode reads one document in format f.
func Decode(f Format, r io.Reader, opt Options) (dynamic.Value, error) {
	if f == FormatYAML {
		return DecodeYAML(r, opt)
	}
	return DecodeJSON(r, opt)
}

// DecodeJSON reads exactly one JSON value. Trailing values are an error.
func DecodeJSON(r io.Reader, opt Options) (dynamic.Value, error) {
	src := gojson.NewReader(r)
	v, err := eng.Decode(src, opt.engine())
	if err != nil {
		return dynamic.Null(), err
	}
	if src.More() {
		return dynamic.Null(), &eng.DecodeError{Code: eng.CodeParseError, Path: "/", Message: "trailing data after document"}
	}
	return v, nil
}

// Encode writes v in format f.
func Encode(f Format, w io.Writer, v dynamic.Value, pretty bool) error {
	if f == FormatYAML {
		return EncodeYAML(w, v)
	}
	return EncodeJSON(w, v, pretty)
}

// JSON decodes a JSON document with DefaultOptions.
func JSON(b []byte) (dynamic.Value, error) {
	return DecodeJSON(bytes.NewReader(b), DefaultOptions())
}

// JSONReader decodes a JSON document from r with DefaultOptions.
func JSONReader(r io.Reader) (dynamic.Value, error) { return DecodeJSON(r, DefaultOptions()) }

// YAML decodes a YAML document with DefaultOptions.
func YAML(b []byte) (dynamic.Value, error) {
	return DecodeYAML(bytes.NewReader(b), DefaultOptions())
}
