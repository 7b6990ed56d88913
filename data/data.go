// Package data decodes template contexts from JSON, YAML and TOML documents.
package data

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/curly/pkg"
)

// Errors returned by this package.
var (
	ErrFormat = pkg.NewError("unsupported data format")
	ErrDecode = pkg.NewError("could not decode data")
	ErrRead   = pkg.NewError("could not read data")
)

// Format is a document format.
type Format uint8

// Supported formats.
const (
	FormatJSON Format = iota
	FormatYAML
	FormatTOML
)

// Stdin is the path that [Load] reads from standard input.
const Stdin = "-"

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}
}

// Formats returns the names of all formats.
func Formats() []string {
	return []string{FormatJSON.String(), FormatYAML.String(), FormatTOML.String()}
}

// ParseFormat returns the format named s, case-insensitively. "yml" is
// accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return 0, ErrFormat.With(slog.String("format", s))
	}
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (f *Format) UnmarshalText(text []byte) error {
	v, err := ParseFormat(string(text))
	if err != nil {
		return err
	}

	*f = v

	return nil
}

// FormatOf returns the format of the file at path, from its extension.
func FormatOf(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, ErrFormat.With(slog.String("path", path))
	}

	f, err := ParseFormat(ext)
	if err != nil {
		return 0, ErrFormat.With(slog.String("path", path))
	}

	return f, nil
}

// Load decodes the file at path in the format of its extension. The path
// [Stdin] reads standard input as YAML, which also accepts JSON.
func Load(path string) (any, error) {
	if path == Stdin {
		return Decode(os.Stdin, FormatYAML)
	}

	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, ErrRead.Wrap(err).With(slog.String("path", path))
	}
	defer file.Close()

	v, err := Decode(file, f)
	if err != nil {
		return nil, pkg.WrapError(err).With(slog.String("path", path))
	}

	return v, nil
}

// Decode reads a document in format f from r.
func Decode(r io.Reader, f Format) (any, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrRead.Wrap(err)
	}

	return Parse(b, f)
}

// Parse decodes a document in format f. Mappings decode to map[string]any
// and sequences to []any. An empty document decodes to an empty map.
func Parse(b []byte, f Format) (any, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return map[string]any{}, nil
	}

	var (
		v   any
		err error
	)

	switch f {
	case FormatJSON, FormatYAML:
		err = yaml.Unmarshal(b, &v)

	case FormatTOML:
		m := map[string]any{}
		err = toml.Unmarshal(b, &m)
		v = m

	default:
		return nil, ErrFormat.With(slog.String("format", f.String()))
	}

	if err != nil {
		return nil, ErrDecode.Wrap(err).With(slog.String("format", f.String()))
	}

	return v, nil
}
