package vm

import (
	"log/slog"
	"maps"
	"math"
	"reflect"
	"slices"
)

// Body is the compiled body of a block. depths holds the enclosing
// contexts captured when its [Program] was built, innermost first.
type Body func(context, data any, depths ...any) (string, error)

// Noop is a Body that renders nothing.
func Noop(any, any, ...any) (string, error) { return "", nil }

// Program is a callable block body bound to a data frame and captured
// ancestor contexts.
type Program struct {
	body   Body
	data   any
	depths []any
}

//nolint:gochecknoglobals
var noop = &Program{body: Noop}

// Render renders p against context. A data frame in opts takes precedence
// over the one p was built with. A nil Program renders nothing.
func (p *Program) Render(context any, opts *Options) (string, error) {
	if p == nil || p.body == nil {
		return "", nil
	}

	data := p.data
	if opts != nil && opts.Data != nil {
		data = opts.Data
	}

	return p.body(context, data, p.depths...)
}

// Depths returns a copy of the ancestor contexts captured by p.
func (p *Program) Depths() []any { return slices.Clone(p.depths) }

// Program returns the program for the block body numbered id.
//
// Without a data frame the program is built once and reused for every later
// request of the same id. With a data frame a new, uncached program bound
// to data is returned.
func (c *Container) Program(id int, body Body, data any) *Program {
	if data != nil {
		return &Program{body: body, data: data}
	}

	if p, ok := c.programs[id]; ok {
		c.logger.Trace("program cache hit", slog.Int("id", id))

		return p
	}

	p := &Program{body: body}
	c.programs[id] = p

	return p
}

// ProgramWithDepth returns a new program that passes depths to body after
// the context and data frame. The depths are copied; later changes to the
// caller's slice do not affect the program. These programs are never cached.
func (c *Container) ProgramWithDepth(body Body, data any, depths ...any) *Program {
	return &Program{body: body, data: data, depths: slices.Clone(depths)}
}

// Noop returns a program that renders nothing.
func (c *Container) Noop() *Program { return noop }

// IsEmpty reports whether v counts as false in a template condition: nil,
// false, zero and NaN numbers, the empty string, empty slices and arrays, and
// nil pointers, maps and functions. Structs and non-nil maps are never empty.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Bool:
		return !rv.Bool()
	case reflect.String, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0 || math.IsNaN(rv.Float())
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// Frame is a data frame created by helpers that introduce loop variables.
type Frame map[string]any

// ParentKey is the frame entry holding the enclosing data frame.
const ParentKey = "_parent"

// CreateFrame returns a new frame holding the entries of data, if it is a
// frame or map, and a reference to data under [ParentKey].
func CreateFrame(data any) Frame {
	f := Frame{}

	switch d := data.(type) {
	case Frame:
		maps.Copy(f, d)
	case map[string]any:
		maps.Copy(f, d)
	}

	f[ParentKey] = data

	return f
}
