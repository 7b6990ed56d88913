// Package lookup resolves dotted paths against template contexts.
//
// A path is a list of segments resolved one at a time, each against the
// value produced by the previous one. How a segment is resolved depends on
// what the current value can do, see [Accessors]. A segment that cannot be
// resolved yields nil; resolution never fails and never modifies its inputs.
//
// A value found by resolution may be invocable (a function or method). It is
// then called and its result is used instead, following the [Convention] of
// the [Resolver].
package lookup

import (
	"reflect"
	"strings"
)

// DataMarkers are the prefixes that make the first segment of a path resolve
// against the data frame instead of the context.
const DataMarkers = "~@"

// Convention selects the arguments passed to invocable values.
type Convention uint8

const (
	// CallWithFrame passes the root context and the data frame to invocables
	// that accept two arguments.
	CallWithFrame Convention = iota
	// CallBare passes no arguments; two-argument invocables receive zero
	// values.
	CallBare
)

func (c Convention) String() string {
	if c == CallBare {
		return "bare"
	}

	return "frame"
}

// ParseConvention parses the name produced by [Convention.String].
// Unrecognized names yield [CallWithFrame].
func ParseConvention(s string) Convention {
	if strings.EqualFold(strings.TrimSpace(s), "bare") {
		return CallBare
	}

	return CallWithFrame
}

// Resolver resolves paths and names with a given calling convention.
// The zero value uses [CallWithFrame].
type Resolver struct {
	Convention Convention
}

// Default is the resolver used by the package-level functions.
//
//nolint:gochecknoglobals
var Default = Resolver{}

// EvaluateProperty resolves segments with the [Default] resolver.
func EvaluateProperty(context, data any, segments []string) any {
	return Default.EvaluateProperty(context, data, segments)
}

// NameLookup resolves name with the [Default] resolver.
func NameLookup(base any, name string, root, data any) any {
	return Default.NameLookup(base, name, root, data)
}

// EvaluateProperty resolves segments starting at context.
//
// With no segments the result is context itself. If the first segment
// starts with one of [DataMarkers], resolution starts at data instead and
// the marker is dropped; from then on an empty segment resolves to data
// itself, which is how "@." and "@../" address the frame.
func (r Resolver) EvaluateProperty(context, data any, segments []string) any {
	if len(segments) == 0 {
		return context
	}

	base, isData := context, false

	for i, part := range segments {
		if i == 0 {
			if name, ok := dataName(part); ok {
				base, isData, part = data, true, name
			}
		}

		if isData && part == "" {
			base = data

			continue
		}

		base = r.NameLookup(base, part, context, data)
	}

	return base
}

// NameLookup resolves a single name against base.
//
// The accessors of base are tried in order and the first that has the name
// wins. If the value found is invocable, it is called according to the
// convention with root and data, and its result is returned.
func (r Resolver) NameLookup(base any, name string, root, data any) any {
	for _, a := range Accessors(base) {
		if v, ok := a.Access(name); ok {
			return r.invoke(v, root, data)
		}
	}

	return nil
}

func dataName(segment string) (string, bool) {
	if segment != "" && strings.IndexByte(DataMarkers, segment[0]) >= 0 {
		return segment[1:], true
	}

	return segment, false
}

var errorType = reflect.TypeFor[error]()

// invoke calls v if it is a function of zero or two arguments and returns
// its first result. A non-nil trailing error result yields nil. Any other
// value, including functions of other arities, is returned unchanged.
func (r Resolver) invoke(v any, root, data any) any {
	fn := reflect.ValueOf(v)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return v
	}

	t := fn.Type()
	if t.IsVariadic() || t.NumOut() == 0 || t.NumOut() > 2 {
		return v
	}

	if t.NumOut() == 2 && !t.Out(1).Implements(errorType) {
		return v
	}

	var in []reflect.Value

	switch t.NumIn() {
	case 0:

	case 2:
		in = []reflect.Value{reflect.Zero(t.In(0)), reflect.Zero(t.In(1))}

		if r.Convention == CallWithFrame {
			in = []reflect.Value{argument(root, t.In(0)), argument(data, t.In(1))}
		}

	default:
		return v
	}

	out := fn.Call(in)

	if len(out) == 2 && !out[1].IsNil() {
		return nil
	}

	return out[0].Interface()
}

func argument(v any, t reflect.Type) reflect.Value {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || !rv.Type().AssignableTo(t) {
		return reflect.Zero(t)
	}

	return rv
}
