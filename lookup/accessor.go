package lookup

import (
	"reflect"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Accessor finds named members of a context value.
// A context type implementing Accessor replaces the [Plain] accessor for its
// values, which is how new kinds of context plug into resolution.
type Accessor interface {
	Access(name string) (any, bool)
}

// Model is a context that exposes its members through a keyed getter.
type Model interface {
	Get(name string) any
}

// Collection is a context that exposes its elements by position.
type Collection interface {
	At(index int) any
}

// Accessors returns the accessors consulted for base, in priority order:
//
//  1. the plain member accessor (or base itself if it is an [Accessor]);
//  2. [Keyed], if base is a [Model] that is not also a [Collection];
//  3. [Indexed], if base is a [Collection].
func Accessors(base any) []Accessor {
	if base == nil {
		return nil
	}

	if rv := reflect.ValueOf(base); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}

	out := make([]Accessor, 0, 2)

	if a, ok := base.(Accessor); ok {
		out = append(out, a)
	} else {
		out = append(out, Plain{Value: base})
	}

	col, isCol := base.(Collection)

	if m, ok := base.(Model); ok && !isCol {
		out = append(out, Keyed{Model: m})
	}

	if isCol {
		out = append(out, Indexed{Collection: col})
	}

	return out
}

// Keyed resolves every name through [Model.Get].
type Keyed struct{ Model Model }

func (k Keyed) Access(name string) (any, bool) { return k.Model.Get(name), true }

// Indexed resolves non-negative decimal names through [Collection.At].
type Indexed struct{ Collection Collection }

func (x Indexed) Access(name string) (any, bool) {
	i, ok := index(name)
	if !ok {
		return nil, false
	}

	return x.Collection.At(i), true
}

// Plain resolves names against the ordinary members of a Go value:
//
//   - map entries, with the name converted to the key type;
//   - exported struct fields, by name or by json, yaml or toml tag;
//   - exported methods, on the value or its pointer;
//   - slice and array elements by decimal index, and "length" of slices,
//     arrays, maps and strings.
//
// Field and method names are also tried with the first letter upper-cased,
// so "name" finds a field Name.
type Plain struct{ Value any }

func (p Plain) Access(name string) (any, bool) {
	return member(reflect.ValueOf(p.Value), name)
}

func member(v reflect.Value, name string) (any, bool) {
	for v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}

	if !v.IsValid() {
		return nil, false
	}

	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}

		if m, ok := method(v, name); ok {
			return m, true
		}

		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if key, ok := mapKey(name, v.Type().Key()); ok {
			if e := v.MapIndex(key); e.IsValid() {
				return e.Interface(), true
			}
		}

		if name == "length" {
			return v.Len(), true
		}

	case reflect.Struct:
		if f, ok := field(v, name); ok {
			return f, true
		}

	case reflect.Slice, reflect.Array:
		if name == "length" {
			return v.Len(), true
		}

		if i, ok := index(name); ok && i < v.Len() {
			return v.Index(i).Interface(), true
		}

	case reflect.String:
		if name == "length" {
			return v.Len(), true
		}
	}

	return method(v, name)
}

func field(v reflect.Value, name string) (any, bool) {
	t := v.Type()

	for _, n := range candidates(name) {
		if sf, ok := t.FieldByName(n); ok && sf.IsExported() {
			if f, err := v.FieldByIndexErr(sf.Index); err == nil && f.CanInterface() {
				return f.Interface(), true
			}
		}
	}

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		for _, key := range [...]string{"json", "yaml", "toml"} {
			if tagName(sf.Tag.Get(key)) == name {
				return v.Field(i).Interface(), true
			}
		}
	}

	return nil, false
}

func method(v reflect.Value, name string) (any, bool) {
	for _, n := range candidates(name) {
		if m := v.MethodByName(n); m.IsValid() {
			return m.Interface(), true
		}
	}

	return nil, false
}

// candidates returns name and, if different, name with its first letter
// upper-cased.
func candidates(name string) []string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || unicode.IsUpper(r) || !unicode.IsLetter(r) {
		return []string{name}
	}

	return []string{name, string(unicode.ToUpper(r)) + name[size:]}
}

func tagName(tag string) string {
	for i := range len(tag) {
		if tag[i] == ',' {
			return tag[:i]
		}
	}

	return tag
}

func mapKey(name string, t reflect.Type) (reflect.Value, bool) {
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(name).Convert(t), true

	case reflect.Interface:
		if reflect.TypeFor[string]().Implements(t) {
			return reflect.ValueOf(name).Convert(t), true
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, err := strconv.ParseInt(name, 10, t.Bits()); err == nil {
			return reflect.ValueOf(n).Convert(t), true
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, err := strconv.ParseUint(name, 10, t.Bits()); err == nil {
			return reflect.ValueOf(n).Convert(t), true
		}
	}

	return reflect.Value{}, false
}

// index parses a non-negative decimal index.
func index(name string) (int, bool) {
	if name == "" {
		return 0, false
	}

	for i := range len(name) {
		if name[i] < '0' || name[i] > '9' {
			return 0, false
		}
	}

	n, err := strconv.Atoi(name)

	return n, err == nil
}
