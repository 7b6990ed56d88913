package helper

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/ardnew/curly/escape"
	"github.com/ardnew/curly/vm"
)

// If renders its block when its argument is not empty, see [vm.IsEmpty],
// and the else branch otherwise.
func If(context any, params []any, opts *vm.HelperOptions) (any, error) {
	if err := conditional(params, opts); err != nil {
		return nil, err
	}

	if vm.IsEmpty(params[0]) {
		return opts.Inverse.Render(context, nil)
	}

	return opts.Fn.Render(context, nil)
}

// Unless is the inverse of [If].
func Unless(context any, params []any, opts *vm.HelperOptions) (any, error) {
	if err := conditional(params, opts); err != nil {
		return nil, err
	}

	if vm.IsEmpty(params[0]) {
		return opts.Fn.Render(context, nil)
	}

	return opts.Inverse.Render(context, nil)
}

func conditional(params []any, opts *vm.HelperOptions) error {
	if err := block(opts); err != nil {
		return err
	}

	return argc(opts, params, 1)
}

// With renders its block with its argument as the context.
func With(context any, params []any, opts *vm.HelperOptions) (any, error) {
	if err := conditional(params, opts); err != nil {
		return nil, err
	}

	if vm.IsEmpty(params[0]) {
		return opts.Inverse.Render(context, nil)
	}

	return opts.Fn.Render(params[0], nil)
}

// Each renders its block once per element of a slice or array, or once per
// entry of a map in key order. Every iteration gets a new data frame with
// @index, @first and @last, and @key for maps. An empty or unsupported
// argument renders the else branch.
func Each(context any, params []any, opts *vm.HelperOptions) (any, error) {
	if err := conditional(params, opts); err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(params[0])
	if !iterable(rv) {
		return opts.Inverse.Render(context, nil)
	}

	var sb strings.Builder

	step := func(i, n int, key, elem any) error {
		f := vm.CreateFrame(opts.Data)
		f["index"] = i
		f["first"] = i == 0
		f["last"] = i == n-1

		if key != nil {
			f["key"] = key
		}

		out, err := opts.Fn.Render(elem, &vm.Options{Data: f})
		sb.WriteString(out)

		return err
	}

	if rv.Kind() != reflect.Map {
		n := rv.Len()
		for i := range n {
			if err := step(i, n, nil, rv.Index(i).Interface()); err != nil {
				return nil, err
			}
		}

		return sb.String(), nil
	}

	keys := rv.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	})

	for i, k := range keys {
		if err := step(i, len(keys), k.Interface(), rv.MapIndex(k).Interface()); err != nil {
			return nil, err
		}
	}

	return sb.String(), nil
}

func iterable(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	default:
		return false
	}
}

// log writes its arguments to the logger at info level. The first argument
// is the message; the others are logged as args and the hash as attributes.
func (c config) log(_ any, params []any, opts *vm.HelperOptions) (any, error) {
	msg := ""
	if len(params) > 0 {
		msg, params = escape.String(params[0]), params[1:]
	}

	attrs := make([]slog.Attr, 0, len(opts.Hash)+1)

	if len(params) > 0 {
		attrs = append(attrs, slog.Any("args", params))
	}

	for _, k := range slices.Sorted(maps.Keys(opts.Hash)) {
		attrs = append(attrs, slog.Any(k, opts.Hash[k]))
	}

	c.logger.Info(msg, attrs...)

	return "", nil
}

// lookup resolves its second argument as a member name of its first.
func (c config) lookup(context any, params []any, opts *vm.HelperOptions) (any, error) {
	if err := argc(opts, params, 2); err != nil {
		return nil, err
	}

	return c.resolver.NameLookup(params[0], escape.String(params[1]), context, opts.Data), nil
}
