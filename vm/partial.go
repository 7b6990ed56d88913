package vm

import (
	"fmt"
	"log/slog"

	"github.com/ardnew/curly/pkg"
)

// Errors returned when invoking partials.
var (
	ErrPartialNotFound    = pkg.NewError("partial could not be found")
	ErrPartialRuntimeOnly = pkg.NewError("partial could not be compiled in runtime-only mode")
	ErrPartialCompile     = pkg.NewError("partial compilation failed")
	ErrPartialInvalid     = pkg.NewError("partial has an unsupported type")
)

// CompileOptions are the options of a [Compiler].
type CompileOptions struct {
	// Data reports whether renders of the template carry a data frame.
	Data bool
}

// Compiler compiles template source into a render function.
type Compiler interface {
	Compile(source string, opts CompileOptions) (Render, error)
}

// CompilerFunc adapts a function to the [Compiler] interface.
type CompilerFunc func(source string, opts CompileOptions) (Render, error)

// Compile calls f.
func (f CompilerFunc) Compile(source string, opts CompileOptions) (Render, error) {
	return f(source, opts)
}

// InvokePartial renders the partial registered as name with the container's
// compiler. See the package function [InvokePartial].
func (c *Container) InvokePartial(
	partial any,
	name string,
	context any,
	helpers Helpers,
	partials Partials,
	data any,
) (string, error) {
	if s, ok := source(partial); ok && c.compiler != nil {
		c.logger.Debug("compiling partial",
			slog.String("name", name), slog.Int("bytes", len(s)))
	}

	return InvokePartial(c.compiler, partial, name, context, helpers, partials, data)
}

// InvokePartial renders partial, registered as name, against context.
//
// A function partial is called with helpers, partials and data. A partial
// given as source is compiled with compiler, stored back into partials under
// name so that it is compiled only once, and then called. With a nil
// compiler, source partials fail with [ErrPartialRuntimeOnly]. A nil partial
// fails with [ErrPartialNotFound].
func InvokePartial(
	compiler Compiler,
	partial any,
	name string,
	context any,
	helpers Helpers,
	partials Partials,
	data any,
) (string, error) {
	opts := &Options{Helpers: helpers, Partials: partials, Data: data}

	switch p := partial.(type) {
	case nil:
		return "", ErrPartialNotFound.With(slog.String("name", name))

	case Render:
		return p(context, opts)

	case func(any, *Options) (string, error):
		return p(context, opts)
	}

	src, ok := source(partial)
	if !ok {
		return "", ErrPartialInvalid.With(
			slog.String("name", name),
			slog.String("type", fmt.Sprintf("%T", partial)),
		)
	}

	if compiler == nil {
		return "", ErrPartialRuntimeOnly.With(slog.String("name", name))
	}

	render, err := compiler.Compile(src, CompileOptions{Data: data != nil})
	if err != nil {
		return "", ErrPartialCompile.Wrap(err).With(slog.String("name", name))
	}

	if partials != nil {
		partials[name] = render
	}

	return render(context, opts)
}

func source(partial any) (string, bool) {
	switch p := partial.(type) {
	case string:
		return p, true
	case []byte:
		return string(p), true
	default:
		return "", false
	}
}
