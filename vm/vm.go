// Package vm is the runtime that compiled templates execute against.
//
// A compiled template is a [Spec]. [Template] wraps a Spec in a [Container]
// and returns the [Render] function callers use. During rendering the Spec
// calls back into its container to build nested [Program]s for block bodies,
// to resolve paths, to escape output and to invoke partials.
//
// Rendering is synchronous. A Render and its container must not be used by
// more than one goroutine at a time.
package vm

import (
	"log/slog"

	"github.com/ardnew/curly/escape"
	"github.com/ardnew/curly/log"
	"github.com/ardnew/curly/lookup"
)

// Helpers maps helper names to helper functions.
type Helpers map[string]Helper

// Helper computes the value of a mustache or block that names it.
// params holds the evaluated positional arguments.
type Helper func(context any, params []any, opts *HelperOptions) (any, error)

// HelperOptions carries everything a helper may need besides its
// positional arguments.
type HelperOptions struct {
	// Name is the helper name as written in the template.
	Name string
	// Hash holds the evaluated key=value arguments.
	Hash map[string]any
	// Data is the data frame in effect at the call site.
	Data any
	// Fn is the block body, nil for a plain mustache.
	Fn *Program
	// Inverse is the else branch of a block, a no-op when there is none.
	Inverse *Program
}

// Partials maps partial names to partials. A value is a [Render], a
// function with the same signature, or template source as a string or byte
// slice that is compiled on first use.
type Partials map[string]any

// Options are the per-call options of a [Render].
type Options struct {
	Helpers  Helpers
	Partials Partials
	Data     any
}

// Render renders a template against context. opts may be nil.
type Render func(context any, opts *Options) (string, error)

// Spec is a compiled template. base is the helper library the template was
// built with; helpers, partials and data come from the caller.
type Spec func(
	c *Container,
	base Helpers,
	context any,
	helpers Helpers,
	partials Partials,
	data any,
) (string, error)

// Option configures a [Container].
type Option func(*Container)

// WithEscaper replaces [escape.Expression] as the output escaper.
func WithEscaper(fn func(any) string) Option {
	return func(c *Container) {
		if fn != nil {
			c.escape = fn
		}
	}
}

// WithCompiler sets the compiler used for partials given as source.
// Without one, the container is runtime-only.
func WithCompiler(compiler Compiler) Option {
	return func(c *Container) { c.compiler = compiler }
}

// WithResolver sets the path resolver.
func WithResolver(r lookup.Resolver) Option {
	return func(c *Container) { c.resolver = r }
}

// WithHelpers sets the helper library passed to the [Spec] as base.
func WithHelpers(base Helpers) Option {
	return func(c *Container) { c.base = base }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Container) { c.logger = logger }
}

// Template returns the render function of spec.
//
// Each call of the returned function passes the container, the helper
// library, the context and the caller's helpers, partials and data to spec.
// Programs built for data-less block bodies are cached in the container
// across calls.
func Template(spec Spec, opts ...Option) Render {
	c := newContainer(opts...)

	return func(context any, o *Options) (string, error) {
		if o == nil {
			o = &Options{}
		}

		saved := c.call
		c.call = call{helpers: o.Helpers, partials: o.Partials}

		defer func() { c.call = saved }()

		out, err := spec(c, c.base, context, o.Helpers, o.Partials, o.Data)
		if err != nil {
			c.logger.Debug("render failed", slog.Any("error", err))
		}

		return out, err
	}
}

// call is the caller-supplied state of the render in progress.
type call struct {
	helpers  Helpers
	partials Partials
}

// Container is the runtime state shared by one template's renders: its
// program cache and its collaborators.
type Container struct {
	programs map[int]*Program
	escape   func(any) string
	compiler Compiler
	base     Helpers
	logger   log.Logger
	resolver lookup.Resolver
	call     call
}

// NewContainer returns a container configured by opts. Most callers use
// [Template] instead.
func NewContainer(opts ...Option) *Container { return newContainer(opts...) }

func newContainer(opts ...Option) *Container {
	c := &Container{
		programs: map[int]*Program{},
		escape:   escape.Expression,
		logger:   log.Discard(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// EscapeExpression escapes v for output with the configured escaper.
func (c *Container) EscapeExpression(v any) string { return c.escape(v) }

// Lookup resolves segments against context and data with the configured
// resolver.
func (c *Container) Lookup(context, data any, segments []string) any {
	return c.resolver.EvaluateProperty(context, data, segments)
}

// Resolver returns the configured path resolver.
func (c *Container) Resolver() lookup.Resolver { return c.resolver }

// Helpers returns the helpers passed to the render in progress.
func (c *Container) Helpers() Helpers { return c.call.helpers }

// Partials returns the partials registry passed to the render in progress.
func (c *Container) Partials() Partials { return c.call.partials }

// Base returns the helper library of the container.
func (c *Container) Base() Helpers { return c.base }

// Logger returns the container logger.
func (c *Container) Logger() log.Logger { return c.logger }
