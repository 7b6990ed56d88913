// Package compiler turns template source into render functions for the vm
// runtime.
//
// Source is parsed into a syntax tree once. The resulting [vm.Spec] walks
// that tree at render time, calling back into its container for block
// programs, path resolution, escaping and partials.
package compiler

import (
	"log/slog"

	"github.com/ardnew/curly/log"
	"github.com/ardnew/curly/lookup"
	"github.com/ardnew/curly/parser"
	"github.com/ardnew/curly/pkg"
	"github.com/ardnew/curly/vm"
)

// Errors returned by compiled templates.
var (
	ErrCompile       = pkg.NewError("template compilation failed")
	ErrHelperMissing = pkg.NewError("could not find helper")
	ErrHelperFailed  = pkg.NewError("helper failed")
)

// Compiler compiles template source. It implements [vm.Compiler], and the
// templates it produces compile partials given as source with it too.
type Compiler struct {
	logger      log.Logger
	helpers     vm.Helpers
	resolver    lookup.Resolver
	escaper     func(any) string
	runtimeOnly bool
}

// Option configures a [Compiler].
type Option func(*Compiler)

// WithLogger sets the logger of the compiler and of its templates.
func WithLogger(logger log.Logger) Option {
	return func(c *Compiler) { c.logger = logger }
}

// WithHelpers sets the helper library of compiled templates.
func WithHelpers(helpers vm.Helpers) Option {
	return func(c *Compiler) { c.helpers = helpers }
}

// WithResolver sets the path resolver of compiled templates.
func WithResolver(r lookup.Resolver) Option {
	return func(c *Compiler) { c.resolver = r }
}

// WithEscaper sets the output escaper of compiled templates.
func WithEscaper(fn func(any) string) Option {
	return func(c *Compiler) { c.escaper = fn }
}

// WithRuntimeOnly makes compiled templates unable to compile partials given
// as source.
func WithRuntimeOnly(runtimeOnly bool) Option {
	return func(c *Compiler) { c.runtimeOnly = runtimeOnly }
}

// New returns a compiler configured by opts.
func New(opts ...Option) *Compiler {
	c := &Compiler{logger: log.Discard()}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Compile compiles source with a default compiler.
func Compile(source string, opts vm.CompileOptions) (vm.Render, error) {
	return New().Compile(source, opts)
}

// Precompile parses source into a spec without binding it to a container.
func Precompile(source string) (vm.Spec, error) {
	return New().Precompile(source, vm.CompileOptions{})
}

// Compile compiles source into a render function.
func (c *Compiler) Compile(source string, opts vm.CompileOptions) (vm.Render, error) {
	spec, err := c.Precompile(source, opts)
	if err != nil {
		return nil, err
	}

	return vm.Template(spec, c.containerOptions()...), nil
}

// Precompile parses source into a spec that can be passed to [vm.Template].
func (c *Compiler) Precompile(source string, opts vm.CompileOptions) (vm.Spec, error) {
	prog, err := parser.Parse(source)
	if err != nil {
		c.logger.Debug("parse failed", slog.Any("error", err))

		return nil, ErrCompile.Wrap(err)
	}

	t := newTemplate(prog, opts)

	c.logger.Trace("compiled template",
		slog.Int("bytes", len(source)),
		slog.Int("programs", len(t.ids)),
		slog.Bool("data", opts.Data),
	)

	return t.spec, nil
}

func (c *Compiler) containerOptions() []vm.Option {
	opts := []vm.Option{
		vm.WithLogger(c.logger),
		vm.WithHelpers(c.helpers),
		vm.WithResolver(c.resolver),
		vm.WithEscaper(c.escaper),
	}

	if !c.runtimeOnly {
		opts = append(opts, vm.WithCompiler(c))
	}

	return opts
}
