// Package engine is the high-level API of curly: an environment holding a
// helper library and a partials registry, with a cache of compiled
// templates.
package engine

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"sync"

	"github.com/klauspost/readahead"

	"github.com/ardnew/curly/compiler"
	"github.com/ardnew/curly/helper"
	"github.com/ardnew/curly/log"
	"github.com/ardnew/curly/lookup"
	"github.com/ardnew/curly/pkg"
	"github.com/ardnew/curly/vm"
)

// Errors returned by an [Env].
var (
	ErrReadTemplate = pkg.NewError("could not read template")
	ErrReadPartial  = pkg.NewError("could not read partial")
)

// Env compiles and renders templates against a shared helper library and
// partials registry. It is safe for concurrent use; renders are serialized.
type Env struct {
	mu       sync.Mutex
	logger   log.Logger
	helpers  vm.Helpers
	partials vm.Partials
	cache    sync.Map // string -> vm.Render

	resolver    lookup.Resolver
	escaper     func(any) string
	data        bool
	runtimeOnly bool
	compiler    *compiler.Compiler
}

// Option configures an [Env].
type Option func(*Env)

// WithLogger sets the logger. The default is [log.Default].
func WithLogger(logger log.Logger) Option {
	return func(e *Env) { e.logger = logger }
}

// WithHelpers adds helpers to the library, replacing built-ins of the same
// name.
func WithHelpers(helpers vm.Helpers) Option {
	return func(e *Env) { maps.Copy(e.helpers, helpers) }
}

// WithConvention sets how invocable context values are called.
func WithConvention(c lookup.Convention) Option {
	return func(e *Env) { e.resolver.Convention = c }
}

// WithEscaper replaces HTML escaping of mustache output.
func WithEscaper(fn func(any) string) Option {
	return func(e *Env) { e.escaper = fn }
}

// WithData compiles templates so that block bodies receive the data frame
// passed to [Env.Render]. It is enabled by default; disabling it lets block
// programs be cached per template at the cost of @-variables inside nested
// blocks.
func WithData(enable bool) Option {
	return func(e *Env) { e.data = enable }
}

// WithRuntimeOnly disables compiling partials registered as source.
func WithRuntimeOnly(enable bool) Option {
	return func(e *Env) { e.runtimeOnly = enable }
}

// New returns an environment with the built-in helpers.
func New(opts ...Option) *Env {
	e := &Env{
		logger:   log.Default(),
		helpers:  vm.Helpers{},
		partials: vm.Partials{},
		data:     true,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	builtins := helper.Builtins(
		helper.WithLogger(e.logger),
		helper.WithResolver(e.resolver),
	)

	// Options ran first so that their helpers win over the built-ins.
	maps.Copy(builtins, e.helpers)
	e.helpers = builtins

	e.compiler = compiler.New(
		compiler.WithLogger(e.logger),
		compiler.WithHelpers(e.helpers),
		compiler.WithResolver(e.resolver),
		compiler.WithEscaper(e.escaper),
		compiler.WithRuntimeOnly(e.runtimeOnly),
	)

	return e
}

// RegisterHelper adds or replaces a helper.
func (e *Env) RegisterHelper(name string, h vm.Helper) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.helpers[name] = h
}

// RegisterPartial adds or replaces a partial. See [vm.Partials] for the
// values accepted.
func (e *Env) RegisterPartial(name string, partial any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.partials[name] = partial
}

// Partials returns a copy of the partials registry.
func (e *Env) Partials() vm.Partials {
	e.mu.Lock()
	defer e.mu.Unlock()

	return maps.Clone(e.partials)
}

// Render compiles source, or reuses its cached compilation, and renders it
// against context with the data frame data.
func (e *Env) Render(ctx context.Context, source string, context, data any) (string, error) {
	render, err := e.Compile(ctx, source)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	out, err := render(context, &vm.Options{Partials: e.partials, Data: data})
	if err != nil {
		return "", err
	}

	e.logger.DebugContext(ctx, "rendered template",
		slog.Int("source_bytes", len(source)),
		slog.Int("output_bytes", len(out)),
	)

	return out, nil
}

// RenderReader reads a template from r and renders it like [Env.Render].
func (e *Env) RenderReader(ctx context.Context, r io.Reader, context, data any) (string, error) {
	source, err := readAll(r)
	if err != nil {
		return "", ErrReadTemplate.Wrap(err)
	}

	return e.Render(ctx, source, context, data)
}

// readAll reads r to the end, prefetching asynchronously.
func readAll(r io.Reader) (string, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	b, err := io.ReadAll(ra)

	return string(b), err
}
