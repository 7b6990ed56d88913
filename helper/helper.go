// Package helper provides the built-in helper library of curly templates.
//
// [Builtins] returns the block helpers of handlebars (if, unless, with and
// each) along with log and lookup, and a few helpers for generating text
// outside of HTML: expr evaluates expr-lang expressions, sanitize cleans
// untrusted markup, and pathprefix edits PATH-style lists.
package helper

import (
	"log/slog"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ardnew/curly/log"
	"github.com/ardnew/curly/lookup"
	"github.com/ardnew/curly/pkg"
	"github.com/ardnew/curly/vm"
)

// Errors returned by the built-in helpers.
var (
	ErrArgs        = pkg.NewError("wrong number of arguments")
	ErrNeedsBlock  = pkg.NewError("helper must be used as a block")
	ErrExpr        = pkg.NewError("expression failed")
	ErrExprCompile = pkg.NewError("expression compilation failed")
)

type config struct {
	logger   log.Logger
	resolver lookup.Resolver
	policy   *bluemonday.Policy
	delim    string
}

// Option configures the helpers returned by [Builtins].
type Option func(config) config

// WithLogger sets the logger the log helper writes to.
// The default is [log.Default].
func WithLogger(logger log.Logger) Option {
	return func(c config) config {
		c.logger = logger

		return c
	}
}

// WithResolver sets the resolver used by the lookup helper.
func WithResolver(r lookup.Resolver) Option {
	return func(c config) config {
		c.resolver = r

		return c
	}
}

// WithPolicy sets the sanitization policy of the sanitize helper.
// The default is [bluemonday.UGCPolicy].
func WithPolicy(p *bluemonday.Policy) Option {
	return func(c config) config {
		if p != nil {
			c.policy = p
		}

		return c
	}
}

// WithListSeparator sets the list separator of the pathprefix helper.
// The default is the OS path list separator.
func WithListSeparator(sep string) Option {
	return func(c config) config {
		c.delim = sep

		return c
	}
}

// Builtins returns a new helper library.
func Builtins(opts ...Option) vm.Helpers {
	c := config{
		logger: log.Default(),
		policy: bluemonday.UGCPolicy(),
		delim:  listSeparator,
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return vm.Helpers{
		"if":         If,
		"unless":     Unless,
		"with":       With,
		"each":       Each,
		"log":        c.log,
		"lookup":     c.lookup,
		"expr":       newEvaluator(c.logger).helper,
		"sanitize":   c.sanitize,
		"pathprefix": c.pathPrefix,
	}
}

func argc(opts *vm.HelperOptions, params []any, n int) error {
	if len(params) == n {
		return nil
	}

	return ErrArgs.With(
		slog.String("helper", opts.Name),
		slog.Int("want", n),
		slog.Int("got", len(params)),
	)
}

func block(opts *vm.HelperOptions) error {
	if opts.Fn != nil {
		return nil
	}

	return ErrNeedsBlock.With(slog.String("helper", opts.Name))
}
