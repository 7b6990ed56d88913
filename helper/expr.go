package helper

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/ardnew/curly/log"
	"github.com/ardnew/curly/vm"
)

// evaluator runs expr-lang expressions, keeping compiled programs by
// source.
type evaluator struct {
	logger   log.Logger
	programs sync.Map // string -> *exprvm.Program
}

func newEvaluator(logger log.Logger) *evaluator {
	return &evaluator{logger: logger}
}

// helper evaluates its first argument as an expression.
//
// The environment holds the string keys of a map context, "this" (the
// context), "data" (the data frame) and the hash arguments, later entries
// shadowing earlier ones. Used as a block, it renders the block when the
// result is not empty and the else branch otherwise.
func (e *evaluator) helper(context any, params []any, opts *vm.HelperOptions) (any, error) {
	if err := argc(opts, params, 1); err != nil {
		return nil, err
	}

	source, ok := params[0].(string)
	if !ok {
		return nil, ErrArgs.With(
			slog.String("helper", opts.Name),
			slog.String("reason", "expression must be a string"),
		)
	}

	v, err := e.eval(source, env(context, opts))
	if err != nil {
		return nil, err
	}

	if opts.Fn == nil {
		return v, nil
	}

	if vm.IsEmpty(v) {
		return opts.Inverse.Render(context, nil)
	}

	return opts.Fn.Render(context, nil)
}

func (e *evaluator) eval(source string, env map[string]any) (any, error) {
	program, err := e.compile(source)
	if err != nil {
		return nil, err
	}

	v, err := exprvm.Run(program, env)
	if err != nil {
		return nil, ErrExpr.Wrap(err).With(slog.String("source", source))
	}

	return v, nil
}

func (e *evaluator) compile(source string) (*exprvm.Program, error) {
	if p, ok := e.programs.Load(source); ok {
		return p.(*exprvm.Program), nil
	}

	program, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, ErrExprCompile.Wrap(err).With(slog.String("source", source))
	}

	e.logger.Trace("compiled expression", slog.String("source", source))

	p, _ := e.programs.LoadOrStore(source, program)

	return p.(*exprvm.Program), nil
}

func env(context any, opts *vm.HelperOptions) map[string]any {
	out := map[string]any{}

	if rv := reflect.ValueOf(context); rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		for it := rv.MapRange(); it.Next(); {
			out[it.Key().String()] = it.Value().Interface()
		}
	}

	out["this"] = context
	out["data"] = opts.Data

	for k, v := range opts.Hash {
		out[k] = v
	}

	return out
}
