package compiler

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/ardnew/curly/escape"
	"github.com/ardnew/curly/parser"
	"github.com/ardnew/curly/vm"
)

// template is a parsed template with its block programs numbered and the
// number of ancestor contexts each program needs precomputed.
type template struct {
	root  *parser.Program
	opts  vm.CompileOptions
	ids   map[*parser.Program]int
	needs map[*parser.Program]int
}

func newTemplate(root *parser.Program, opts vm.CompileOptions) *template {
	t := &template{
		root:  root,
		opts:  opts,
		ids:   map[*parser.Program]int{},
		needs: map[*parser.Program]int{},
	}

	t.analyze(root)

	return t
}

// analyze numbers p and the programs nested in it, and returns how many
// enclosing contexts p reads through "../" paths.
func (t *template) analyze(p *parser.Program) int {
	if p == nil {
		return 0
	}

	t.ids[p] = len(t.ids) + 1

	need := 0

	for n := range p.All() {
		switch n := n.(type) {
		case *parser.Mustache:
			need = max(need, mustacheDepth(n))

		case *parser.Block:
			need = max(need, mustacheDepth(n.Mustache),
				t.analyze(n.Program)-1, t.analyze(n.Inverse)-1)

		case *parser.Partial:
			if n.Context != nil {
				need = max(need, pathDepth(n.Context))
			}
		}
	}

	t.needs[p] = need

	return need
}

func pathDepth(e parser.Expr) int {
	if p, ok := e.(*parser.Path); ok && !p.Data {
		return p.Depth
	}

	return 0
}

func mustacheDepth(m *parser.Mustache) int {
	need := pathDepth(m.Path)

	for _, e := range m.Params {
		need = max(need, pathDepth(e))
	}

	for _, p := range m.Hash {
		need = max(need, pathDepth(p.Value))
	}

	return need
}

// spec renders the root program. Helpers and partials are read from the
// container, which holds the caller's registries for the render in
// progress, so that cached block programs never see stale ones.
func (t *template) spec(
	c *vm.Container,
	_ vm.Helpers,
	context any,
	_ vm.Helpers,
	_ vm.Partials,
	data any,
) (string, error) {
	return t.body(c, t.root)(context, data)
}

func (t *template) body(c *vm.Container, p *parser.Program) vm.Body {
	return func(context, data any, depths ...any) (string, error) {
		s := &scope{t: t, c: c, ctx: context, data: data, depths: depths}

		var sb strings.Builder

		for n := range p.All() {
			out, err := s.statement(n)
			if err != nil {
				return "", err
			}

			sb.WriteString(out)
		}

		return sb.String(), nil
	}
}

// scope is the evaluation state of one program body.
type scope struct {
	t      *template
	c      *vm.Container
	ctx    any
	data   any
	depths []any
}

func (s *scope) statement(n parser.Node) (string, error) {
	switch n := n.(type) {
	case *parser.Content:
		return n.Text, nil

	case *parser.Mustache:
		return s.mustache(n)

	case *parser.Block:
		return s.block(n)

	case *parser.Partial:
		return s.partial(n)

	default:
		return "", nil
	}
}

// program returns the vm program of a block body. Bodies that read
// enclosing contexts capture as many as they need; the rest are cached by
// the container.
func (s *scope) program(p *parser.Program) *vm.Program {
	if p == nil {
		return s.c.Noop()
	}

	var data any
	if s.t.opts.Data {
		data = s.data
	}

	if need := s.t.needs[p]; need > 0 {
		depths := append([]any{s.ctx}, s.depths...)

		return s.c.ProgramWithDepth(s.t.body(s.c, p), data, depths[:min(need, len(depths))]...)
	}

	return s.c.Program(s.t.ids[p], s.t.body(s.c, p), data)
}

func (s *scope) mustache(m *parser.Mustache) (string, error) {
	if h, ok := s.helper(m.Path); ok {
		v, err := s.call(h, m, nil, s.c.Noop())
		if err != nil {
			return "", err
		}

		return s.c.EscapeExpression(v), nil
	}

	if err := missing(m); err != nil {
		return "", err
	}

	return s.c.EscapeExpression(s.resolve(m.Path)), nil
}

func (s *scope) block(b *parser.Block) (string, error) {
	fn, inverse := s.program(b.Program), s.program(b.Inverse)

	if h, ok := s.helper(b.Mustache.Path); ok {
		v, err := s.call(h, b.Mustache, fn, inverse)
		if err != nil {
			return "", err
		}

		return escape.String(v), nil
	}

	if err := missing(b.Mustache); err != nil {
		return "", err
	}

	v := s.resolve(b.Mustache.Path)

	if b, isBool := v.(bool); isBool && b {
		return fn.Render(s.ctx, nil)
	}

	if vm.IsEmpty(v) {
		return inverse.Render(s.ctx, nil)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fn.Render(v, nil)
	}

	var sb strings.Builder

	for i := range rv.Len() {
		out, err := fn.Render(rv.Index(i).Interface(), nil)
		if err != nil {
			return "", err
		}

		sb.WriteString(out)
	}

	return sb.String(), nil
}

func (s *scope) partial(p *parser.Partial) (string, error) {
	context := s.ctx
	if p.Context != nil {
		context = s.resolve(p.Context)
	}

	partials := s.c.Partials()

	return s.c.InvokePartial(partials[p.Name], p.Name, context, s.c.Helpers(), partials, s.data)
}

// helper returns the helper named by path. Helpers passed to the render
// shadow the container's library.
func (s *scope) helper(path *parser.Path) (vm.Helper, bool) {
	if !path.Simple() {
		return nil, false
	}

	name := path.Segments[0].Name

	if h := s.c.Helpers()[name]; h != nil {
		return h, true
	}

	h := s.c.Base()[name]

	return h, h != nil
}

func (s *scope) call(h vm.Helper, m *parser.Mustache, fn, inverse *vm.Program) (any, error) {
	params := make([]any, len(m.Params))
	for i, e := range m.Params {
		params[i] = s.eval(e)
	}

	hash := make(map[string]any, len(m.Hash))
	for _, p := range m.Hash {
		hash[p.Key] = s.eval(p.Value)
	}

	v, err := h(s.ctx, params, &vm.HelperOptions{
		Name:    m.Path.Original,
		Hash:    hash,
		Data:    s.data,
		Fn:      fn,
		Inverse: inverse,
	})
	if err != nil {
		return nil, ErrHelperFailed.Wrap(err).With(slog.String("helper", m.Path.Original))
	}

	return v, nil
}

// missing fails a mustache with arguments that names no helper.
func missing(m *parser.Mustache) error {
	if len(m.Params) == 0 && len(m.Hash) == 0 {
		return nil
	}

	return ErrHelperMissing.With(slog.String("helper", m.Path.String()))
}

func (s *scope) eval(e parser.Expr) any {
	switch e := e.(type) {
	case *parser.Path:
		return s.resolve(e)
	case *parser.StringLiteral:
		return e.Value
	case *parser.IntegerLiteral:
		return int(e.Value)
	case *parser.BooleanLiteral:
		return e.Value
	default:
		return nil
	}
}

// resolve evaluates p. Data paths start at the data frame and climb its
// parent frames; other paths start at the context or, with "../", at a
// captured enclosing context.
func (s *scope) resolve(p *parser.Path) any {
	names := make([]string, 0, len(p.Segments)+p.Depth+1)

	if p.Data {
		names = append(names, "@")
		for range p.Depth {
			names = append(names, vm.ParentKey)
		}
	}

	for _, seg := range p.Segments {
		names = append(names, s.segment(seg))
	}

	if p.Data {
		if p.Depth == 0 && len(names) > 1 {
			names = append([]string{"@" + names[1]}, names[2:]...)
		}

		return s.c.Lookup(s.ctx, s.data, names)
	}

	base := s.ctx

	if p.Depth > 0 {
		base = nil
		if p.Depth <= len(s.depths) {
			base = s.depths[p.Depth-1]
		}
	}

	return s.c.Lookup(base, s.data, names)
}

// segment returns the key of seg. An indirect segment is itself resolved
// against the context, or the data frame when it starts with "~", and its
// value is used as the key.
func (s *scope) segment(seg parser.Segment) string {
	if !seg.Indirect {
		return seg.Name
	}

	return escape.String(s.c.Lookup(s.ctx, s.data, strings.Split(seg.Name, ".")))
}
