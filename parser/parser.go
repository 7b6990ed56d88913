// Package parser builds the syntax tree of a mustache template.
//
// The grammar is the handlebars 1.0 subset produced by the lexer: content,
// comments, mustaches with positional and key=value arguments, blocks with
// an optional else branch, inverted sections and partials.
package parser

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/curly/lexer"
	"github.com/ardnew/curly/pkg"
)

// Errors returned by the parser.
var (
	ErrParse       = pkg.NewError("parse error")
	ErrUnexpected  = pkg.NewError("unexpected token")
	ErrInvalidPath = pkg.NewError("invalid path")
	ErrMismatch    = pkg.NewError("block close does not match open")
)

// Parse tokenizes and parses source.
func Parse(source string) (*Program, error) {
	toks, err := lexer.Collect(source)
	if err != nil {
		return nil, ErrParse.Wrap(err)
	}

	return ParseTokens(toks)
}

// ParseTokens parses a token stream without its trailing EOF.
func ParseTokens(toks []lexer.Token) (*Program, error) {
	p := &parser{toks: toks}

	prog, err := p.program()
	if err != nil {
		return nil, ErrParse.Wrap(err)
	}

	if tok := p.peek(); tok.Kind != lexer.EOF {
		return nil, ErrParse.Wrap(p.unexpected(tok, "end of template"))
	}

	return prog, nil
}

type parser struct {
	toks []lexer.Token
	pos  int
}

func (p *parser) peekAt(n int) lexer.Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}

	return lexer.Token{Kind: lexer.EOF}
}

func (p *parser) peek() lexer.Token { return p.peekAt(0) }

func (p *parser) next() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}

	return tok
}

func (p *parser) expect(kind lexer.Kind) (lexer.Token, error) {
	tok := p.next()
	if tok.Kind != kind {
		return tok, p.unexpected(tok, kind.String())
	}

	return tok, nil
}

func (p *parser) unexpected(tok lexer.Token, want string) *pkg.Error {
	return ErrUnexpected.With(
		slog.String("token", tok.String()),
		slog.String("expected", want),
		slog.Int("index", p.pos),
	)
}

// atSimpleInverse reports whether the next tokens are "{{^}}" or "{{else}}".
func (p *parser) atSimpleInverse() bool {
	return p.peek().Kind == lexer.OPEN_INVERSE && p.peekAt(1).Kind == lexer.CLOSE
}

// program parses statements up to the end of input, a block close or an
// else branch.
func (p *parser) program() (*Program, error) {
	prog := &Program{}

	for {
		switch tok := p.peek(); {
		case tok.Kind == lexer.EOF, tok.Kind == lexer.OPEN_ENDBLOCK, p.atSimpleInverse():
			return prog, nil
		}

		n, err := p.statement()
		if err != nil {
			return nil, err
		}

		prog.Statements = append(prog.Statements, n)
	}
}

func (p *parser) statement() (Node, error) {
	switch tok := p.next(); tok.Kind {
	case lexer.CONTENT:
		return &Content{Text: tok.Text}, nil

	case lexer.COMMENT:
		return &Comment{Text: tok.Text}, nil

	case lexer.OPEN:
		m, err := p.inMustache()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(lexer.CLOSE); err != nil {
			return nil, err
		}

		return m, nil

	case lexer.OPEN_PARTIAL:
		return p.partial()

	case lexer.OPEN_BLOCK:
		return p.block(false)

	case lexer.OPEN_INVERSE:
		return p.block(true)

	default:
		return nil, p.unexpected(tok, "statement")
	}
}

func (p *parser) partial() (Node, error) {
	name, err := p.path()
	if err != nil {
		return nil, err
	}

	n := &Partial{Name: name.Original}

	if p.peek().Kind == lexer.ID {
		if n.Context, err = p.path(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.CLOSE); err != nil {
		return nil, err
	}

	return n, nil
}

func (p *parser) block(inverted bool) (Node, error) {
	m, err := p.inMustache()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(lexer.CLOSE); err != nil {
		return nil, err
	}

	body, err := p.program()
	if err != nil {
		return nil, err
	}

	var alt *Program

	if p.atSimpleInverse() {
		p.next()
		p.next()

		if alt, err = p.program(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.OPEN_ENDBLOCK); err != nil {
		return nil, err
	}

	end, err := p.path()
	if err != nil {
		return nil, err
	}

	if end.String() != m.Path.String() {
		return nil, ErrMismatch.With(
			slog.String("open", m.Path.String()),
			slog.String("close", end.String()),
		)
	}

	if _, err := p.expect(lexer.CLOSE); err != nil {
		return nil, err
	}

	b := &Block{Mustache: m, Program: body, Inverse: alt, Inverted: inverted}
	if inverted {
		b.Program, b.Inverse = alt, body
	}

	return b, nil
}

// inMustache parses "path params... hash..." inside a mustache.
func (p *parser) inMustache() (*Mustache, error) {
	var (
		m   = &Mustache{}
		err error
	)

	if p.peek().Kind == lexer.DATA {
		m.Path, err = p.dataPath()
	} else {
		m.Path, err = p.path()
	}

	if err != nil {
		return nil, err
	}

	for p.atParam() && !p.atPair() {
		e, err := p.param()
		if err != nil {
			return nil, err
		}

		m.Params = append(m.Params, e)
	}

	for p.atPair() {
		key := p.next()
		p.next()

		e, err := p.param()
		if err != nil {
			return nil, err
		}

		m.Hash = append(m.Hash, Pair{Key: key.Text, Value: e})
	}

	return m, nil
}

func (p *parser) atParam() bool {
	switch p.peek().Kind {
	case lexer.ID, lexer.STRING, lexer.INTEGER, lexer.BOOLEAN, lexer.DATA:
		return true
	}

	return false
}

func (p *parser) atPair() bool {
	return p.peek().Kind == lexer.ID && p.peekAt(1).Kind == lexer.EQUALS
}

func (p *parser) param() (Expr, error) {
	switch tok := p.peek(); tok.Kind {
	case lexer.ID:
		return p.path()

	case lexer.DATA:
		return p.dataPath()

	case lexer.STRING:
		p.next()

		return &StringLiteral{Value: tok.Text}, nil

	case lexer.INTEGER:
		p.next()

		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, p.unexpected(tok, "integer").Wrap(err)
		}

		return &IntegerLiteral{Value: n}, nil

	case lexer.BOOLEAN:
		p.next()

		return &BooleanLiteral{Value: tok.Text == "true"}, nil

	default:
		return nil, p.unexpected(tok, "parameter")
	}
}

// path parses ID (SEP ID)*.
func (p *parser) path() (*Path, error) {
	tok, err := p.expect(lexer.ID)
	if err != nil {
		return nil, err
	}

	parts, seps := []string{tok.Text}, []string{}

	for p.peek().Kind == lexer.SEP && p.peekAt(1).Kind == lexer.ID {
		seps = append(seps, p.next().Text)
		parts = append(parts, p.next().Text)
	}

	return buildPath(parts, seps, false)
}

// dataPath parses DATA (SEP ID)*. A bare "@" may be followed directly by
// ".." or "." to address a parent frame or the frame itself, as in
// "@../index" and "@.".
func (p *parser) dataPath() (*Path, error) {
	tok, err := p.expect(lexer.DATA)
	if err != nil {
		return nil, err
	}

	parts, seps := []string{tok.Text}, []string{}

	if next := p.peek(); tok.Text == "" && next.Kind == lexer.ID && (next.Text == ".." || next.Text == ".") {
		parts[0] = p.next().Text
	}

	for p.peek().Kind == lexer.SEP && p.peekAt(1).Kind == lexer.ID {
		seps = append(seps, p.next().Text)
		parts = append(parts, p.next().Text)
	}

	original, depth := joinPath(parts, seps), 0

	for len(parts) > 0 && (parts[0] == ".." || parts[0] == ".") {
		if parts[0] == ".." {
			depth++
		}

		parts = parts[1:]
		if len(seps) > 0 {
			seps = seps[1:]
		}
	}

	path, err := buildPath(parts, seps, true)
	if err != nil {
		return nil, err
	}

	path.Original, path.Depth = original, depth

	return path, nil
}

func joinPath(parts, seps []string) string {
	var sb strings.Builder

	for i, part := range parts {
		if i > 0 {
			sb.WriteString(seps[i-1])
		}

		sb.WriteString(part)
	}

	return sb.String()
}

func buildPath(parts, seps []string, data bool) (*Path, error) {
	path := &Path{Original: joinPath(parts, seps), Data: data}

	if !data && strings.HasPrefix(parts[0], "~") {
		path.Data = true
		parts = append([]string{parts[0][1:]}, parts[1:]...)
	}

	invalid := func(reason string) error {
		return ErrInvalidPath.With(
			slog.String("path", path.Original),
			slog.String("reason", reason),
		)
	}

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		switch {
		case !data && (part == ".." || part == "." || part == "this"):
			if len(path.Segments) > 0 || (part != ".." && i > 0 && parts[i-1] != "..") {
				return nil, invalid("'" + part + "' must lead the path")
			}

			if part == ".." {
				path.Depth++
			} else {
				path.Scoped = true
			}

		case strings.HasPrefix(part, "{"):
			j := i
			for j < len(parts) && !strings.HasSuffix(parts[j], "}") {
				j++
			}

			if j == len(parts) {
				return nil, invalid("unterminated '{'")
			}

			inner := strings.Join(parts[i:j+1], ".")
			inner = inner[1 : len(inner)-1]

			if inner == "" {
				return nil, invalid("empty '{}'")
			}

			path.Segments = append(path.Segments, Segment{Name: inner, Indirect: true})
			i = j

		default:
			path.Segments = append(path.Segments, Segment{Name: part})
		}
	}

	return path, nil
}
