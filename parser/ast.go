package parser

import (
	"iter"
	"strconv"
	"strings"
)

// Node is a statement of a [Program].
type Node interface {
	// String returns template source equivalent to the node.
	String() string
	node()
}

// Expr is an argument of a mustache: a [Path] or a literal.
type Expr interface {
	String() string
	expr()
}

// Program is a sequence of statements: a whole template or a block body.
type Program struct {
	Statements []Node
}

// All returns an iterator over the statements of p.
func (p *Program) All() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if p == nil {
			return
		}

		for _, n := range p.Statements {
			if !yield(n) {
				return
			}
		}
	}
}

func (p *Program) String() string {
	if p == nil {
		return ""
	}

	var sb strings.Builder
	for _, n := range p.Statements {
		sb.WriteString(n.String())
	}

	return sb.String()
}

// Content is literal template text.
type Content struct {
	Text string
}

// Comment is a template comment. It renders nothing.
type Comment struct {
	Text string
}

// Mustache is a "{{path params... key=value...}}" expression.
type Mustache struct {
	Path   *Path
	Params []Expr
	Hash   Hash
}

// Block is a "{{#...}}" or "{{^...}}" section.
//
// Program is rendered when the section's value is truthy and Inverse when it
// is not. For an inverted section ("{{^x}}") the parser stores the section
// body in Inverse and any "{{else}}" branch in Program, so both kinds are
// evaluated the same way.
type Block struct {
	Mustache *Mustache
	Program  *Program
	Inverse  *Program
	Inverted bool
}

// Partial is a "{{> name context}}" inclusion.
type Partial struct {
	Name    string
	Context *Path
}

// Segment is one step of a [Path]. An indirect segment's Name is itself a
// path, written "{a.b}", whose value at render time is the key to use.
type Segment struct {
	Name     string
	Indirect bool
}

// Path is a reference to a value.
type Path struct {
	// Original is the path as written, with "/" and "." separators kept.
	Original string
	// Segments excludes the leading "..", "." and "this" parts.
	Segments []Segment
	// Depth is the number of leading ".." parts. For a data path it counts
	// parent frames.
	Depth int
	// Scoped reports a leading "." or "this".
	Scoped bool
	// Data reports a path into the data frame ("@name" or "~name").
	Data bool
}

// Simple reports whether p is a single plain name, the only kind of path
// that can name a helper.
func (p *Path) Simple() bool {
	return !p.Data && !p.Scoped && p.Depth == 0 &&
		len(p.Segments) == 1 && !p.Segments[0].Indirect
}

// StringLiteral is a quoted string argument.
type StringLiteral struct {
	Value string
}

// IntegerLiteral is an integer argument.
type IntegerLiteral struct {
	Value int64
}

// BooleanLiteral is a true or false argument.
type BooleanLiteral struct {
	Value bool
}

// Pair is a key=value mustache argument.
type Pair struct {
	Key   string
	Value Expr
}

// Hash is the ordered list of key=value arguments of a mustache.
type Hash []Pair

func (*Content) node()  {}
func (*Comment) node()  {}
func (*Mustache) node() {}
func (*Block) node()    {}
func (*Partial) node()  {}

func (*Path) expr()           {}
func (*StringLiteral) expr()  {}
func (*IntegerLiteral) expr() {}
func (*BooleanLiteral) expr() {}

func (c *Content) String() string { return c.Text }

func (c *Comment) String() string {
	if strings.Contains(c.Text, "}}") {
		return "{{!--" + c.Text + "--}}"
	}

	return "{{!" + c.Text + "}}"
}

func (m *Mustache) String() string { return "{{" + m.inner() + "}}" }

func (m *Mustache) inner() string {
	parts := []string{m.Path.String()}

	for _, e := range m.Params {
		parts = append(parts, e.String())
	}

	for _, p := range m.Hash {
		parts = append(parts, p.Key+"="+p.Value.String())
	}

	return strings.Join(parts, " ")
}

func (b *Block) String() string {
	open, body, alt := "{{#", b.Program, b.Inverse
	if b.Inverted {
		open, body, alt = "{{^", b.Inverse, b.Program
	}

	var sb strings.Builder

	sb.WriteString(open + b.Mustache.inner() + "}}")
	sb.WriteString(body.String())

	if alt != nil {
		sb.WriteString("{{else}}")
		sb.WriteString(alt.String())
	}

	sb.WriteString("{{/" + b.Mustache.Path.String() + "}}")

	return sb.String()
}

func (p *Partial) String() string {
	if p.Context == nil {
		return "{{> " + p.Name + "}}"
	}

	return "{{> " + p.Name + " " + p.Context.String() + "}}"
}

func (p *Path) String() string {
	if p.Data && !strings.HasPrefix(p.Original, "~") {
		return "@" + p.Original
	}

	return p.Original
}

func (s *StringLiteral) String() string  { return `"` + strings.ReplaceAll(s.Value, `"`, `\"`) + `"` }
func (i *IntegerLiteral) String() string { return strconv.FormatInt(i.Value, 10) }
func (b *BooleanLiteral) String() string { return strconv.FormatBool(b.Value) }
