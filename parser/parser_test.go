package parser

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func name(s string) *Path {
	return &Path{Original: s, Segments: []Segment{{Name: s}}}
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *Program
	}{
		{
			"content and mustache",
			"Hello {{name}}!",
			&Program{Statements: []Node{
				&Content{Text: "Hello "},
				&Mustache{Path: name("name")},
				&Content{Text: "!"},
			}},
		},
		{
			"comment",
			"{{! note }}",
			&Program{Statements: []Node{&Comment{Text: " note "}}},
		},
		{
			"params and hash",
			`{{link "home" 3 true url @index size=2 class="x"}}`,
			&Program{Statements: []Node{&Mustache{
				Path: name("link"),
				Params: []Expr{
					&StringLiteral{Value: "home"},
					&IntegerLiteral{Value: 3},
					&BooleanLiteral{Value: true},
					name("url"),
					&Path{Original: "index", Data: true, Segments: []Segment{{Name: "index"}}},
				},
				Hash: Hash{
					{Key: "size", Value: &IntegerLiteral{Value: 2}},
					{Key: "class", Value: &StringLiteral{Value: "x"}},
				},
			}}},
		},
		{
			"block with else",
			"{{#if ok}}yes{{else}}no{{/if}}",
			&Program{Statements: []Node{&Block{
				Mustache: &Mustache{Path: name("if"), Params: []Expr{name("ok")}},
				Program:  &Program{Statements: []Node{&Content{Text: "yes"}}},
				Inverse:  &Program{Statements: []Node{&Content{Text: "no"}}},
			}}},
		},
		{
			"caret else",
			"{{#list}}a{{^}}b{{/list}}",
			&Program{Statements: []Node{&Block{
				Mustache: &Mustache{Path: name("list")},
				Program:  &Program{Statements: []Node{&Content{Text: "a"}}},
				Inverse:  &Program{Statements: []Node{&Content{Text: "b"}}},
			}}},
		},
		{
			"inverted section",
			"{{^items}}none{{/items}}",
			&Program{Statements: []Node{&Block{
				Mustache: &Mustache{Path: name("items")},
				Inverse:  &Program{Statements: []Node{&Content{Text: "none"}}},
				Inverted: true,
			}}},
		},
		{
			"nested blocks",
			"{{#a}}{{#b}}x{{/b}}{{/a}}",
			&Program{Statements: []Node{&Block{
				Mustache: &Mustache{Path: name("a")},
				Program: &Program{Statements: []Node{&Block{
					Mustache: &Mustache{Path: name("b")},
					Program:  &Program{Statements: []Node{&Content{Text: "x"}}},
				}}},
			}}},
		},
		{
			"partial",
			"{{> shared/header page}}",
			&Program{Statements: []Node{&Partial{Name: "shared/header", Context: name("page")}}},
		},
		{"empty", "", &Program{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParsePaths(t *testing.T) {
	tests := []struct {
		input string
		want  *Path
	}{
		{"a.b/c", &Path{Original: "a.b/c", Segments: []Segment{{Name: "a"}, {Name: "b"}, {Name: "c"}}}},
		{"../../x", &Path{Original: "../../x", Depth: 2, Segments: []Segment{{Name: "x"}}}},
		{"this/x", &Path{Original: "this/x", Scoped: true, Segments: []Segment{{Name: "x"}}}},
		{".", &Path{Original: ".", Scoped: true}},
		{"this", &Path{Original: "this", Scoped: true}},
		{"..", &Path{Original: "..", Depth: 1}},
		{"@index", &Path{Original: "index", Data: true, Segments: []Segment{{Name: "index"}}}},
		{"@root.title", &Path{Original: "root.title", Data: true, Segments: []Segment{{Name: "root"}, {Name: "title"}}}},
		{"@../index", &Path{Original: "../index", Data: true, Depth: 1, Segments: []Segment{{Name: "index"}}}},
		{"@../../first", &Path{Original: "../../first", Data: true, Depth: 2, Segments: []Segment{{Name: "first"}}}},
		{"@.", &Path{Original: ".", Data: true}},
		{"@..", &Path{Original: "..", Data: true, Depth: 1}},
		{"~index", &Path{Original: "~index", Data: true, Segments: []Segment{{Name: "index"}}}},
		{"{key}", &Path{Original: "{key}", Segments: []Segment{{Name: "key", Indirect: true}}}},
		{
			"foo.{~bar}.baz",
			&Path{Original: "foo.{~bar}.baz", Segments: []Segment{{Name: "foo"}, {Name: "~bar", Indirect: true}, {Name: "baz"}}},
		},
		{"{a.b}", &Path{Original: "{a.b}", Segments: []Segment{{Name: "a.b", Indirect: true}}}},
		{
			"~{a.b}.c",
			&Path{Original: "~{a.b}.c", Data: true, Segments: []Segment{{Name: "a.b", Indirect: true}, {Name: "c"}}},
		},
		{"[a b].c", &Path{Original: "a b.c", Segments: []Segment{{Name: "a b"}, {Name: "c"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			prog, err := Parse("{{" + tt.input + "}}")
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			got := prog.Statements[0].(*Mustache).Path
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("path %q mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"mismatched close", "{{#a}}x{{/b}}", ErrMismatch},
		{"unclosed block", "{{#a}}x", ErrUnexpected},
		{"stray close", "x{{/a}}", ErrUnexpected},
		{"stray else", "a{{else}}b", ErrUnexpected},
		{"invalid token", "{{a (b)}}", ErrParse},
		{"parent after name", "{{a/../b}}", ErrInvalidPath},
		{"unterminated indirect", "{{ {a.b }}", ErrInvalidPath},
		{"param after hash", "{{a k=v b}}", ErrUnexpected},
		{"data param after hash", "{{a k=v @b}}", ErrUnexpected},
		{"missing close", "{{a", ErrUnexpected},
		{"empty mustache", "{{}}", ErrUnexpected},
		{"partial without name", "{{> }}", ErrUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.want)
			}

			if !errors.Is(err, ErrParse) {
				t.Errorf("error %v does not wrap ErrParse", err)
			}
		})
	}
}

func TestProgramString(t *testing.T) {
	tests := []string{
		"Hello {{name}}!",
		`{{link "a\"b" 1 false x k=@index}}`,
		"{{#if a}}yes{{else}}no{{/if}}",
		"{{^list}}empty{{else}}full{{/list}}",
		"{{> header ctx}}{{> footer}}",
		"{{! c }}{{!-- }} --}}",
		"{{../x}}{{@../index}}{{~data}}{{foo.{~k}.z}}",
	}

	for _, src := range tests {
		prog, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}

		if got := prog.String(); got != src {
			t.Errorf("String() = %q, want %q", got, src)
		}

		again, err := Parse(prog.String())
		if err != nil {
			t.Fatalf("reparse of %q: %v", prog.String(), err)
		}

		if diff := cmp.Diff(prog, again); diff != "" {
			t.Errorf("reparse mismatch (-first +second):\n%s", diff)
		}
	}
}

func TestSimple(t *testing.T) {
	tests := map[string]bool{
		"a":     true,
		"a.b":   false,
		"../a":  false,
		"this":  false,
		"@a":    false,
		"{a}":   false,
		"[a b]": true,
	}

	for src, want := range tests {
		prog, err := Parse("{{" + src + "}}")
		if err != nil {
			t.Fatal(err)
		}

		if got := prog.Statements[0].(*Mustache).Path.Simple(); got != want {
			t.Errorf("Simple(%q) = %v, want %v", src, got, want)
		}
	}
}

func TestAll(t *testing.T) {
	prog, err := Parse("a{{b}}c")
	if err != nil {
		t.Fatal(err)
	}

	n := 0
	for range prog.All() {
		n++
	}

	if n != 3 {
		t.Errorf("All yielded %d nodes", n)
	}

	var nilProg *Program
	for range nilProg.All() {
		t.Error("nil program yielded a node")
	}
}
