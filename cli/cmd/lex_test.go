package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/curly/lexer"
)

func TestLexText(t *testing.T) {
	src := writeFile(t, t.TempDir(), "t.hbs", "a{{b}}")

	var out bytes.Buffer

	l := LexText{LexSource{Source: src}}
	if err := l.write(context.Background(), &out); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Errorf("lex text = %q, want four tokens", out.String())
	}
}

func TestLexJSON(t *testing.T) {
	src := writeFile(t, t.TempDir(), "t.hbs", "{{b}}")

	var out bytes.Buffer

	l := LexJSON{LexSource: LexSource{Source: src}, Indent: 0}
	if err := l.write(context.Background(), &out); err != nil {
		t.Fatal(err)
	}

	var toks []lexer.Token
	if err := json.Unmarshal(out.Bytes(), &toks); err != nil {
		t.Fatal(err)
	}

	want := []lexer.Token{{Kind: lexer.OPEN}, {Kind: lexer.ID, Text: "b"}, {Kind: lexer.CLOSE}}
	if len(toks) != len(want) {
		t.Fatalf("tokens = %v, want %v", toks, want)
	}

	for i := range want {
		if toks[i].Kind != want[i].Kind || want[i].Text != "" && toks[i].Text != want[i].Text {
			t.Errorf("token %d = %v, want %v", i, toks[i], want[i])
		}
	}
}

func TestLexYAMLInvalid(t *testing.T) {
	src := writeFile(t, t.TempDir(), "t.hbs", "x{{(}}")

	var out bytes.Buffer

	l := LexYAML{LexSource: LexSource{Source: src}, Indent: 2}

	err := l.write(context.Background(), &out)
	if !errors.Is(err, ErrLex) || !errors.Is(err, lexer.ErrInvalidToken) {
		t.Errorf("error = %v, want %v wrapping %v", err, ErrLex, lexer.ErrInvalidToken)
	}

	var toks []lexer.Token
	if err := yaml.Unmarshal(out.Bytes(), &toks); err != nil {
		t.Fatal(err)
	}

	if len(toks) != 2 {
		t.Errorf("tokens before the invalid one = %v, want CONTENT and OPEN", toks)
	}
}
