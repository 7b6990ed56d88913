package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/curly/lexer"
	"github.com/ardnew/curly/log"
)

// Lex prints the token stream of a template in the chosen format.
type Lex struct {
	Text LexText `cmd:"" default:"withargs" help:"One token per line (default)."`
	JSON LexJSON `cmd:""                    help:"Tokens as a JSON array."`
	YAML LexYAML `cmd:""                    help:"Tokens as a YAML sequence."`
}

// LexSource is the positional argument shared by the lex subcommands.
type LexSource struct {
	Source string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"source"`
}

// tokens lexes the whole source. On an invalid token the tokens before it
// are returned along with the error, so that they are still printed.
func (s LexSource) tokens(ctx context.Context) ([]lexer.Token, error) {
	text, err := readSource(s.Source)
	if err != nil {
		return nil, err
	}

	toks, err := lexer.Collect(text)

	log.DebugContext(ctx, "lexed template",
		slog.String("source", s.Source),
		slog.Int("tokens", len(toks)),
	)

	if err != nil {
		return toks, ErrLex.With(slog.String("source", s.Source)).Wrap(err)
	}

	return toks, nil
}

// LexText writes each token on its own line.
type LexText struct {
	LexSource `embed:""`
}

// Run executes the lex text command.
func (l *LexText) Run(ctx context.Context) error {
	return l.write(ctx, os.Stdout)
}

func (l *LexText) write(ctx context.Context, w io.Writer) error {
	toks, lexErr := l.tokens(ctx)

	var b strings.Builder
	for _, tok := range toks {
		b.WriteString(tok.String())
		b.WriteByte('\n')
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return ErrEncode.Wrap(err)
	}

	return lexErr
}

// LexJSON writes the tokens as a JSON array.
type LexJSON struct {
	LexSource `embed:""`

	Indent int `default:"2" help:"Indent width, 0 for compact output" short:"i"`
}

// Run executes the lex json command.
func (l *LexJSON) Run(ctx context.Context) error {
	return l.write(ctx, os.Stdout)
}

func (l *LexJSON) write(ctx context.Context, w io.Writer) error {
	toks, lexErr := l.tokens(ctx)
	if toks == nil {
		toks = []lexer.Token{}
	}

	var (
		b   []byte
		err error
	)

	if l.Indent > 0 {
		b, err = json.MarshalIndent(toks, "", strings.Repeat(" ", l.Indent))
	} else {
		b, err = json.Marshal(toks)
	}

	if err != nil {
		return ErrEncode.With(slog.String("format", "json")).Wrap(err)
	}

	if _, err := fmt.Fprintln(w, string(b)); err != nil {
		return ErrEncode.Wrap(err)
	}

	return lexErr
}

// LexYAML writes the tokens as a YAML sequence.
type LexYAML struct {
	LexSource `embed:""`

	Indent int  `default:"2" help:"Indent width"                short:"i"`
	Flow   bool `            help:"Use flow style for each token"`
}

// Run executes the lex yaml command.
func (l *LexYAML) Run(ctx context.Context) error {
	return l.write(ctx, os.Stdout)
}

func (l *LexYAML) write(ctx context.Context, w io.Writer) error {
	toks, lexErr := l.tokens(ctx)
	if toks == nil {
		toks = []lexer.Token{}
	}

	var opts []yaml.EncodeOption
	if l.Indent > 0 {
		opts = append(opts, yaml.Indent(l.Indent))
	}

	if l.Flow {
		opts = append(opts, yaml.Flow(true))
	}

	b, err := yaml.MarshalContext(ctx, toks, opts...)
	if err != nil {
		return ErrEncode.With(slog.String("format", "yaml")).Wrap(err)
	}

	if _, err := w.Write(b); err != nil {
		return ErrEncode.Wrap(err)
	}

	return lexErr
}
