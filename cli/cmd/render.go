package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/klauspost/readahead"

	"github.com/ardnew/curly/data"
	"github.com/ardnew/curly/engine"
	"github.com/ardnew/curly/log"
	"github.com/ardnew/curly/lookup"
)

// Inputs are the flags shared by the commands that render templates.
type Inputs struct {
	Data        []string `help:"Data file supplying the render context, '-' for stdin; repeat to merge" placeholder:"FILE" short:"d"`
	Partials    string   `help:"Directory of partial templates"                                         placeholder:"DIR"  short:"p" type:"existingdir"`
	BareCalls   bool     `help:"Call functions in the context without arguments"`
	RuntimeOnly bool     `help:"Reject partials given as template source"`
}

// Render renders a template against data files and writes the result to
// stdout.
type Render struct {
	Inputs `embed:""`

	DataFrame map[string]string `help:"Set a @data variable"                     placeholder:"KEY=VALUE"`
	Watch     bool              `help:"Render again whenever an input changes" short:"w"`
	Debounce  time.Duration     `default:"100ms" help:"Delay before rendering after a change"`

	Template string `arg:"" default:"-" help:"Template file or '-' for stdin." name:"template"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) error {
	if r.Watch {
		return r.watch(ctx, os.Stdout)
	}

	return r.render(ctx, os.Stdout)
}

// engine builds a fresh environment, loading the partials directory.
func (r Inputs) engine(ctx context.Context) (*engine.Env, error) {
	opts := []engine.Option{
		engine.WithLogger(log.Default()),
		engine.WithRuntimeOnly(r.RuntimeOnly),
	}

	if r.BareCalls {
		opts = append(opts, engine.WithConvention(lookup.CallBare))
	}

	env := engine.New(opts...)

	if r.Partials != "" {
		n, err := env.LoadPartials(ctx, r.Partials)
		if err != nil {
			return nil, err
		}

		log.DebugContext(ctx, "loaded partials",
			slog.String("dir", r.Partials),
			slog.Int("count", n),
		)
	}

	return env, nil
}

func (r *Render) render(ctx context.Context, w io.Writer) error {
	env, err := r.engine(ctx)
	if err != nil {
		return err
	}

	root, err := loadContext(r.Data)
	if err != nil {
		return err
	}

	source, err := readSource(r.Template)
	if err != nil {
		return err
	}

	out, err := env.Render(ctx, source, root, dataFrame(r.DataFrame))
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, out); err != nil {
		return ErrEncode.Wrap(err)
	}

	return nil
}

// readSource reads a template file, or stdin for [data.Stdin].
func readSource(path string) (string, error) {
	var src io.Reader = os.Stdin

	if path != data.Stdin {
		file, err := os.Open(path)
		if err != nil {
			return "", ErrTemplate.With(slog.String("path", path)).Wrap(err)
		}
		defer file.Close()

		src = file
	}

	ra := readahead.NewReader(src)
	defer ra.Close()

	b, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrTemplate.With(slog.String("path", path)).Wrap(err)
	}

	return string(b), nil
}
