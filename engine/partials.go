package engine

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// PartialExtensions are the file extensions [Env.LoadPartials] registers.
//
//nolint:gochecknoglobals
var PartialExtensions = []string{".hbs", ".handlebars", ".mustache", ".tmpl"}

// LoadPartials registers every template file under dir as a partial named
// by its slash-separated path relative to dir, without extension. Files are
// registered as source and compiled on first use. It returns the number of
// partials registered.
func (e *Env) LoadPartials(ctx context.Context, dir string) (int, error) {
	loaded := map[string]string{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		ext := filepath.Ext(path)
		if d.IsDir() || !slices.Contains(PartialExtensions, ext) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		source, err := readFile(path)
		if err != nil {
			return err
		}

		loaded[filepath.ToSlash(strings.TrimSuffix(rel, ext))] = source

		return nil
	})
	if err != nil {
		return 0, ErrReadPartial.Wrap(err).With(slog.String("dir", dir))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for name, source := range loaded {
		e.partials[name] = source

		e.logger.TraceContext(ctx, "registered partial",
			slog.String("name", name),
			slog.Int("bytes", len(source)),
		)
	}

	return len(loaded), nil
}

func readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return readAll(f)
}
