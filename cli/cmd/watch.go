package cmd

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ardnew/curly/data"
	"github.com/ardnew/curly/engine"
	"github.com/ardnew/curly/log"
)

// watchSet holds the inputs of a render that trigger a new render when they
// change.
type watchSet struct {
	files    map[string]struct{}
	partials string
}

// inputs resolves the template, data files and partials directory to
// absolute paths.
func (r *Render) inputs() (watchSet, error) {
	set := watchSet{files: map[string]struct{}{}}

	for _, path := range append([]string{r.Template}, r.Data...) {
		if path == data.Stdin {
			return set, ErrWatch.Wrap(ErrWatchStdin)
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return set, ErrWatch.With(slog.String("path", path)).Wrap(err)
		}

		set.files[abs] = struct{}{}
	}

	if r.Partials != "" {
		abs, err := filepath.Abs(r.Partials)
		if err != nil {
			return set, ErrWatch.With(slog.String("path", r.Partials)).Wrap(err)
		}

		set.partials = abs
	}

	return set, nil
}

// dirs returns the directories to register with the watcher. Files are
// watched through their parent directory so that editors replacing a file
// by rename are still seen.
func (s watchSet) dirs() ([]string, error) {
	var dirs []string

	for file := range s.files {
		if dir := filepath.Dir(file); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}

	if s.partials != "" {
		err := filepath.WalkDir(s.partials, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() && !slices.Contains(dirs, path) {
				dirs = append(dirs, path)
			}

			return nil
		})
		if err != nil {
			return nil, ErrWatch.With(slog.String("dir", s.partials)).Wrap(err)
		}
	}

	return dirs, nil
}

// relevant reports whether a change to name affects the render.
func (s watchSet) relevant(name string) bool {
	if _, ok := s.files[name]; ok {
		return true
	}

	if s.partials == "" || !strings.HasPrefix(name, s.partials+string(filepath.Separator)) {
		return false
	}

	return slices.Contains(engine.PartialExtensions, filepath.Ext(name))
}

// watch renders once, then again after each burst of changes to the inputs
// until ctx is canceled. Render failures are logged and do not stop the
// loop.
func (r *Render) watch(ctx context.Context, w io.Writer) error {
	set, err := r.inputs()
	if err != nil {
		return err
	}

	dirs, err := set.dirs()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ErrWatch.Wrap(err)
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return ErrWatch.With(slog.String("dir", dir)).Wrap(err)
		}
	}

	render := func() {
		if err := r.render(ctx, w); err != nil {
			log.ErrorContext(ctx, "render failed", slog.Any("error", err))
		}
	}

	render()

	var (
		timer *time.Timer
		fire  = make(chan struct{}, 1)
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// New subdirectories of the partials directory are watched too.
			if event.Has(fsnotify.Create) && set.partials != "" &&
				strings.HasPrefix(event.Name, set.partials) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}

			if !set.relevant(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}

			log.TraceContext(ctx, "input changed",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()),
			)

			if timer != nil {
				timer.Stop()
			}

			timer = time.AfterFunc(r.Debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			render()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			log.WarnContext(ctx, "watch error", slog.Any("error", err))
		}
	}
}
