package cmd

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/curly/data"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// uniquePaths resolves the given data file paths, dropping repeated
// references to the same file. All occurrences of [data.Stdin] collapse to a
// single entry placed last so that it overrides the regular files.
func uniquePaths(paths []string) ([]string, error) {
	var (
		out      = make([]string, 0, len(paths))
		seen     = make(map[fileKey]struct{})
		hasStdin bool
	)

	for _, path := range paths {
		if path == data.Stdin {
			hasStdin = true

			continue
		}

		resolved, key, err := statFile(path)
		if err != nil {
			return nil, ErrDataFile.With(slog.String("path", path)).Wrap(err)
		}

		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, resolved)
	}

	if hasStdin {
		out = append(out, data.Stdin)
	}

	return out, nil
}

// statFile resolves path to an absolute path without symlinks and returns
// the device and inode identifying it.
func statFile(path string) (string, fileKey, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fileKey{}, err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fileKey{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fileKey{}, err
	}

	// Without inode information the path itself identifies the file.
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return resolved, fileKey{}, nil
	}

	return resolved, fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, nil
}

// loadContext decodes the given data files into a single render context.
// With more than one file every document must be a mapping; keys of later
// files replace those of earlier ones. No files yields an empty mapping.
func loadContext(paths []string) (any, error) {
	paths, err := uniquePaths(paths)
	if err != nil {
		return nil, err
	}

	switch len(paths) {
	case 0:
		return map[string]any{}, nil
	case 1:
		return data.Load(paths[0])
	}

	merged := map[string]any{}

	for _, path := range paths {
		v, err := data.Load(path)
		if err != nil {
			return nil, err
		}

		m, ok := v.(map[string]any)
		if !ok {
			return nil, ErrMergeData.With(slog.String("path", path))
		}

		maps.Copy(merged, m)
	}

	return merged, nil
}

// dataFrame converts --data-frame assignments to the data frame of a render.
// It returns nil when there are none.
func dataFrame(frame map[string]string) map[string]any {
	if len(frame) == 0 {
		return nil
	}

	out := make(map[string]any, len(frame))
	for k, v := range frame {
		out[k] = v
	}

	return out
}
