package cli

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ardnew/curly/pkg"
)

// Configuration file base names, in the order they are applied.
const (
	baseConfigJSON = "config.json"
	baseConfigYAML = "config.yaml"
)

// defaultDirMode is the permission mode for created directories.
const defaultDirMode os.FileMode = 0o700

// configPath returns the path of the named file in the configuration
// directory.
func configPath(name string) string {
	return filepath.Join(pkg.ConfigDir(), name)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return ErrDirectory.With(slog.String("dir", dir)).Wrap(err)
		}
	}

	return nil
}
