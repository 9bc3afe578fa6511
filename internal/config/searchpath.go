package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brettski74/milton/internal/milerr"
)

// DefaultSearchPath returns the ordered list of directories config files
// and their includes are resolved against: the current working directory,
// $HOME/.config/milton, then $MILTON_BASE/share/milton/config.
func DefaultSearchPath() []string {
	var path []string

	if cwd, err := os.Getwd(); err == nil {
		path = append(path, cwd)
	}

	if home, err := os.UserHomeDir(); err == nil {
		path = append(path, filepath.Join(home, ".config", "milton"))
	}

	if base := os.Getenv("MILTON_BASE"); base != "" {
		path = append(path, filepath.Join(base, "share", "milton", "config"))
	}

	return path
}

// Resolve locates filename against searchPath, returning the first
// existing match. An absolute filename is used as-is, as long as it
// exists.
func Resolve(filename string, searchPath []string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", milerr.New(milerr.ConfigNotFound, filename)
	}

	for _, dir := range searchPath {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", milerr.New(milerr.ConfigNotFound, fmt.Sprintf("%s not found on search path", filename))
}
