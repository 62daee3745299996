// Package filex contains filesystem helpers for the local asset backend.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned by SafeJoin when the joined path would escape root.
var ErrOutsideRoot = errors.New("path escapes storage root")

// EnsureDir makes sure dir exists and returns its absolute path. Relative
// paths are resolved against the working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o750); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// SafeJoin joins a slash-separated key onto root and refuses results that
// are not strictly inside root.
func SafeJoin(root, key string) (string, error) {
	p := filepath.Join(root, filepath.FromSlash(key))

	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}

	return p, nil
}
