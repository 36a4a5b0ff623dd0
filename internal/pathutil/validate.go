// Package pathutil resolves and confines the files neurofig reads and writes.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a path escapes every allowed directory.
var ErrOutsideRoot = errors.New("path is outside allowed directories")

// RedactPath shortens a path to .../<parent>/<base> for error messages,
// so "/home/ana/lab/data/voltage.csv" reads ".../data/voltage.csv".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	base := filepath.Base(cleaned)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// Resolve joins a relative path onto root. Absolute paths are cleaned and
// returned as they are.
func Resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

// ValidatePath reports whether path lies inside one of allowedDirs once
// symlinks are resolved. The file and some of its parents may not exist yet.
func ValidatePath(path string, allowedDirs []string) error {
	switch {
	case path == "":
		return errors.New("path validation failed: empty path")
	case len(allowedDirs) == 0:
		return errors.New("path validation failed: no allowed directories")
	case strings.ContainsRune(path, '\x00'):
		return errors.New("path validation failed: null byte in path")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	dir, err := resolveExistingParent(filepath.Dir(abs))
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	resolved := filepath.Join(dir, filepath.Base(abs))

	for _, allowed := range allowedDirs {
		allowedAbs, err := filepath.Abs(filepath.Clean(allowed))
		if err != nil {
			continue
		}
		allowedResolved, err := resolveExistingParent(allowedAbs)
		if err != nil {
			continue
		}
		if isSubpath(resolved, allowedResolved) {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", RedactPath(abs), ErrOutsideRoot)
}

// resolveExistingParent evaluates symlinks on the deepest existing ancestor
// of dir and re-appends the missing tail.
func resolveExistingParent(dir string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved, nil
	}
	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve %s", RedactPath(dir))
	}
	resolvedParent, err := resolveExistingParent(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(dir)), nil
}

// isSubpath reports whether path is base or lies below it.
func isSubpath(path, base string) bool {
	if path == base {
		return true
	}
	return strings.HasPrefix(path, base+string(os.PathSeparator))
}

// ProjectDirs returns the directories a project may write figures to: the
// project root and the configured output directory, which may lie outside it.
func ProjectDirs(root, outputDir string) []string {
	dirs := []string{root}
	if outputDir != "" {
		dirs = append(dirs, Resolve(root, outputDir))
	}
	return dirs
}
