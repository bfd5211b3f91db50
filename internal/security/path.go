package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator confines file access to a configured root directory
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the configured directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute form of path after checking it stays inside
// the root. Relative paths are taken relative to the root. Symlinks are
// followed for the deepest existing ancestor, so a path that does not exist
// yet can still be validated.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	clean := filepath.Clean(path)

	if !within(v.root, clean) {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}

	realRoot := evalExisting(v.root)
	if !within(realRoot, evalExisting(clean)) {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}

	return clean, nil
}

// ResolveDirectory resolves path and requires it to be an existing directory
func (v *PathValidator) ResolveDirectory(path string) (string, error) {
	if path == "" {
		path = v.root
	}
	dir, err := v.Resolve(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", path)
	}
	return dir, nil
}

func within(root, path string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// evalExisting resolves symlinks in the longest existing prefix of path
func evalExisting(path string) string {
	rest := ""
	current := path
	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			if rest == "" {
				return resolved
			}
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path
		}
		rest = filepath.Join(filepath.Base(current), rest)
		current = parent
	}
}
