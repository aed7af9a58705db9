package file

import (
	"path/filepath"
	"strings"
)

// Ext returns the lower-cased extension of path including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// SplitPattern splits "dir/pattern" into its directory and file pattern.
// A bare pattern resolves to the current directory.
func SplitPattern(srcPattern string) (dir string, pattern string) {
	dir, pattern = filepath.Split(srcPattern)
	if dir == "" {
		dir = "."
	}
	return filepath.Clean(dir), pattern
}

// WithSuffix appends suffix to path unless it already ends with it.
func WithSuffix(path, suffix string) string {
	if path == "" || strings.HasSuffix(path, suffix) {
		return path
	}
	return path + suffix
}
