package pathutil

import (
	"path/filepath"
	"strings"
)

// NormalizePath converts Windows-style separators to the current platform's separator
// and cleans the resulting path.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}

	replaced := strings.ReplaceAll(p, "\\", "/")
	return filepath.Clean(filepath.FromSlash(replaced))
}

// ProjectRelative returns the path to target relative to the project root.
// The result always uses forward slashes.
func ProjectRelative(root, target string) (string, error) {
	base := NormalizePath(root)
	cleanedTarget := NormalizePath(target)

	rel, err := filepath.Rel(base, cleanedTarget)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(rel), nil
}

// Inside reports whether target lies strictly below root.
func Inside(root, target string) bool {
	rel, err := ProjectRelative(root, target)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, "../")
}

// HasSegment reports whether any directory segment of the slash path rel
// matches one of names, ignoring case. The final segment is treated as a
// directory only when dirOnly is false.
func HasSegment(rel string, names []string, dirOnly bool) bool {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" {
		return false
	}

	segments := strings.Split(rel, "/")
	if dirOnly {
		segments = segments[:len(segments)-1]
	}
	for _, segment := range segments {
		for _, name := range names {
			if name != "" && strings.EqualFold(segment, name) {
				return true
			}
		}
	}
	return false
}
