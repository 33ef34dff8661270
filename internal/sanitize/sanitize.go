// Package sanitize implements the path sanitizer: it takes an
// untrusted, URL-derived relative path and proves it cannot escape the
// served root, per spec.md §4.1.
package sanitize

import (
	"path/filepath"
	"strings"

	"gitexplorer/internal/core"
)

// Path joins candidate onto root, canonicalizes the result, and
// rejects anything that would escape root. The returned RelativePath
// is forward-slash-delimited with no leading slash; it need not exist
// on disk.
func Path(root core.ServedRoot, candidate string) (core.RelativePath, error) {
	base, err := filepath.Abs(string(root))
	if err != nil {
		return "", core.PathUnfit("served root is not resolvable: %v", err)
	}

	trimmed := strings.Trim(strings.ReplaceAll(candidate, "\\", "/"), "/")
	full := filepath.Clean(filepath.Join(base, filepath.FromSlash(trimmed)))

	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", core.PathUnfit("path %q is outside of allowed range", candidate)
	}

	rel := strings.TrimPrefix(full, base)
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	return core.RelativePath(rel), nil
}
