// Package locate implements the repo locator: it walks a sanitized
// relative path one segment at a time looking for a directory whose
// immediate listing carries the git signature {head, info, objects,
// refs}, splitting the path into a RepoRef and an UnconsumedTail.
package locate

import (
	"os"
	"strings"

	"gitexplorer/internal/core"
)

// signature is the set of entry names (case-insensitive) that a bare
// repository directory's listing must be a superset of.
var signature = []string{"head", "info", "objects", "refs"}

// Find walks root/rel segment by segment, testing each directory
// against the repo signature. The first directory that matches is
// returned as RepoRef, with the remaining segments as UnconsumedTail.
//
// If the walk drains every segment through real, existing plain
// directories without ever matching the repo signature, Found reports
// false and Tail is empty — the path names an ordinary, browsable
// folder. If instead the walk runs off the end of real directories
// partway through (a segment that doesn't exist, or isn't a
// directory), Found reports false and Tail carries the remaining,
// unresolved segments from that point — the path doesn't name
// anything real.
func Find(root core.ServedRoot, rel core.RelativePath) (core.PathResolution, error) {
	segments := splitSegments(string(rel))

	current := string(root)
	if isRepoDir(current) {
		return core.PathResolution{
			Repo: core.RepoRef(current),
			Tail: core.UnconsumedTail(strings.Join(segments, "/")),
		}, nil
	}

	for i, seg := range segments {
		next := joinSegment(current, seg)
		info, err := os.Stat(next)
		if err != nil || !info.IsDir() {
			tail := strings.Join(segments[i:], "/")
			return core.PathResolution{Repo: "", Tail: core.UnconsumedTail(tail)}, nil
		}
		current = next
		if isRepoDir(current) {
			tail := strings.Join(segments[i+1:], "/")
			return core.PathResolution{
				Repo: core.RepoRef(current),
				Tail: core.UnconsumedTail(tail),
			}, nil
		}
	}

	return core.PathResolution{Repo: "", Tail: ""}, nil
}

func isRepoDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	have := make(map[string]bool, len(entries))
	for _, e := range entries {
		have[strings.ToLower(e.Name())] = true
	}
	for _, want := range signature {
		if !have[want] {
			return false
		}
	}
	return true
}

func splitSegments(rel string) []string {
	if rel == "" {
		return nil
	}
	parts := strings.Split(rel, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinSegment(base, seg string) string {
	if strings.HasSuffix(base, "/") {
		return base + seg
	}
	return base + "/" + seg
}
