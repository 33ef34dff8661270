// Package core holds the data model shared by the sanitizer, locator,
// git adapter and content producer: the vocabulary spec.md §3 defines.
package core

import "fmt"

// ServedRoot is the absolute, canonicalized directory every resolved
// filesystem path must descend from. Immutable for the process lifetime.
type ServedRoot string

// RelativePath is a forward-slash-delimited, leading-slash-free string
// produced only by the sanitizer. Downstream components never see
// unsanitized input.
type RelativePath string

// RepoRef is an absolute filesystem path whose immediate directory
// listing is a superset of the git signature {head, info, objects, refs}.
type RepoRef string

// UnconsumedTail is the residue of a virtual path past the located
// RepoRef. Its first segment, when present, is a commit-reference; the
// remainder is the in-repo object path.
type UnconsumedTail string

// DefaultRef is the commit-reference used when UnconsumedTail is empty.
const DefaultRef = "HEAD"

// PathResolution is the result of the repo locator: either a RepoRef
// with a (possibly empty) tail, or no RepoRef with the residual path.
type PathResolution struct {
	Repo RepoRef // "" when no repo was found on the path
	Tail UnconsumedTail
}

// Found reports whether the locator found a repository on the path.
func (r PathResolution) Found() bool { return r.Repo != "" }

// EntryKind enumerates the directory-listing kinds used by the folder
// and tree summaries.
type EntryKind string

const (
	KindFolder    EntryKind = "folder"
	KindFile      EntryKind = "file"
	KindSubmodule EntryKind = "submodule"
	KindUnknown   EntryKind = "unknown"
)

// TreeChild is one entry of a Tree listing.
type TreeChild struct {
	Name     string    `json:"name"`
	Kind     EntryKind `json:"kind"`
	Size     *int64    `json:"size,omitempty"`
	URL      string    `json:"url,omitempty"`
	CommitID string    `json:"commit_id,omitempty"`
}

// RepoEntityKind tags the variant held by a RepoEntity.
type RepoEntityKind int

const (
	EntityBlob RepoEntityKind = iota
	EntityTree
	EntitySubmodule
)

// RepoEntity is the result of walking a commit's tree by in-repo
// path segments: a tagged union of Blob, Tree and Submodule.
type RepoEntity struct {
	Kind RepoEntityKind

	// Blob fields
	Name  string
	Size  int64
	Bytes []byte

	// Tree fields
	Children []TreeChild

	// Submodule fields
	URL      string
	CommitID string
}

// Endpoint is a named commit reachable from a branch tip, a tag, or HEAD.
type Endpoint struct {
	CommitID      string    `json:"commit_id"`
	AuthorName    string    `json:"author_name"`
	AuthorEmail   string    `json:"author_email"`
	AuthoredTime  int64     `json:"authored_time"`
	CommittedTime int64     `json:"committed_time"`
	Summary       string    `json:"summary"`
	Branches      []string  `json:"branches,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
}

// EndpointSet is the union of branch tips, tag targets and HEAD for a
// repository, ordered descending by committed time.
type EndpointSet []Endpoint

// PathUnfitError signals that a requested path could not be resolved
// to a viewable resource: escape, missing ref, missing in-repo entry,
// unsupported object type, or archive failure.
type PathUnfitError struct {
	Reason string
}

func (e *PathUnfitError) Error() string { return fmt.Sprintf("path unfit: %s", e.Reason) }

// PathUnfit constructs a PathUnfitError with a diagnostic reason.
func PathUnfit(format string, args ...any) error {
	return &PathUnfitError{Reason: fmt.Sprintf(format, args...)}
}

// PathBoundsError signals that the restricted directory-listing RPC
// (browser.listdir) could not list its target as a folder.
type PathBoundsError struct {
	Reason string
}

func (e *PathBoundsError) Error() string { return fmt.Sprintf("path out of bounds: %s", e.Reason) }

// PathBounds constructs a PathBoundsError.
func PathBounds(format string, args ...any) error {
	return &PathBoundsError{Reason: fmt.Sprintf(format, args...)}
}

// PathContainsRepoDirError signals that browser.listdir was asked to
// peek inside a directory chain that passes through a git repo folder.
type PathContainsRepoDirError struct {
	Reason string
}

func (e *PathContainsRepoDirError) Error() string {
	return fmt.Sprintf("path contains repo dir: %s", e.Reason)
}

// PathContainsRepoDir constructs a PathContainsRepoDirError.
func PathContainsRepoDir(format string, args ...any) error {
	return &PathContainsRepoDirError{Reason: fmt.Sprintf(format, args...)}
}
