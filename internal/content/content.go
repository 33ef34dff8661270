// Package content orchestrates the sanitizer, locator and git adapter
// into the two surfaces the rest of the server consumes: Summary, for
// the browsing RPC, and Stream, for the fuzzy content handler.
package content

import (
	"bytes"
	"io"
	"mime"
	"os"
	"path"
	"strings"

	"gitexplorer/internal/core"
	"gitexplorer/internal/gitadapter"
	"gitexplorer/internal/locate"
	"gitexplorer/internal/sanitize"
)

// inlineDataLimit is the size in bytes below which a blob's contents
// are embedded directly in a repoitem summary.
const inlineDataLimit = 64000

// Producer binds a ServedRoot and exposes Summary/Stream over it.
type Producer struct {
	Root core.ServedRoot
}

// New returns a Producer rooted at root.
func New(root core.ServedRoot) *Producer {
	return &Producer{Root: root}
}

// SummaryKind tags the variant held by a Summary.
type SummaryKind string

const (
	SummaryFolder     SummaryKind = "folder"
	SummaryRepo       SummaryKind = "repo"
	SummaryRepoFolder SummaryKind = "repofolder"
	SummaryRepoItem   SummaryKind = "repoitem"
	SummaryRemoteLink SummaryKind = "remotelink"
)

// FolderEntry is one child of a plain-folder Summary.
type FolderEntry struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	IsRepo bool   `json:"is_repo,omitempty"`
}

// ItemType describes the type triple a repoitem Summary carries.
type ItemType struct {
	MimeType      string `json:"mimetype"`
	SuperMimeType string `json:"supermimetype"`
	Extension     string `json:"extension"`
}

// Summary is the tagged response of the Producer's Summary operation.
// Exactly the fields relevant to Kind are populated.
type Summary struct {
	Kind SummaryKind `json:"type"`

	// folder
	Entries []FolderEntry `json:"entries,omitempty"`

	// repo
	Endpoints   core.EndpointSet `json:"endpoints,omitempty"`
	Description string           `json:"description,omitempty"`

	// repofolder
	Items []core.TreeChild `json:"items,omitempty"`

	// repoitem
	Type ItemType `json:"item_type,omitempty"`
	Name string   `json:"name,omitempty"`
	Size int64    `json:"size,omitempty"`
	Data []byte   `json:"data,omitempty"`

	// remotelink
	System string `json:"system,omitempty"`
	Class  string `json:"class,omitempty"`
	URL    string `json:"url,omitempty"`
	ID     string `json:"id,omitempty"`
}

// Summary resolves reqPath to a tagged Summary per spec.md §4.4.
func (p *Producer) Summary(reqPath string) (Summary, error) {
	rel, err := sanitize.Path(p.Root, reqPath)
	if err != nil {
		return Summary{}, err
	}

	res, err := locate.Find(p.Root, rel)
	if err != nil {
		return Summary{}, err
	}

	if !res.Found() {
		if res.Tail != "" {
			return Summary{}, core.PathUnfit("no repository found on path %q", rel)
		}
		return folderSummary(p.Root, rel)
	}

	repo, err := gitadapter.Open(res.Repo)
	if err != nil {
		return Summary{}, err
	}

	if res.Tail == "" {
		endpoints, err := gitadapter.Endpoints(repo)
		if err != nil {
			return Summary{}, err
		}
		return Summary{
			Kind:        SummaryRepo,
			Endpoints:   endpoints,
			Description: repoDescription(res.Repo),
		}, nil
	}

	ref, subpath := splitTail(res.Tail)
	commit, err := gitadapter.ResolveCommit(repo, ref)
	if err != nil {
		return Summary{}, err
	}

	entity, err := gitadapter.Walk(commit, subpath)
	if err != nil {
		return Summary{}, err
	}

	switch entity.Kind {
	case core.EntityBlob:
		return blobSummary(entity), nil
	case core.EntityTree:
		return Summary{Kind: SummaryRepoFolder, Items: entity.Children}, nil
	case core.EntitySubmodule:
		return Summary{
			Kind:   SummaryRemoteLink,
			System: "git",
			Class:  "submodule",
			Name:   entity.Name,
			URL:    entity.URL,
			ID:     entity.CommitID,
		}, nil
	default:
		return Summary{}, core.PathUnfit("unsupported object kind at %q", subpath)
	}
}

// StreamKind tags the variant held by a Stream result.
type StreamKind string

const (
	StreamBlob StreamKind = "blob"
	StreamZip  StreamKind = "zip"
)

// Stream is the result of the Producer's Stream operation: a body
// producer plus the framing metadata the HTTP layer needs. Size is -1
// when unknown (chunked framing required). CommitID is the resolved
// commit's full hash — the stable key callers should use for ETag
// purposes, since it changes whenever the resolved commit does.
type Stream struct {
	Kind     StreamKind
	Body     io.ReadCloser
	MimeType string
	Size     int64
	Filename string
	CommitID string
}

// Stream resolves path to a streamable body per spec.md §4.4.
func (p *Producer) Stream(reqPath string) (Stream, error) {
	rel, err := sanitize.Path(p.Root, reqPath)
	if err != nil {
		return Stream{}, err
	}

	res, err := locate.Find(p.Root, rel)
	if err != nil {
		return Stream{}, err
	}
	if !res.Found() {
		return Stream{}, core.PathUnfit("no repository found on path %q", rel)
	}

	repo, err := gitadapter.Open(res.Repo)
	if err != nil {
		return Stream{}, err
	}

	ref, subpath := splitTail(res.Tail)
	commit, err := gitadapter.ResolveCommit(repo, ref)
	if err != nil {
		return Stream{}, err
	}

	entity, err := gitadapter.Walk(commit, subpath)
	if err != nil {
		return Stream{}, err
	}

	commitID := commit.Hash.String()

	switch entity.Kind {
	case core.EntityBlob:
		return Stream{
			Kind:     StreamBlob,
			Body:     io.NopCloser(bytes.NewReader(entity.Bytes)),
			MimeType: guessMimeType(entity.Name, entity.Bytes),
			Size:     entity.Size,
			Filename: entity.Name,
			CommitID: commitID,
		}, nil
	case core.EntityTree:
		body, err := gitadapter.Archive(res.Repo, ref, subpath)
		if err != nil {
			return Stream{}, err
		}
		return Stream{
			Kind:     StreamZip,
			Body:     body,
			MimeType: "application/zip",
			Size:     -1,
			Filename: archiveFilename(res.Repo, ref, subpath),
			CommitID: commitID,
		}, nil
	default:
		return Stream{}, core.PathUnfit("path %q is not streamable", subpath)
	}
}

func folderSummary(root core.ServedRoot, rel core.RelativePath) (Summary, error) {
	dir := string(root)
	if rel != "" {
		dir = path.Join(dir, string(rel))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Summary{}, core.PathUnfit("folder %q could not be listed: %v", rel, err)
	}

	out := make([]FolderEntry, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		childPath := path.Join(dir, e.Name())
		isRepo := false
		if children, err := os.ReadDir(childPath); err == nil {
			isRepo = hasRepoSignature(children)
		}
		out = append(out, FolderEntry{Name: e.Name(), Kind: string(core.KindFolder), IsRepo: isRepo})
	}

	return Summary{Kind: SummaryFolder, Entries: out}, nil
}

func hasRepoSignature(entries []os.DirEntry) bool {
	have := map[string]bool{}
	for _, e := range entries {
		have[strings.ToLower(e.Name())] = true
	}
	for _, want := range []string{"head", "info", "objects", "refs"} {
		if !have[want] {
			return false
		}
	}
	return true
}

func repoDescription(repo core.RepoRef) string {
	data, err := os.ReadFile(path.Join(string(repo), "description"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func blobSummary(entity core.RepoEntity) Summary {
	mimeType := guessMimeType(entity.Name, entity.Bytes)
	ext := strings.TrimPrefix(path.Ext(entity.Name), ".")

	s := Summary{
		Kind: SummaryRepoItem,
		Type: ItemType{
			MimeType:      mimeType,
			SuperMimeType: strings.SplitN(mimeType, "/", 2)[0],
			Extension:     ext,
		},
		Name: entity.Name,
		Size: entity.Size,
	}
	if entity.Size < inlineDataLimit && strings.HasPrefix(mimeType, "text/") {
		s.Data = entity.Bytes
	}
	return s
}

func guessMimeType(name string, data []byte) string {
	if ext := path.Ext(name); ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return stripParams(mt)
		}
	}
	if len(data) > 0 && len(data) < inlineDataLimit && isLikelyText(data) {
		return "text/plain"
	}
	return "application/octet-stream"
}

func stripParams(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		return strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}

func isLikelyText(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return false
		}
	}
	return true
}

func splitTail(tail core.UnconsumedTail) (ref string, subpath string) {
	s := strings.TrimPrefix(string(tail), "/")
	if s == "" {
		return core.DefaultRef, ""
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

func archiveFilename(repo core.RepoRef, ref, subpath string) string {
	name := path.Base(string(repo))
	parts := []string{name, ref}
	if subpath != "" {
		for _, seg := range strings.Split(subpath, "/") {
			if seg != "" {
				parts = append(parts, seg)
			}
		}
	}
	return strings.Join(parts, "_") + ".zip"
}

