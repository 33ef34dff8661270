// Package gitadapter resolves refs, walks commit trees, enumerates
// endpoints, and produces ZIP archives for a located repository. It is
// the only package that touches git object data directly.
package gitadapter

import (
	"io"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/config"
	"github.com/go-git/go-git/v5/plumbing/object"

	"gitexplorer/internal/core"
	"gitexplorer/internal/subprocio"
)

// Open opens the bare (or regular) repository at ref.
func Open(repo core.RepoRef) (*git.Repository, error) {
	r, err := git.PlainOpen(string(repo))
	if err != nil {
		return nil, core.PathUnfit("repository %q could not be opened: %v", repo, err)
	}
	return r, nil
}

// ResolveCommit resolves a commit-reference — a branch name, tag name,
// "HEAD", or a full/abbreviated commit sha — to its commit object,
// peeling annotated tags down to the commit they point at.
func ResolveCommit(r *git.Repository, ref string) (*object.Commit, error) {
	if ref == "" {
		ref = core.DefaultRef
	}
	hash, err := r.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, core.PathUnfit("reference %q could not be resolved: %v", ref, err)
	}

	commit, err := r.CommitObject(*hash)
	if err == nil {
		return commit, nil
	}

	tagObj, tagErr := r.TagObject(*hash)
	if tagErr != nil {
		return nil, core.PathUnfit("reference %q does not resolve to a commit: %v", ref, err)
	}
	commit, err = tagObj.Commit()
	if err != nil {
		return nil, core.PathUnfit("annotated tag %q does not resolve to a commit: %v", ref, err)
	}
	return commit, nil
}

// Walk resolves a slash-delimited in-repo path against commit's tree,
// returning the matching blob, tree, or submodule entity. An empty
// path returns the commit's root tree.
func Walk(commit *object.Commit, inRepoPath string) (core.RepoEntity, error) {
	tree, err := commit.Tree()
	if err != nil {
		return core.RepoEntity{}, core.PathUnfit("commit %s tree unreadable: %v", commit.Hash, err)
	}

	trimmed := strings.Trim(inRepoPath, "/")
	if trimmed == "" {
		return treeEntity(tree), nil
	}

	entry, err := tree.FindEntry(trimmed)
	if err != nil {
		return core.RepoEntity{}, core.PathUnfit("path %q not found in commit %s: %v", trimmed, commit.Hash, err)
	}

	switch {
	case entry.Mode == filemode.Submodule:
		return submoduleEntity(tree, trimmed, entry), nil
	case entry.Mode.IsFile():
		return blobEntity(tree, trimmed)
	default:
		subTree, terr := tree.Tree(trimmed)
		if terr != nil {
			return core.RepoEntity{}, core.PathUnfit("path %q is not a readable tree in commit %s: %v", trimmed, commit.Hash, terr)
		}
		return treeEntity(subTree), nil
	}
}

func blobEntity(tree *object.Tree, path string) (core.RepoEntity, error) {
	file, err := tree.File(path)
	if err != nil {
		return core.RepoEntity{}, core.PathUnfit("path %q is not a readable file: %v", path, err)
	}
	reader, err := file.Reader()
	if err != nil {
		return core.RepoEntity{}, core.PathUnfit("blob %q could not be opened: %v", path, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return core.RepoEntity{}, core.PathUnfit("blob %q could not be read: %v", path, err)
	}

	return core.RepoEntity{
		Kind:  core.EntityBlob,
		Name:  path[strings.LastIndex(path, "/")+1:],
		Size:  file.Size,
		Bytes: data,
	}, nil
}

func treeEntity(tree *object.Tree) core.RepoEntity {
	children := make([]core.TreeChild, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		kind := core.KindFile
		switch {
		case e.Mode == filemode.Submodule:
			kind = core.KindSubmodule
		case e.Mode == filemode.Dir:
			kind = core.KindFolder
		case !e.Mode.IsFile():
			kind = core.KindUnknown
		}

		child := core.TreeChild{Name: e.Name, Kind: kind}
		if kind == core.KindSubmodule {
			child.CommitID = e.Hash.String()
			child.URL = submoduleURL(tree, e.Name)
		}
		if kind == core.KindFile {
			if obj, err := tree.TreeEntryFile(&e); err == nil {
				size := obj.Size
				child.Size = &size
			}
		}
		children = append(children, child)
	}

	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	return core.RepoEntity{Kind: core.EntityTree, Children: children}
}

func submoduleEntity(tree *object.Tree, path string, entry *object.TreeEntry) core.RepoEntity {
	return core.RepoEntity{
		Kind:     core.EntitySubmodule,
		Name:     entry.Name,
		CommitID: entry.Hash.String(),
		URL:      submoduleURL(tree, path),
	}
}

// submoduleURL reads .gitmodules from tree's root and returns the
// configured url for the submodule mounted at path. Returns "" when
// .gitmodules is absent or has no matching entry.
func submoduleURL(tree *object.Tree, path string) string {
	file, err := tree.File(".gitmodules")
	if err != nil {
		return ""
	}
	reader, err := file.Reader()
	if err != nil {
		return ""
	}
	defer reader.Close()

	decoder := config.NewDecoder(reader)
	cfg := config.New()
	if err := decoder.Decode(cfg); err != nil {
		return ""
	}

	for _, section := range cfg.Sections {
		if section.Name != "submodule" {
			continue
		}
		for _, sub := range section.Subsections {
			if sub.Option("path") == path {
				return sub.Option("url")
			}
		}
	}
	return ""
}

// Endpoints enumerates branch tips, tag targets, and HEAD into the
// commit summaries that make up an EndpointSet, newest first.
func Endpoints(r *git.Repository) (core.EndpointSet, error) {
	named := map[plumbing.Hash]*core.Endpoint{}
	order := []plumbing.Hash{}

	ensure := func(hash plumbing.Hash) *core.Endpoint {
		if ep, ok := named[hash]; ok {
			return ep
		}
		ep := &core.Endpoint{}
		named[hash] = ep
		order = append(order, hash)
		return ep
	}

	branches, err := r.Branches()
	if err != nil {
		return nil, core.PathUnfit("branches unreadable: %v", err)
	}
	if err := branches.ForEach(func(ref *plumbing.Reference) error {
		ep := ensure(ref.Hash())
		ep.Branches = append(ep.Branches, ref.Name().Short())
		return nil
	}); err != nil {
		return nil, core.PathUnfit("branches unreadable: %v", err)
	}

	tags, err := r.Tags()
	if err != nil {
		return nil, core.PathUnfit("tags unreadable: %v", err)
	}
	if err := tags.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if tagObj, err := r.TagObject(hash); err == nil {
			if commit, err := tagObj.Commit(); err == nil {
				hash = commit.Hash
			}
		}
		ep := ensure(hash)
		ep.Tags = append(ep.Tags, ref.Name().Short())
		return nil
	}); err != nil {
		return nil, core.PathUnfit("tags unreadable: %v", err)
	}

	if head, err := r.Head(); err == nil {
		ensure(head.Hash())
	}

	set := make(core.EndpointSet, 0, len(order))
	for _, hash := range order {
		commit, err := r.CommitObject(hash)
		if err != nil {
			continue
		}
		ep := named[hash]
		ep.CommitID = commit.Hash.String()
		ep.AuthorName = commit.Author.Name
		ep.AuthorEmail = commit.Author.Email
		ep.AuthoredTime = commit.Author.When.Unix()
		ep.CommittedTime = commit.Committer.When.Unix()
		ep.Summary = firstLine(commit.Message)
		set = append(set, *ep)
	}

	sort.Slice(set, func(i, j int) bool { return set[i].CommittedTime > set[j].CommittedTime })
	return set, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Archive streams a ZIP of subpath within ref by shelling out to
// `git archive`, invoked with an explicit argv array — never a shell
// string — and piping its output through subprocio so the whole
// archive is never held in memory at once. The caller must Close the
// returned reader.
func Archive(repo core.RepoRef, ref, subpath string) (io.ReadCloser, error) {
	if ref == "" {
		ref = core.DefaultRef
	}

	trimmed := strings.Trim(subpath, "/")
	args := []string{"archive", "--format=zip", "--prefix=" + archivePrefix(repo, trimmed), ref}
	if trimmed != "" {
		args = append(args, "--", trimmed)
	}

	cmd := exec.Command("git", args...)
	cmd.Dir = string(repo)

	result, err := subprocio.CommunicateIO(cmd, nil, 0)
	if err != nil {
		return nil, core.PathUnfit("git archive failed to start for %q at %q: %v", subpath, ref, err)
	}
	defer result.Stderr.Close()

	if result.ExitCode != 0 {
		msg, _ := io.ReadAll(result.Stderr)
		result.Stdout.Close()
		return nil, core.PathUnfit("git archive exited %d for %q at %q: %s", result.ExitCode, subpath, ref, strings.TrimSpace(string(msg)))
	}

	return result.Stdout, nil
}

// archivePrefix builds the `<repo-name>[_<subpath…>]/` folder prefix
// git archive nests every entry under.
func archivePrefix(repo core.RepoRef, subpath string) string {
	name := filepath.Base(string(repo))
	parts := []string{name}
	for _, seg := range strings.Split(subpath, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "_") + "/"
}
