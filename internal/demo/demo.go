// Package demo builds a small tree of bare git repositories in a temp
// directory so the server has something to show when no content root
// is configured. It is the structural descendant of a best-effort
// provisioning step run once at startup, off the request path, with
// the teacher's network-download concern replaced by local repo
// construction since this domain has no network-provisioning need.
package demo

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Bootstrap creates a projects/teams/users tree under a fresh temp
// directory, with one sample repository at projects/demorepoone
// carrying one commit, a branch and a tag, and returns the
// temp directory's absolute path.
func Bootstrap() (string, error) {
	root, err := os.MkdirTemp("", "gitexplorer-demo-*")
	if err != nil {
		return "", err
	}

	for _, dir := range []string{"teams", "users"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return "", err
		}
	}

	if err := buildDemoRepo(filepath.Join(root, "projects", "demorepoone")); err != nil {
		return "", err
	}

	return root, nil
}

func buildDemoRepo(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	seed, err := os.MkdirTemp("", "gitexplorer-seed-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(seed)

	repo, err := git.PlainInit(seed, false)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(seed, "firstdoc.txt"), sampleText(), 0o644); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(seed, "somefolder"), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(seed, "somefolder", "nested.txt"), []byte("nested content\n"), 0o644); err != nil {
		return err
	}

	if _, err := wt.Add("."); err != nil {
		return err
	}

	sig := &object.Signature{Name: "Demo Bootstrap", Email: "demo@gitexplorer.local", When: time.Unix(1700000000, 0)}
	hash, err := wt.Commit("initial demo commit", &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return err
	}

	if _, err := repo.CreateTag("v1.0.0", hash, nil); err != nil {
		return err
	}

	// Mirror the seed into dir as a bare repository, with the info
	// folder the repo locator's signature check looks for.
	if _, err := git.PlainClone(dir, true, &git.CloneOptions{URL: seed}); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(dir, "info"), 0o755)
}

// sampleText returns exactly 65 bytes, matching spec.md §8's literal
// "65 bytes of text" boundary scenario for firstdoc.txt.
func sampleText() []byte {
	return []byte("this sample document is exactly sixty-five bytes long in total!!\n")
}
