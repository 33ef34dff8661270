package fuzzy_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"gitexplorer/internal/content"
	"gitexplorer/internal/core"
	"gitexplorer/internal/fuzzy"
	"gitexplorer/internal/httprouter"
)

func buildRepoRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	repoDir := filepath.Join(root, "demorepoone")
	require.NoError(t, os.MkdirAll(repoDir, 0o755))

	repo, err := git.PlainInit(repoDir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "doc.txt"), []byte("hello world"), 0o644))
	_, err = wt.Add(".")
	require.NoError(t, err)

	sig := &object.Signature{Name: "T", Email: "t@example.com"}
	_, err = wt.Commit("c1", &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)

	return root
}

func TestServeHTTPStreamsBlob(t *testing.T) {
	root := buildRepoRoot(t)
	producer := content.New(core.ServedRoot(root))
	handler := fuzzy.New(producer)

	rt := httprouter.New("")
	rt.HandleAny("(?P<rest>.*)", handler)

	req := httptest.NewRequest(http.MethodGet, "/demorepoone/master/doc.txt", nil)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hello world", rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("ETag"))
}

func TestServeHTTPETagChangesAcrossCommitsAtSamePath(t *testing.T) {
	root := buildRepoRoot(t)
	repoDir := filepath.Join(root, "demorepoone")

	producer := content.New(core.ServedRoot(root))
	handler := fuzzy.New(producer)
	rt := httprouter.New("")
	rt.HandleAny("(?P<rest>.*)", handler)

	req := httptest.NewRequest(http.MethodGet, "/demorepoone/master/doc.txt", nil)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	firstETag := rec.Header().Get("ETag")
	require.NotEmpty(t, firstETag)

	repo, err := git.PlainOpen(repoDir)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "doc.txt"), []byte("hello world, revised"), 0o644))
	_, err = wt.Add(".")
	require.NoError(t, err)
	sig := &object.Signature{Name: "T", Email: "t@example.com"}
	_, err = wt.Commit("c2", &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)

	req2 := httptest.NewRequest(http.MethodGet, "/demorepoone/master/doc.txt", nil)
	rec2 := httptest.NewRecorder()
	rt.ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusOK, rec2.Code)
	secondETag := rec2.Header().Get("ETag")

	require.NotEqual(t, firstETag, secondETag, "ETag must change when the resolved commit changes")
}

func TestServeHTTPMissingPathIs404(t *testing.T) {
	root := buildRepoRoot(t)
	producer := content.New(core.ServedRoot(root))
	handler := fuzzy.New(producer)

	rt := httprouter.New("")
	rt.HandleAny("(?P<rest>.*)", handler)

	req := httptest.NewRequest(http.MethodGet, "/demorepoone/master/nope.txt", nil)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeHTTPRejectsPost(t *testing.T) {
	root := buildRepoRoot(t)
	producer := content.New(core.ServedRoot(root))
	handler := fuzzy.New(producer)

	rt := httprouter.New("")
	rt.HandleAny("(?P<rest>.*)", handler)

	req := httptest.NewRequest(http.MethodPost, "/demorepoone/master/doc.txt", nil)
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
