package locate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"

	"gitexplorer/internal/core"
	"gitexplorer/internal/locate"
)

func initBareRepo(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
	_, err := git.PlainInit(path, true)
	require.NoError(t, err)
}

func TestFindLocatesNestedRepo(t *testing.T) {
	root := t.TempDir()
	repoDir := filepath.Join(root, "projects", "demorepoone")
	initBareRepo(t, repoDir)

	res, err := locate.Find(core.ServedRoot(root), core.RelativePath("projects/demorepoone/master/firstdoc.txt"))
	require.NoError(t, err)
	require.True(t, res.Found())
	require.Equal(t, core.RepoRef(repoDir), res.Repo)
	require.Equal(t, core.UnconsumedTail("master/firstdoc.txt"), res.Tail)
}

func TestFindNoRepoOnPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "projects", "teams"), 0o755))

	res, err := locate.Find(core.ServedRoot(root), core.RelativePath("projects/teams"))
	require.NoError(t, err)
	require.False(t, res.Found())
	require.Equal(t, core.UnconsumedTail(""), res.Tail)
}

func TestFindNoRepoOnPartialPathLeavesUnresolvedTail(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "projects"), 0o755))

	res, err := locate.Find(core.ServedRoot(root), core.RelativePath("projects/nope/stillmore"))
	require.NoError(t, err)
	require.False(t, res.Found())
	require.Equal(t, core.UnconsumedTail("nope/stillmore"), res.Tail)
}

func TestFindRootIsRepo(t *testing.T) {
	root := t.TempDir()
	initBareRepo(t, root)

	res, err := locate.Find(core.ServedRoot(root), core.RelativePath("master/readme.md"))
	require.NoError(t, err)
	require.True(t, res.Found())
	require.Equal(t, core.RepoRef(root), res.Repo)
	require.Equal(t, core.UnconsumedTail("master/readme.md"), res.Tail)
}

func TestFindEmptyTailWhenPathIsExactlyRepo(t *testing.T) {
	root := t.TempDir()
	repoDir := filepath.Join(root, "demorepoone")
	initBareRepo(t, repoDir)

	res, err := locate.Find(core.ServedRoot(root), core.RelativePath("demorepoone"))
	require.NoError(t, err)
	require.True(t, res.Found())
	require.Equal(t, core.UnconsumedTail(""), res.Tail)
}
