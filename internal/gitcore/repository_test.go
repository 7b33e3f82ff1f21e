package gitcore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rybkr/gittopo/internal/gitcore"
	"github.com/rybkr/gittopo/internal/testutil"
)

func TestFindGitDirFromSubdirectory(t *testing.T) {
	repo := testutil.NewRepo(t)
	sub := filepath.Join(repo.WorkDir, "a", "b", "c")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	gitDir, workDir, err := gitcore.FindGitDir(sub)
	require.NoError(t, err)
	require.Equal(t, repo.GitDir, gitDir)
	require.Equal(t, repo.WorkDir, workDir)
}

func TestFindGitDirFromGitDir(t *testing.T) {
	repo := testutil.NewRepo(t)

	gitDir, workDir, err := gitcore.FindGitDir(repo.GitDir)
	require.NoError(t, err)
	require.Equal(t, repo.GitDir, gitDir)
	require.Equal(t, repo.WorkDir, workDir)
}

func TestFindGitDirGitFile(t *testing.T) {
	repo := testutil.NewRepo(t)
	worktree := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(worktree, ".git"), []byte("gitdir: "+repo.GitDir+"\n"), 0o644))

	gitDir, workDir, err := gitcore.FindGitDir(worktree)
	require.NoError(t, err)
	require.Equal(t, repo.GitDir, gitDir)
	require.Equal(t, worktree, workDir)
}

func TestFindGitDirNotFound(t *testing.T) {
	_, _, err := gitcore.FindGitDir(t.TempDir())
	require.ErrorIs(t, err, gitcore.ErrNotRepository)
}

func TestNewRepositoryMissingObjects(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "refs"), 0o755))

	_, err := gitcore.NewRepository(dir)
	require.Error(t, err)
	require.NotErrorIs(t, err, gitcore.ErrNotRepository)
}

func TestNewRepositoryMissingHead(t *testing.T) {
	repo := testutil.NewRepo(t)
	require.NoError(t, os.Remove(filepath.Join(repo.GitDir, "HEAD")))

	_, err := gitcore.NewRepository(repo.WorkDir)
	require.EqualError(t, err, "invalid git repository, missing: HEAD")
	require.NotErrorIs(t, err, gitcore.ErrNotRepository)
}

func TestRepositoryBranches(t *testing.T) {
	repo := testutil.NewRepo(t)
	a := repo.Commit()
	repo.Branch("main", a)

	r, err := gitcore.NewRepository(repo.WorkDir)
	require.NoError(t, err)
	require.Equal(t, repo.GitDir, r.GitDir())
	require.Equal(t, filepath.Base(repo.WorkDir), r.Name())

	branches, err := r.Branches()
	require.NoError(t, err)
	require.Equal(t, []string{"main"}, branches.Names(gitcore.Hash(a)))

	parents, err := r.Objects().Parents(gitcore.Hash(a))
	require.NoError(t, err)
	require.Empty(t, parents)
}
