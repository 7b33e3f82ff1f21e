package gitcore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rybkr/gittopo/internal/gitcore"
	"github.com/rybkr/gittopo/internal/testutil"
)

func TestLoadBranchesNested(t *testing.T) {
	repo := testutil.NewRepo(t)
	a := repo.Commit()
	b := repo.Commit(a)

	repo.Branch("main", b)
	repo.Branch("feature/login", a)
	repo.Branch("feature/deep/nested", b)

	index, err := gitcore.LoadBranches(filepath.Join(repo.GitDir, "refs", "heads"))
	require.NoError(t, err)

	require.Equal(t, 2, index.Len())
	require.ElementsMatch(t, []string{"main", "feature/deep/nested"}, index.Names(gitcore.Hash(b)))
	require.Equal(t, []string{"feature/login"}, index.Names(gitcore.Hash(a)))
	require.Nil(t, index.Names("0123456789abcdef0123456789abcdef01234567"))
}

func TestLoadBranchesDiscoveryOrder(t *testing.T) {
	repo := testutil.NewRepo(t)
	a := repo.Commit()
	b := repo.Commit()

	repo.Branch("b-branch", b)
	repo.Branch("a-branch", a)
	repo.Branch("c-branch", b)

	index, err := gitcore.LoadBranches(filepath.Join(repo.GitDir, "refs", "heads"))
	require.NoError(t, err)

	// Directory walks are lexical.
	require.Equal(t, []gitcore.Hash{gitcore.Hash(a), gitcore.Hash(b)}, index.Tips())
	require.Equal(t, []string{"b-branch", "c-branch"}, index.Names(gitcore.Hash(b)))
}

func TestLoadBranchesMissingDir(t *testing.T) {
	index, err := gitcore.LoadBranches(filepath.Join(t.TempDir(), "refs", "heads"))
	require.NoError(t, err)
	require.Equal(t, 0, index.Len())
}

func TestLoadBranchesSkipsInvalid(t *testing.T) {
	repo := testutil.NewRepo(t)
	a := repo.Commit()

	repo.Branch("main", a)
	repo.WriteFile(filepath.Join("refs", "heads", "symbolic"), "ref: refs/heads/main\n")
	repo.WriteFile(filepath.Join("refs", "heads", "main.lock"), a+"\n")

	index, err := gitcore.LoadBranches(filepath.Join(repo.GitDir, "refs", "heads"))
	require.NoError(t, err)
	require.Equal(t, []gitcore.Hash{gitcore.Hash(a)}, index.Tips())
	require.Equal(t, []string{"main"}, index.Names(gitcore.Hash(a)))
}

func TestLoadBranchesFollowsSymlinks(t *testing.T) {
	repo := testutil.NewRepo(t)
	a := repo.Commit()
	repo.Branch("main", a)

	heads := filepath.Join(repo.GitDir, "refs", "heads")
	require.NoError(t, os.Symlink(filepath.Join(heads, "main"), filepath.Join(heads, "alias")))
	require.NoError(t, os.Symlink(filepath.Join(heads, "gone"), filepath.Join(heads, "dangling")))
	require.NoError(t, os.Symlink(t.TempDir(), filepath.Join(heads, "dir-link")))

	index, err := gitcore.LoadBranches(heads)
	require.NoError(t, err)
	require.Equal(t, []gitcore.Hash{gitcore.Hash(a)}, index.Tips())
	require.Equal(t, []string{"alias", "main"}, index.Names(gitcore.Hash(a)))
}

func TestBranchIndexTipsReturnsCopy(t *testing.T) {
	index := gitcore.NewBranchIndex()
	index.Add("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "main")

	tips := index.Tips()
	tips[0] = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	require.Equal(t, gitcore.Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), index.Tips()[0])
}
