package index_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/index"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
)

func TestAddThenRemoveClearsStaged(t *testing.T) {
	idx := index.New(filepath.Join(t.TempDir(), "index"))
	idx.Add("a.txt", "digest-a")
	idx.Remove("a.txt")

	require.Empty(t, idx.Staged)
	require.True(t, idx.Removed["a.txt"])
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	idx := index.New(path)
	idx.Add("a.txt", "digest-a")
	idx.Remove("b.txt")
	require.NoError(t, idx.Save())

	loaded, err := index.Load(path)
	require.NoError(t, err)
	require.Equal(t, ioutil.Digest("digest-a"), loaded.Staged["a.txt"])
	require.True(t, loaded.Removed["b.txt"])
}

func TestLoadMissingFileYieldsEmptyIndex(t *testing.T) {
	loaded, err := index.Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	require.True(t, loaded.IsEmpty())
}

func TestEffectiveTreeOverlaysAndDeletes(t *testing.T) {
	idx := index.New(filepath.Join(t.TempDir(), "index"))
	idx.Add("b.txt", "new-b")
	idx.Remove("c.txt")

	head := map[string]ioutil.Digest{"a.txt": "a", "b.txt": "old-b", "c.txt": "c"}
	tree := idx.EffectiveTree(head)

	require.Equal(t, ioutil.Digest("a"), tree["a.txt"])
	require.Equal(t, ioutil.Digest("new-b"), tree["b.txt"])
	_, stillThere := tree["c.txt"]
	require.False(t, stillThere)
}

func TestHasUnstagedChangesUntracked(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("content"), 0o644))

	idx := index.New(filepath.Join(dir, "index"))
	dirty, err := index.HasUnstagedChanges(dir, ".minigit", ".gitignore", idx, map[string]ioutil.Digest{})
	require.NoError(t, err)
	require.True(t, dirty)
}

func TestHasUnstagedChangesCleanWhenStagedMatchesWorkingTree(t *testing.T) {
	dir := t.TempDir()
	content := []byte("hello")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), content, 0o644))

	idx := index.New(filepath.Join(dir, "index"))
	idx.Add("a.txt", ioutil.Sum(content))

	dirty, err := index.HasUnstagedChanges(dir, ".minigit", ".gitignore", idx, map[string]ioutil.Digest{})
	require.NoError(t, err)
	require.False(t, dirty)
}

func TestHasUnstagedChangesDeletedFromWorkingTree(t *testing.T) {
	dir := t.TempDir()
	idx := index.New(filepath.Join(dir, "index"))
	head := map[string]ioutil.Digest{"gone.txt": "digest"}

	dirty, err := index.HasUnstagedChanges(dir, ".minigit", ".gitignore", idx, head)
	require.NoError(t, err)
	require.True(t, dirty)
}

func TestLockAcquireAndRelease(t *testing.T) {
	metaDir := t.TempDir()

	lock, err := index.Acquire(metaDir)
	require.NoError(t, err)

	_, err = index.Acquire(metaDir)
	require.Error(t, err)

	require.NoError(t, lock.Release())

	lock2, err := index.Acquire(metaDir)
	require.NoError(t, err)
	require.NoError(t, lock2.Release())
}
