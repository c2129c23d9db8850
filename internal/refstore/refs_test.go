package refstore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/refstore"
)

func newStore(t *testing.T) *refstore.Store {
	t.Helper()
	dir := t.TempDir()
	return refstore.New(dir)
}

func TestWriteReadSymbolicHead(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.WriteHeadSymbolic("master"))
	require.NoError(t, s.WriteBranch("master", "deadbeef"))

	head, err := s.ReadHead()
	require.NoError(t, err)
	require.Equal(t, refstore.Symbolic, head.Kind)
	require.Equal(t, "master", head.Branch)
}

func TestUnbornBranch(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.WriteHeadSymbolic("master"))

	head, err := s.ReadHead()
	require.NoError(t, err)
	require.Equal(t, refstore.Unborn, head.Kind)
}

func TestDetachedHead(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.WriteHeadDetached("somecommit"))

	head, err := s.ReadHead()
	require.NoError(t, err)
	require.Equal(t, refstore.Detached, head.Kind)
	require.Equal(t, ioutil.Digest("somecommit"), head.Digest)
}

func TestListBranchesSorted(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.WriteBranch("zeta", "1"))
	require.NoError(t, s.WriteBranch("alpha", "2"))

	refs, err := s.ListBranches()
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Equal(t, "alpha", refs[0].Name)
	require.Equal(t, "zeta", refs[1].Name)
}

func TestCacheRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	cache, err := refstore.OpenCache(dir, nil)
	require.NoError(t, err)
	defer cache.Close()

	cache.StoreParents("child", []ioutil.Digest{"p1", "p2"})
	parents, ok := cache.ParentsOf("child")
	require.True(t, ok)
	require.Equal(t, []ioutil.Digest{"p1", "p2"}, parents)

	cache.SetBranch("master", "abc")
	digest, ok := cache.Branch("master")
	require.True(t, ok)
	require.Equal(t, ioutil.Digest("abc"), digest)
}
