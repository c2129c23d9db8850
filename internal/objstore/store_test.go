package objstore_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/logging"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/objstore"
)

func TestPutGetRoundTrip(t *testing.T) {
	store, err := objstore.New(t.TempDir(), logging.Nop())
	require.NoError(t, err)

	data := []byte("hello world")
	digest, err := store.Put(data)
	require.NoError(t, err)

	got, err := store.Get(digest)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestPutIsIdempotent(t *testing.T) {
	store, err := objstore.New(t.TempDir(), logging.Nop())
	require.NoError(t, err)

	d1, err := store.Put([]byte("same content"))
	require.NoError(t, err)
	d2, err := store.Put([]byte("same content"))
	require.NoError(t, err)
	require.Equal(t, d1, d2)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store, err := objstore.New(t.TempDir(), logging.Nop())
	require.NoError(t, err)

	_, err = store.Get(ioutil.Digest("deadbeef"))
	require.Error(t, err)
}

func TestExists(t *testing.T) {
	store, err := objstore.New(t.TempDir(), logging.Nop())
	require.NoError(t, err)

	require.False(t, store.Exists(ioutil.Digest("nope")))
	digest, err := store.Put([]byte("content"))
	require.NoError(t, err)
	require.True(t, store.Exists(digest))
}

func TestLargeContentRoundTripsThroughCompression(t *testing.T) {
	store, err := objstore.New(t.TempDir(), logging.Nop())
	require.NoError(t, err)

	data := []byte(strings.Repeat("minigit content ", 1000))
	digest, err := store.Put(data)
	require.NoError(t, err)

	got, err := store.Get(digest)
	require.NoError(t, err)
	require.Equal(t, data, got)
}
