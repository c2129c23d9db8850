// Package objstore is the content-addressed object store: a flat directory
// mapping digest to serialized bytes, with an LRU read cache and transparent
// at-rest zstd compression in front of it. Blobs and commits are both just
// bytes to this package; it never inspects their contents.
package objstore

import (
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	vcserrors "github.com/MiniGit-AAiT/MiniGit-AAiT/internal/errors"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/logging"
)

const defaultCacheSize = 256

// Store persists and retrieves immutable objects by digest under root.
type Store struct {
	root   string
	cache  *lru.Cache[ioutil.Digest, []byte]
	logger *logging.Logger
}

// New opens (creating if absent) an object store rooted at dir.
func New(dir string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, vcserrors.Wrap(vcserrors.IOFailure, "creating object store directory", err)
	}
	cache, err := lru.New[ioutil.Digest, []byte](defaultCacheSize)
	if err != nil {
		return nil, vcserrors.Wrap(vcserrors.IOFailure, "allocating object cache", err)
	}
	return &Store{root: dir, cache: cache, logger: logger}, nil
}

func (s *Store) path(d ioutil.Digest) string {
	return filepath.Join(s.root, string(d))
}

// Put writes data under its content digest, idempotently, and returns the
// digest.
func (s *Store) Put(data []byte) (ioutil.Digest, error) {
	digest := ioutil.Sum(data)
	if s.Exists(digest) {
		s.cache.Add(digest, data)
		return digest, nil
	}
	onDisk := maybeCompress(data)
	if err := ioutil.WriteFile(s.path(digest), onDisk); err != nil {
		return "", vcserrors.Wrap(vcserrors.IOFailure, "writing object "+digest.Short(), err)
	}
	s.cache.Add(digest, data)
	s.logger.Debug("object written", zap.String("digest", digest.Short()), zap.Int("bytes", len(data)))
	return digest, nil
}

// Get retrieves the plaintext bytes for digest, or a NotFound error.
func (s *Store) Get(digest ioutil.Digest) ([]byte, error) {
	if cached, ok := s.cache.Get(digest); ok {
		return cached, nil
	}
	raw, err := ioutil.ReadFile(s.path(digest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vcserrors.New(vcserrors.NotFound, "object "+digest.Short()+" not found")
		}
		return nil, vcserrors.Wrap(vcserrors.IOFailure, "reading object "+digest.Short(), err)
	}
	data, err := decompress(raw)
	if err != nil {
		return nil, vcserrors.Wrap(vcserrors.Corruption, "decompressing object "+digest.Short(), err)
	}
	s.cache.Add(digest, data)
	return data, nil
}

// Exists reports whether digest is present in the store.
func (s *Store) Exists(digest ioutil.Digest) bool {
	if s.cache.Contains(digest) {
		return true
	}
	_, err := os.Stat(s.path(digest))
	return err == nil
}
