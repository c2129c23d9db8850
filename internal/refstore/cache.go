package refstore

import (
	"encoding/json"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/logging"
)

const (
	parentsPrefix = "parents:"
	branchPrefix  = "branch:"
)

// Cache is a secondary, non-authoritative, rebuildable key-value store
// backing faster ancestry walks and branch lookups than re-reading and
// re-parsing commit objects and ref files on every query. Losing it (a
// missing directory, a corrupt db) is never fatal: callers fall back to
// the object store and the plain-file ref database.
type Cache struct {
	db     *badger.DB
	logger *logging.Logger
}

// OpenCache opens (creating if absent) the badger database at dir. Errors
// are returned so callers can decide policy, but the intended use is to log
// and continue without a cache rather than fail the whole repository open.
func OpenCache(dir string, logger *logging.Logger) (*Cache, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db, logger: logger}, nil
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// ParentsOf returns the cached parent list for digest, if present.
func (c *Cache) ParentsOf(digest ioutil.Digest) ([]ioutil.Digest, bool) {
	if c == nil {
		return nil, false
	}
	var parents []ioutil.Digest
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(parentsPrefix + string(digest)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var raw []string
			if err := json.Unmarshal(val, &raw); err != nil {
				return err
			}
			parents = make([]ioutil.Digest, len(raw))
			for i, p := range raw {
				parents[i] = ioutil.Digest(p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, false
	}
	return parents, true
}

// StoreParents records digest's parents for future lookups.
func (c *Cache) StoreParents(digest ioutil.Digest, parents []ioutil.Digest) {
	if c == nil {
		return
	}
	raw := make([]string, len(parents))
	for i, p := range parents {
		raw[i] = string(p)
	}
	val, err := json.Marshal(raw)
	if err != nil {
		return
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(parentsPrefix+string(digest)), val)
	})
	if err != nil {
		c.logger.Debug("ancestry cache write failed", zap.Error(err))
	}
}

// SetBranch mirrors a ref-database branch update into the cache.
func (c *Cache) SetBranch(name string, digest ioutil.Digest) {
	if c == nil {
		return
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(branchPrefix+name), []byte(digest))
	})
	if err != nil {
		c.logger.Debug("branch cache write failed", zap.Error(err))
	}
}

// DeleteBranch removes a branch entry from the cache.
func (c *Cache) DeleteBranch(name string) {
	if c == nil {
		return
	}
	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(branchPrefix + name))
	})
}

// Branch returns the cached digest for a branch name, if present.
func (c *Cache) Branch(name string) (ioutil.Digest, bool) {
	if c == nil {
		return "", false
	}
	var digest ioutil.Digest
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(branchPrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			digest = ioutil.Digest(val)
			return nil
		})
	})
	return digest, err == nil
}

// ListBranches returns every cached branch entry.
func (c *Cache) ListBranches() []BranchRef {
	if c == nil {
		return nil
	}
	var refs []BranchRef
	_ = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(branchPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			name := strings.TrimPrefix(string(item.Key()), branchPrefix)
			_ = item.Value(func(val []byte) error {
				refs = append(refs, BranchRef{Name: name, Digest: ioutil.Digest(val)})
				return nil
			})
		}
		return nil
	})
	return refs
}
