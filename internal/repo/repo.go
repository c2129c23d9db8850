// Package repo is the repository operations & merge engine: the public
// surface (init, add, commit, log, branch, list-branches, checkout,
// status, merge) wiring together the object store, ref database, staging
// area and commit graph.
package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/commit"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/config"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/errors"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/index"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/logging"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/objstore"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/refstore"
)

const ignoreFileName = ".gitignore"

// Repository wires a working directory and its metadata directory together
// with the object store, ref database, ancestry cache and staging area.
type Repository struct {
	WorkDir       string
	MetaDir       string
	MetaDirName   string
	AuthorName    string
	DefaultBranch string

	Objects *objstore.Store
	Refs    *refstore.Store
	Cache   *refstore.Cache
	Logger  *logging.Logger
}

func metaDirFor(workDir, metaDirName string) string {
	return filepath.Join(workDir, metaDirName)
}

func (r *Repository) indexPath() string {
	return filepath.Join(r.MetaDir, "index")
}

// Init creates a new repository under workDir. It fails with AlreadyInit if
// the metadata directory already exists.
func Init(workDir string, cfg config.Config, logger *logging.Logger) (*Repository, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	metaDir := metaDirFor(workDir, cfg.MetaDirName)

	if _, err := os.Stat(metaDir); err == nil {
		return nil, errors.New(errors.AlreadyInit, "repository already initialized at "+metaDir)
	}

	if err := os.MkdirAll(filepath.Join(metaDir, "refs", "heads"), 0o755); err != nil {
		return nil, errors.Wrap(errors.IOFailure, "creating metadata directory", err)
	}

	lock, err := index.Acquire(metaDir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	objects, err := objstore.New(filepath.Join(metaDir, "objects"), logger)
	if err != nil {
		return nil, err
	}

	refs := refstore.New(metaDir)
	if err := refs.WriteHeadSymbolic(cfg.DefaultBranch); err != nil {
		return nil, err
	}

	if err := index.New(filepath.Join(metaDir, "index")).Save(); err != nil {
		return nil, err
	}

	if err := ioutil.WriteFile(filepath.Join(workDir, ignoreFileName), []byte(cfg.MetaDirName+"\n")); err != nil {
		return nil, errors.Wrap(errors.IOFailure, "writing ignore file", err)
	}

	cache, err := refstore.OpenCache(filepath.Join(metaDir, "cache"), logger)
	if err != nil {
		logger.Warn("ancestry cache unavailable, continuing without it", zap.Error(err))
		cache = nil
	}

	logger.Info("initialized repository", zap.String("path", metaDir))

	return &Repository{
		WorkDir:       workDir,
		MetaDir:       metaDir,
		MetaDirName:   cfg.MetaDirName,
		AuthorName:    cfg.AuthorName,
		DefaultBranch: cfg.DefaultBranch,
		Objects:       objects,
		Refs:          refs,
		Cache:         cache,
		Logger:        logger,
	}, nil
}

// Open loads an existing repository rooted at workDir.
func Open(workDir string, cfg config.Config, logger *logging.Logger) (*Repository, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	metaDir := metaDirFor(workDir, cfg.MetaDirName)

	if _, err := os.Stat(metaDir); err != nil {
		return nil, errors.New(errors.NotARepository, "not a repository: "+metaDir+" not found")
	}

	objects, err := objstore.New(filepath.Join(metaDir, "objects"), logger)
	if err != nil {
		return nil, err
	}

	cache, err := refstore.OpenCache(filepath.Join(metaDir, "cache"), logger)
	if err != nil {
		logger.Warn("ancestry cache unavailable, continuing without it", zap.Error(err))
		cache = nil
	}

	return &Repository{
		WorkDir:       workDir,
		MetaDir:       metaDir,
		MetaDirName:   cfg.MetaDirName,
		AuthorName:    cfg.AuthorName,
		DefaultBranch: cfg.DefaultBranch,
		Objects:       objects,
		Refs:          refstore.New(metaDir),
		Cache:         cache,
		Logger:        logger,
	}, nil
}

// Close releases the repository's derived resources (currently just the
// ancestry cache handle).
func (r *Repository) Close() error {
	return r.Cache.Close()
}

func (r *Repository) loadIndex() (*index.Index, error) {
	return index.Load(r.indexPath())
}

// parentsFunc resolves a commit's parents, consulting the ancestry cache
// before falling back to loading and parsing the commit object, and
// populating the cache on a miss.
func (r *Repository) parentsFunc() commit.ParentsFunc {
	return func(digest ioutil.Digest) ([]ioutil.Digest, error) {
		if parents, ok := r.Cache.ParentsOf(digest); ok {
			return parents, nil
		}
		c, err := commit.Load(r.Objects, digest)
		if err != nil {
			return nil, err
		}
		r.Cache.StoreParents(digest, c.Parents)
		return c.Parents, nil
	}
}

// headDigest resolves HEAD to a commit digest. ok is false for an unborn
// branch (no commits yet).
func (r *Repository) headDigest() (digest ioutil.Digest, ok bool, err error) {
	head, err := r.Refs.ReadHead()
	if err != nil {
		return "", false, err
	}
	switch head.Kind {
	case refstore.Detached:
		return head.Digest, true, nil
	case refstore.Unborn:
		return "", false, nil
	default: // Symbolic
		d, exists, err := r.Refs.ReadBranch(head.Branch)
		if err != nil {
			return "", false, err
		}
		return d, exists, nil
	}
}

// headSnapshot returns the tree of the commit HEAD points at, or an empty
// tree if HEAD is unborn.
func (r *Repository) headSnapshot() (map[string]ioutil.Digest, error) {
	digest, ok, err := r.headDigest()
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]ioutil.Digest{}, nil
	}
	c, err := commit.Load(r.Objects, digest)
	if err != nil {
		return nil, err
	}
	return c.Snapshot, nil
}

// advanceCurrent advances HEAD's branch (or HEAD itself if detached) to
// digest.
func (r *Repository) advanceCurrent(digest ioutil.Digest) error {
	head, err := r.Refs.ReadHead()
	if err != nil {
		return err
	}
	switch head.Kind {
	case refstore.Detached:
		if err := r.Refs.WriteHeadDetached(digest); err != nil {
			return err
		}
	default:
		if err := r.Refs.WriteBranch(head.Branch, digest); err != nil {
			return err
		}
		r.Cache.SetBranch(head.Branch, digest)
	}
	return nil
}

// currentBranchName returns the branch HEAD tracks and whether HEAD is
// symbolic at all (false when detached).
func (r *Repository) currentBranchName() (string, bool, error) {
	head, err := r.Refs.ReadHead()
	if err != nil {
		return "", false, err
	}
	if head.Kind == refstore.Detached {
		return "", false, nil
	}
	return head.Branch, true, nil
}

func (r *Repository) hasUnstagedChanges(idx *index.Index, headSnap map[string]ioutil.Digest) (bool, error) {
	return index.HasUnstagedChanges(r.WorkDir, r.MetaDirName, ignoreFileName, idx, headSnap)
}

// materializeTree deletes everything in the working tree except the
// metadata directory and the ignore file, then writes every path in tree.
func (r *Repository) materializeTree(tree map[string]ioutil.Digest) error {
	entries, err := os.ReadDir(r.WorkDir)
	if err != nil {
		return errors.Wrap(errors.IOFailure, "reading working directory", err)
	}
	for _, e := range entries {
		if e.Name() == r.MetaDirName || e.Name() == ignoreFileName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(r.WorkDir, e.Name())); err != nil {
			return errors.Wrap(errors.IOFailure, "clearing working tree", err)
		}
	}

	for path, digest := range tree {
		data, err := r.Objects.Get(digest)
		if err != nil {
			return fmt.Errorf("materializing %s: %w", path, err)
		}
		if err := ioutil.WriteFile(filepath.Join(r.WorkDir, path), data); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}
