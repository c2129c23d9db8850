package repo

import (
	"go.uber.org/zap"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/commit"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/errors"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/index"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
)

// Commit builds a commit from the index's effective tree overlaid on
// HEAD's snapshot, writes it, and advances the current branch (or HEAD, if
// detached) to it.
func (r *Repository) Commit(message, author string) (ioutil.Digest, error) {
	lock, err := index.Acquire(r.MetaDir)
	if err != nil {
		return "", err
	}
	defer lock.Release()

	idx, err := r.loadIndex()
	if err != nil {
		return "", err
	}
	if idx.IsEmpty() {
		return "", errors.New(errors.EmptyIndex, "nothing staged for commit")
	}

	headSnap, err := r.headSnapshot()
	if err != nil {
		return "", err
	}
	parentDigest, hasParent, err := r.headDigest()
	if err != nil {
		return "", err
	}

	var parents []ioutil.Digest
	if hasParent {
		parents = []ioutil.Digest{parentDigest}
	}

	if author == "" {
		author = r.AuthorName
	}
	tree := idx.EffectiveTree(headSnap)
	c := commit.New(message, author, ioutil.Now(), parents, tree)

	digest, err := c.Store(r.Objects)
	if err != nil {
		return "", err
	}
	r.Cache.StoreParents(digest, parents)

	if err := r.advanceCurrent(digest); err != nil {
		return "", err
	}

	idx.Clear()
	if err := idx.Save(); err != nil {
		return "", err
	}

	r.Logger.Info("created commit", zap.String("digest", digest.Short()), zap.String("message", message))
	return digest, nil
}
