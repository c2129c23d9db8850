package repo

import (
	"go.uber.org/zap"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/commit"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/errors"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/index"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
)

// Checkout switches the working tree to ref, which may name a branch or a
// raw commit digest. It refuses to proceed over unstaged local changes.
func (r *Repository) Checkout(ref string) error {
	lock, err := index.Acquire(r.MetaDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	idx, err := r.loadIndex()
	if err != nil {
		return err
	}
	headSnap, err := r.headSnapshot()
	if err != nil {
		return err
	}
	if dirty, err := r.hasUnstagedChanges(idx, headSnap); err != nil {
		return err
	} else if dirty {
		return errors.New(errors.DirtyWorkingTree, "cannot checkout: unstaged changes present")
	}

	var targetDigest ioutil.Digest
	var becomeSymbolic bool

	if d, ok, err := r.Refs.ReadBranch(ref); err != nil {
		return err
	} else if ok {
		targetDigest = d
		becomeSymbolic = true
	} else if r.Objects.Exists(ioutil.Digest(ref)) {
		targetDigest = ioutil.Digest(ref)
		becomeSymbolic = false
	} else {
		return errors.New(errors.NotFound, "no such branch or commit: "+ref)
	}

	target, err := commit.Load(r.Objects, targetDigest)
	if err != nil {
		return err
	}

	if err := r.materializeTree(target.Snapshot); err != nil {
		return err
	}

	if becomeSymbolic {
		if err := r.Refs.WriteHeadSymbolic(ref); err != nil {
			return err
		}
	} else {
		if err := r.Refs.WriteHeadDetached(targetDigest); err != nil {
			return err
		}
	}

	idx.Clear()
	if err := idx.Save(); err != nil {
		return err
	}

	r.Logger.Info("checked out", zap.String("ref", ref), zap.Bool("detached", !becomeSymbolic))
	return nil
}
