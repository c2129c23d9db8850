package repo

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/commit"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/errors"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/index"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
)

// MergeOutcome distinguishes the three ways Merge can conclude.
type MergeOutcome int

const (
	MergeUpToDate MergeOutcome = iota
	MergeFastForward
	MergeCommitted
)

// MergeResult reports what Merge did.
type MergeResult struct {
	Outcome MergeOutcome
	Commit  ioutil.Digest // set for MergeFastForward (new tip) and MergeCommitted
}

// Merge merges otherBranch into the current branch.
func (r *Repository) Merge(otherBranch string) (*MergeResult, error) {
	lock, err := index.Acquire(r.MetaDir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	currentBranch, symbolic, err := r.currentBranchName()
	if err != nil {
		return nil, err
	}
	if !symbolic {
		return nil, errors.New(errors.DirtyWorkingTree, "cannot merge with a detached HEAD")
	}

	idx, err := r.loadIndex()
	if err != nil {
		return nil, err
	}
	headSnap, err := r.headSnapshot()
	if err != nil {
		return nil, err
	}
	if dirty, err := r.hasUnstagedChanges(idx, headSnap); err != nil {
		return nil, err
	} else if dirty {
		return nil, errors.New(errors.DirtyWorkingTree, "cannot merge: unstaged changes present")
	}

	currentDigest, hasCurrent, err := r.headDigest()
	if err != nil {
		return nil, err
	}
	if !hasCurrent {
		return nil, errors.New(errors.UnbornBranch, "cannot merge: no commits on current branch")
	}
	otherDigest, ok, err := r.Refs.ReadBranch(otherBranch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(errors.NotFound, "no such branch: "+otherBranch)
	}

	parentsOf := r.parentsFunc()

	if otherIsAncestor, err := commit.IsAncestor(parentsOf, otherDigest, currentDigest); err != nil {
		return nil, err
	} else if otherIsAncestor {
		return &MergeResult{Outcome: MergeUpToDate}, nil
	}

	if currentIsAncestor, err := commit.IsAncestor(parentsOf, currentDigest, otherDigest); err != nil {
		return nil, err
	} else if currentIsAncestor {
		other, err := commit.Load(r.Objects, otherDigest)
		if err != nil {
			return nil, err
		}
		if err := r.materializeTree(other.Snapshot); err != nil {
			return nil, err
		}
		if err := r.Refs.WriteBranch(currentBranch, otherDigest); err != nil {
			return nil, err
		}
		r.Cache.SetBranch(currentBranch, otherDigest)
		idx.Clear()
		if err := idx.Save(); err != nil {
			return nil, err
		}
		r.Logger.Info("fast-forward merge", zap.String("branch", currentBranch), zap.String("to", otherDigest.Short()))
		return &MergeResult{Outcome: MergeFastForward, Commit: otherDigest}, nil
	}

	lcaDigest, found, err := commit.LCA(parentsOf, currentDigest, otherDigest)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New(errors.Corruption, "no common ancestor between branches")
	}

	lcaCommit, err := commit.Load(r.Objects, lcaDigest)
	if err != nil {
		return nil, err
	}
	currentCommit, err := commit.Load(r.Objects, currentDigest)
	if err != nil {
		return nil, err
	}
	otherCommit, err := commit.Load(r.Objects, otherDigest)
	if err != nil {
		return nil, err
	}

	merged, conflicts := reconcile(lcaCommit.Snapshot, currentCommit.Snapshot, otherCommit.Snapshot)

	if len(conflicts) > 0 {
		if err := r.writeConflictMarkers(conflicts, currentCommit.Snapshot, otherCommit.Snapshot, otherBranch); err != nil {
			return nil, err
		}
		r.Logger.Warn("merge conflict", zap.Strings("paths", conflicts))
		return nil, errors.New(errors.MergeConflict, fmt.Sprintf("conflicts in %d path(s)", len(conflicts)))
	}

	mergeCommit := commit.New(
		fmt.Sprintf("Merge branch '%s' into %s", otherBranch, currentBranch),
		r.AuthorName,
		ioutil.Now(),
		[]ioutil.Digest{currentDigest, otherDigest},
		merged,
	)
	digest, err := mergeCommit.Store(r.Objects)
	if err != nil {
		return nil, err
	}
	r.Cache.StoreParents(digest, mergeCommit.Parents)

	if err := r.Refs.WriteBranch(currentBranch, digest); err != nil {
		return nil, err
	}
	r.Cache.SetBranch(currentBranch, digest)

	if err := r.materializeTree(merged); err != nil {
		return nil, err
	}

	idx.Clear()
	for path, d := range merged {
		idx.Staged[path] = d
	}
	if err := idx.Save(); err != nil {
		return nil, err
	}

	r.Logger.Info("merge commit created", zap.String("digest", digest.Short()))
	return &MergeResult{Outcome: MergeCommitted, Commit: digest}, nil
}

// reconcile applies §4.5's three-way reconciliation table over the union of
// paths appearing in any of the three snapshots.
func reconcile(base, current, other map[string]ioutil.Digest) (merged map[string]ioutil.Digest, conflicts []string) {
	merged = map[string]ioutil.Digest{}
	paths := map[string]bool{}
	for p := range base {
		paths[p] = true
	}
	for p := range current {
		paths[p] = true
	}
	for p := range other {
		paths[p] = true
	}

	for p := range paths {
		l, c, o := base[p], current[p], other[p]

		switch {
		case c == o:
			if c != "" {
				merged[p] = c
			}
		case l == c && o != c:
			if o != "" {
				merged[p] = o
			}
		case l == o && c != o:
			if c != "" {
				merged[p] = c
			}
		default:
			conflicts = append(conflicts, p)
		}
	}
	return merged, conflicts
}

func (r *Repository) writeConflictMarkers(paths []string, current, other map[string]ioutil.Digest, otherBranch string) error {
	for _, p := range paths {
		currentContent, err := r.blobOrEmpty(current[p])
		if err != nil {
			return err
		}
		otherContent, err := r.blobOrEmpty(other[p])
		if err != nil {
			return err
		}

		marker := fmt.Sprintf("<<<<<<< HEAD\n%s=======\n%s>>>>>>> %s\n",
			withTrailingNewline(currentContent), withTrailingNewline(otherContent), otherBranch)

		if err := ioutil.WriteFile(filepath.Join(r.WorkDir, p), []byte(marker)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) blobOrEmpty(digest ioutil.Digest) ([]byte, error) {
	if digest == "" {
		return nil, nil
	}
	return r.Objects.Get(digest)
}

func withTrailingNewline(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	s := string(content)
	if s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
