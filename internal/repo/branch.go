package repo

import (
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/errors"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/index"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/refstore"
)

// BranchInfo is one entry in ListBranches' report.
type BranchInfo struct {
	Name     string
	Digest   ioutil.Digest
	Active   bool
	Detached bool // never set by ListBranches, which reports a detached HEAD through its second return value
}

func validateBranchName(name string) error {
	if name == "" {
		return errors.New(errors.InvalidName, "branch name must not be empty")
	}
	if strings.Contains(name, "/") || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return errors.New(errors.InvalidName, "branch name must not contain whitespace or '/'")
	}
	return nil
}

// Branch creates refs/heads/<name> pointing at HEAD's current commit.
func (r *Repository) Branch(name string) error {
	if err := validateBranchName(name); err != nil {
		return err
	}

	lock, err := index.Acquire(r.MetaDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	digest, ok, err := r.headDigest()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.UnbornBranch, "cannot branch: no commits yet")
	}

	if _, exists, err := r.Refs.ReadBranch(name); err != nil {
		return err
	} else if exists {
		return errors.New(errors.InvalidName, "branch already exists: "+name)
	}

	if err := r.Refs.WriteBranch(name, digest); err != nil {
		return err
	}
	r.Cache.SetBranch(name, digest)
	r.Logger.Info("created branch", zap.String("branch", name), zap.String("digest", digest.Short()))
	return nil
}

// ListBranches enumerates refs/heads/, marking the active branch. If HEAD
// is detached, it's reported via the second return value instead of
// appearing in the slice.
func (r *Repository) ListBranches() ([]BranchInfo, *ioutil.Digest, error) {
	refs, err := r.Refs.ListBranches()
	if err != nil {
		return nil, nil, err
	}

	head, err := r.Refs.ReadHead()
	if err != nil {
		return nil, nil, err
	}

	infos := make([]BranchInfo, 0, len(refs))
	for _, ref := range refs {
		infos = append(infos, BranchInfo{
			Name:   ref.Name,
			Digest: ref.Digest,
			Active: head.Kind != refstore.Detached && ref.Name == head.Branch,
		})
	}

	if head.Kind == refstore.Detached {
		d := head.Digest
		return infos, &d, nil
	}
	return infos, nil, nil
}
