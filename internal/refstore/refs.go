// Package refstore is the ref database: the plain-file HEAD pointer and
// refs/heads/<branch> files under the metadata directory. These files are
// the authoritative ref state and the on-disk compatibility boundary; the
// badger-backed Cache in this package is a derived, rebuildable accelerant
// and never the source of truth.
package refstore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/errors"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
)

const headRefPrefix = "ref: refs/heads/"

type HeadKind int

const (
	Symbolic HeadKind = iota
	Detached
	Unborn
)

// HeadState is the parsed contents of HEAD.
type HeadState struct {
	Kind   HeadKind
	Branch string        // set when Kind is Symbolic or Unborn
	Digest ioutil.Digest // set when Kind is Detached
}

// BranchRef is one refs/heads/<name> entry.
type BranchRef struct {
	Name   string
	Digest ioutil.Digest
}

// Store reads and writes the ref database under metaDir.
type Store struct {
	metaDir string
}

func New(metaDir string) *Store {
	return &Store{metaDir: metaDir}
}

func (s *Store) headPath() string          { return filepath.Join(s.metaDir, "HEAD") }
func (s *Store) branchPath(name string) string {
	return filepath.Join(s.metaDir, "refs", "heads", name)
}
func (s *Store) headsDir() string { return filepath.Join(s.metaDir, "refs", "heads") }

// ReadHead parses HEAD. A branch that HEAD points at but that does not yet
// exist (no commits) reports Kind == Unborn.
func (s *Store) ReadHead() (HeadState, error) {
	data, err := ioutil.ReadFile(s.headPath())
	if err != nil {
		if os.IsNotExist(err) {
			return HeadState{}, errors.New(errors.NotARepository, "HEAD not found")
		}
		return HeadState{}, errors.Wrap(errors.IOFailure, "reading HEAD", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if strings.HasPrefix(content, headRefPrefix) {
		branch := strings.TrimPrefix(content, headRefPrefix)
		if _, ok, err := s.ReadBranch(branch); err != nil {
			return HeadState{}, err
		} else if !ok {
			return HeadState{Kind: Unborn, Branch: branch}, nil
		}
		return HeadState{Kind: Symbolic, Branch: branch}, nil
	}
	if content == "" {
		return HeadState{}, errors.New(errors.Corruption, "HEAD is empty")
	}
	return HeadState{Kind: Detached, Digest: ioutil.Digest(content)}, nil
}

func (s *Store) WriteHeadSymbolic(branch string) error {
	if err := ioutil.WriteFile(s.headPath(), []byte(headRefPrefix+branch+"\n")); err != nil {
		return errors.Wrap(errors.IOFailure, "writing HEAD", err)
	}
	return nil
}

func (s *Store) WriteHeadDetached(digest ioutil.Digest) error {
	if err := ioutil.WriteFile(s.headPath(), []byte(string(digest)+"\n")); err != nil {
		return errors.Wrap(errors.IOFailure, "writing HEAD", err)
	}
	return nil
}

// ReadBranch returns the commit digest refs/heads/name points at, or
// ok == false if the branch does not exist.
func (s *Store) ReadBranch(name string) (ioutil.Digest, bool, error) {
	data, err := ioutil.ReadFile(s.branchPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrap(errors.IOFailure, "reading branch "+name, err)
	}
	return ioutil.Digest(strings.TrimSpace(string(data))), true, nil
}

func (s *Store) WriteBranch(name string, digest ioutil.Digest) error {
	if err := ioutil.WriteFile(s.branchPath(name), []byte(string(digest)+"\n")); err != nil {
		return errors.Wrap(errors.IOFailure, "writing branch "+name, err)
	}
	return nil
}

func (s *Store) DeleteBranch(name string) error {
	if err := os.Remove(s.branchPath(name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.IOFailure, "deleting branch "+name, err)
	}
	return nil
}

// ListBranches enumerates refs/heads/, sorted by name.
func (s *Store) ListBranches() ([]BranchRef, error) {
	entries, err := os.ReadDir(s.headsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.IOFailure, "listing branches", err)
	}

	refs := make([]BranchRef, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		digest, ok, err := s.ReadBranch(e.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			refs = append(refs, BranchRef{Name: e.Name(), Digest: digest})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}
