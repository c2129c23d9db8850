// Package index implements the staging area: the mutable intent set for
// the next commit, persisted as a flat line-oriented file.
package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/errors"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
)

// Index buffers path->blob-digest additions/modifications (Staged) and
// paths marked for deletion (Removed). Paths are relative to the working
// directory; the index file itself lives at the path given to New or Load.
type Index struct {
	Staged  map[string]ioutil.Digest
	Removed map[string]bool
	path    string
}

// New returns an empty index that will persist to path.
func New(path string) *Index {
	return &Index{
		Staged:  map[string]ioutil.Digest{},
		Removed: map[string]bool{},
		path:    path,
	}
}

// Load reads the index file at path. A missing file yields an empty index.
func Load(path string) (*Index, error) {
	idx := New(path)

	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, errors.Wrap(errors.IOFailure, "reading index", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 3)
		switch fields[0] {
		case "staged":
			if len(fields) != 3 {
				continue
			}
			idx.Staged[fields[2]] = ioutil.Digest(fields[1])
		case "removed":
			if len(fields) < 2 {
				continue
			}
			idx.Removed[fields[1]] = true
		}
	}
	return idx, nil
}

// Save persists the index to its path.
func (idx *Index) Save() error {
	var buf strings.Builder

	paths := make([]string, 0, len(idx.Staged))
	for p := range idx.Staged {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(&buf, "staged %s %s\n", idx.Staged[p], p)
	}

	removed := make([]string, 0, len(idx.Removed))
	for p := range idx.Removed {
		removed = append(removed, p)
	}
	sort.Strings(removed)
	for _, p := range removed {
		fmt.Fprintf(&buf, "removed %s\n", p)
	}

	if err := ioutil.WriteFile(idx.path, []byte(buf.String())); err != nil {
		return errors.Wrap(errors.IOFailure, "writing index", err)
	}
	return nil
}

// Add stages path at digest, clearing any pending removal.
func (idx *Index) Add(path string, digest ioutil.Digest) {
	idx.Staged[path] = digest
	delete(idx.Removed, path)
}

// Remove unstages path and marks it for deletion on the next commit.
func (idx *Index) Remove(path string) {
	delete(idx.Staged, path)
	idx.Removed[path] = true
}

// Clear empties both the staged and removed sets.
func (idx *Index) Clear() {
	idx.Staged = map[string]ioutil.Digest{}
	idx.Removed = map[string]bool{}
}

// IsEmpty reports whether there is nothing staged for the next commit.
func (idx *Index) IsEmpty() bool {
	return len(idx.Staged) == 0 && len(idx.Removed) == 0
}

// EffectiveTree overlays Staged onto headSnapshot and deletes Removed
// entries, yielding the tree the next commit would snapshot.
func (idx *Index) EffectiveTree(headSnapshot map[string]ioutil.Digest) map[string]ioutil.Digest {
	tree := make(map[string]ioutil.Digest, len(headSnapshot)+len(idx.Staged))
	for p, d := range headSnapshot {
		tree[p] = d
	}
	for p, d := range idx.Staged {
		tree[p] = d
	}
	for p := range idx.Removed {
		delete(tree, p)
	}
	return tree
}

// ScanWorkingTree walks workDir and returns path (POSIX-style, relative) ->
// content digest for every regular file, excluding the metadata directory
// and the ignore file.
func ScanWorkingTree(workDir, metaDirName, ignoreFileName string) (map[string]ioutil.Digest, error) {
	tree := map[string]ioutil.Digest{}

	err := filepath.WalkDir(workDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(workDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		top := strings.SplitN(rel, string(filepath.Separator), 2)[0]
		if top == metaDirName {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if rel == ignoreFileName {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := ioutil.ReadFile(p)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = ioutil.Sum(data)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.IOFailure, "scanning working tree", err)
	}
	return tree, nil
}

// HasUnstagedChanges implements §4.4's three-part dirty-tree check, scoped
// to the working tree excluding the metadata directory and the ignore
// file.
func HasUnstagedChanges(workDir, metaDirName, ignoreFileName string, idx *Index, headSnapshot map[string]ioutil.Digest) (bool, error) {
	working, err := ScanWorkingTree(workDir, metaDirName, ignoreFileName)
	if err != nil {
		return false, err
	}

	for path, headDigest := range headSnapshot {
		wdDigest, present := working[path]
		if !present {
			if !idx.Removed[path] {
				return true, nil
			}
			continue
		}
		if wdDigest != headDigest {
			if staged, ok := idx.Staged[path]; !ok || staged != wdDigest {
				return true, nil
			}
		}
	}

	for path := range working {
		if _, inHead := headSnapshot[path]; inHead {
			continue
		}
		if _, inStaged := idx.Staged[path]; !inStaged {
			return true, nil
		}
	}

	return false, nil
}
