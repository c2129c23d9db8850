package repo

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/errors"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/index"
)

// Add stages each of paths: reads the file, stores its blob, and records
// it in the index. Paths are resolved against the working directory.
func (r *Repository) Add(paths []string) error {
	lock, err := index.Acquire(r.MetaDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	idx, err := r.loadIndex()
	if err != nil {
		return err
	}

	for _, p := range paths {
		full := filepath.Join(r.WorkDir, p)
		info, err := os.Stat(full)
		if err != nil {
			if os.IsNotExist(err) {
				return errors.New(errors.NotFound, "no such file: "+p)
			}
			return errors.Wrap(errors.IOFailure, "stating "+p, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		data, err := os.ReadFile(full)
		if err != nil {
			return errors.Wrap(errors.IOFailure, "reading "+p, err)
		}
		digest, err := r.Objects.Put(data)
		if err != nil {
			return err
		}
		idx.Add(filepath.ToSlash(p), digest)
		r.Logger.Info("staged file", zap.String("path", p), zap.String("digest", digest.Short()))
	}

	return idx.Save()
}

// Remove unstages path and marks it for deletion on the next commit.
func (r *Repository) Remove(path string) error {
	lock, err := index.Acquire(r.MetaDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	idx, err := r.loadIndex()
	if err != nil {
		return err
	}
	idx.Remove(filepath.ToSlash(path))
	if err := idx.Save(); err != nil {
		return err
	}
	r.Logger.Info("marked for removal", zap.String("path", path))
	return nil
}
