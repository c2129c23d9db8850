// Package watch adds an optional live-status mode on top of a Repository:
// it re-runs status() whenever the working tree changes instead of making
// status itself concurrent or stateful.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/logging"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/repo"
)

// StatusFunc is invoked once immediately and again after every filesystem
// change, until ctx is cancelled.
type StatusFunc func(*repo.StatusReport)

// Run watches r's working tree (skipping its metadata directory) and
// invokes onStatus with a fresh report on every change, until ctx is done.
func Run(ctx context.Context, r *repo.Repository, logger *logging.Logger, onStatus StatusFunc) error {
	if logger == nil {
		logger = logging.Nop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addDirs(watcher, r.WorkDir, r.MetaDirName); err != nil {
		return err
	}

	if report, err := r.Status(); err == nil {
		onStatus(report)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if strings.Contains(event.Name, string(filepath.Separator)+r.MetaDirName) {
				continue
			}
			report, err := r.Status()
			if err != nil {
				logger.Warn("status refresh failed", zap.Error(err))
				continue
			}
			onStatus(report)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}

// addDirs registers root and every subdirectory except metaDirName with
// watcher; fsnotify watches are per-directory, not recursive.
func addDirs(watcher *fsnotify.Watcher, root, metaDirName string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == metaDirName {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
