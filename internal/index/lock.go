package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/errors"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
)

// Lock is an advisory single-writer lock over a repository's metadata
// directory, held for the duration of one mutating operation. It does not
// provide true mutual exclusion against processes that bypass it; it turns
// the "don't run two commands concurrently" convention into a detected,
// reported condition for cooperating callers.
type Lock struct {
	path  string
	token string
}

// Acquire creates <metaDir>/index.lock, failing with a Locked error if a
// lock file is already present.
func Acquire(metaDir string) (*Lock, error) {
	path := filepath.Join(metaDir, "index.lock")
	token := uuid.New().String()
	contents := fmt.Sprintf("%s\n%d\n%s\n", token, os.Getpid(), ioutil.Now())

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			holder, _ := os.ReadFile(path)
			return nil, errors.New(errors.Locked, "repository is locked by another operation: "+describeHolder(string(holder)))
		}
		return nil, errors.Wrap(errors.IOFailure, "creating lock", err)
	}
	defer f.Close()

	if _, err := f.WriteString(contents); err != nil {
		os.Remove(path)
		return nil, errors.Wrap(errors.IOFailure, "writing lock", err)
	}
	return &Lock{path: path, token: token}, nil
}

// Release removes the lock file. Safe to call once; a repeat call is a
// no-op.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.IOFailure, "releasing lock", err)
	}
	return nil
}

func describeHolder(contents string) string {
	lines := strings.SplitN(strings.TrimSpace(contents), "\n", 3)
	if len(lines) < 2 {
		return "unknown holder"
	}
	pid, err := strconv.Atoi(lines[1])
	if err != nil {
		return "unknown holder"
	}
	return fmt.Sprintf("pid %d", pid)
}
