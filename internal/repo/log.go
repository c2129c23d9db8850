package repo

import (
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/commit"
)

// Log walks from HEAD following each commit's first parent, returning the
// visited commits from newest to oldest. A cycle (which the object store
// should never produce, but a corrupt repository might) stops the walk
// rather than looping forever.
func (r *Repository) Log() ([]*commit.Commit, error) {
	digest, ok, err := r.headDigest()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var history []*commit.Commit
	visited := map[string]bool{}

	for {
		if visited[string(digest)] {
			break
		}
		visited[string(digest)] = true

		c, err := commit.Load(r.Objects, digest)
		if err != nil {
			return nil, err
		}
		history = append(history, c)

		if len(c.Parents) == 0 {
			break
		}
		digest = c.Parents[0]
	}
	return history, nil
}
