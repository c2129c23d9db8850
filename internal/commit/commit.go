// Package commit implements the commit object: its canonical serialization,
// digest computation, and storage/loading through the object store. Commits
// are plain value records keyed by digest; parents are held as digests, not
// pointers, so traversal always goes back through the object store.
package commit

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/errors"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/objstore"
)

// Commit is an immutable record: a message, author, timestamp, parent
// digests, and the full path->blob tree it snapshots.
type Commit struct {
	Digest    ioutil.Digest // empty until Store or Load
	Message   string
	Author    string
	Timestamp string
	Parents   []ioutil.Digest
	Snapshot  map[string]ioutil.Digest
}

// New builds an unstored commit. author defaults to "Anonymous" when empty.
func New(message, author, timestamp string, parents []ioutil.Digest, snapshot map[string]ioutil.Digest) *Commit {
	if author == "" {
		author = "Anonymous"
	}
	if snapshot == nil {
		snapshot = map[string]ioutil.Digest{}
	}
	return &Commit{
		Message:   message,
		Author:    author,
		Timestamp: timestamp,
		Parents:   parents,
		Snapshot:  snapshot,
	}
}

// Serialize renders the canonical text form the digest is computed over.
// Snapshot paths are emitted in sorted order so identical commits always
// produce byte-identical output regardless of map iteration order.
func (c *Commit) Serialize() []byte {
	var buf bytes.Buffer
	buf.WriteString(c.Message)
	buf.WriteByte('\n')
	buf.WriteString(c.Author)
	buf.WriteByte('\n')
	buf.WriteString(c.Timestamp)
	buf.WriteByte('\n')

	parentStrs := make([]string, len(c.Parents))
	for i, p := range c.Parents {
		parentStrs[i] = string(p)
	}
	buf.WriteString(strings.Join(parentStrs, " "))
	buf.WriteByte('\n')

	paths := make([]string, 0, len(c.Snapshot))
	for p := range c.Snapshot {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		buf.WriteString(p)
		buf.WriteByte(' ')
		buf.WriteString(string(c.Snapshot[p]))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Parse reads a commit back from its canonical serialization. Parsing is
// strict on the first four lines; every remaining non-empty line is split
// on the first space into (path, blob digest).
func Parse(data []byte) (*Commit, error) {
	lines := strings.Split(string(data), "\n")
	if len(lines) < 4 {
		return nil, errors.New(errors.Corruption, "commit record has fewer than 4 lines")
	}

	c := &Commit{
		Message:   lines[0],
		Author:    lines[1],
		Timestamp: lines[2],
		Snapshot:  map[string]ioutil.Digest{},
	}

	if lines[3] != "" {
		for _, p := range strings.Split(lines[3], " ") {
			if p == "" {
				continue
			}
			c.Parents = append(c.Parents, ioutil.Digest(p))
		}
	}

	for _, line := range lines[4:] {
		if line == "" {
			continue
		}
		idx := strings.IndexByte(line, ' ')
		if idx < 0 {
			continue
		}
		path := line[:idx]
		digest := line[idx+1:]
		if path == "" || digest == "" {
			continue
		}
		c.Snapshot[path] = ioutil.Digest(digest)
	}
	return c, nil
}

// Store serializes c, computes its digest over the full canonical bytes
// (message, author, timestamp, parents and snapshot together — not the
// message+author+timestamp shortcut some earlier implementations took),
// writes it to store, and sets c.Digest.
func (c *Commit) Store(store *objstore.Store) (ioutil.Digest, error) {
	data := c.Serialize()
	digest, err := store.Put(data)
	if err != nil {
		return "", fmt.Errorf("storing commit: %w", err)
	}
	c.Digest = digest
	return digest, nil
}

// Load fetches and parses the commit at digest.
func Load(store *objstore.Store, digest ioutil.Digest) (*Commit, error) {
	data, err := store.Get(digest)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", digest.Short(), err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing commit %s: %w", digest.Short(), err)
	}
	c.Digest = digest
	return c, nil
}
