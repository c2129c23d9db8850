package repo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/config"
	vcserrors "github.com/MiniGit-AAiT/MiniGit-AAiT/internal/errors"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/index"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/ioutil"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/logging"
	"github.com/MiniGit-AAiT/MiniGit-AAiT/internal/repo"
)

func initRepo(t *testing.T) (*repo.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	r, err := repo.Init(dir, config.Default(), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestBasicCommit(t *testing.T) {
	r, dir := initRepo(t)
	writeFile(t, dir, "a.txt", "hello")
	require.NoError(t, r.Add([]string{"a.txt"}))
	digest, err := r.Commit("first", "")
	require.NoError(t, err)
	require.NotEmpty(t, digest)

	history, err := r.Log()
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "first", history[0].Message)
	require.Empty(t, history[0].Parents)

	report, err := r.Status()
	require.NoError(t, err)
	require.Empty(t, report.ToBeCommitted)
	require.Empty(t, report.NotStaged)
	require.Empty(t, report.Untracked)
}

func TestSecondCommitAndLogOrder(t *testing.T) {
	r, dir := initRepo(t)
	writeFile(t, dir, "a.txt", "hello")
	require.NoError(t, r.Add([]string{"a.txt"}))
	first, err := r.Commit("first", "")
	require.NoError(t, err)

	writeFile(t, dir, "a.txt", "hello2")
	require.NoError(t, r.Add([]string{"a.txt"}))
	_, err = r.Commit("second", "")
	require.NoError(t, err)

	history, err := r.Log()
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "second", history[0].Message)
	require.Equal(t, "first", history[1].Message)
	require.Equal(t, []ioutil.Digest{first}, history[0].Parents)
}

func TestBranchAndDivergentCommits(t *testing.T) {
	r, dir := initRepo(t)
	writeFile(t, dir, "a.txt", "hello")
	require.NoError(t, r.Add([]string{"a.txt"}))
	_, err := r.Commit("first", "")
	require.NoError(t, err)

	require.NoError(t, r.Branch("feature"))
	require.NoError(t, r.Checkout("feature"))

	writeFile(t, dir, "b.txt", "B")
	require.NoError(t, r.Add([]string{"b.txt"}))
	_, err = r.Commit("on feature", "")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("master"))
	_, err = os.Stat(filepath.Join(dir, "b.txt"))
	require.True(t, os.IsNotExist(err))

	writeFile(t, dir, "c.txt", "C")
	require.NoError(t, r.Add([]string{"c.txt"}))
	_, err = r.Commit("on master", "")
	require.NoError(t, err)

	branches, detached, err := r.ListBranches()
	require.NoError(t, err)
	require.Nil(t, detached)
	require.Len(t, branches, 2)
}

func TestFastForwardMerge(t *testing.T) {
	r, dir := initRepo(t)
	writeFile(t, dir, "x.txt", "1")
	require.NoError(t, r.Add([]string{"x.txt"}))
	_, err := r.Commit("base", "")
	require.NoError(t, err)

	require.NoError(t, r.Branch("topic"))
	require.NoError(t, r.Checkout("topic"))
	writeFile(t, dir, "x.txt", "2")
	require.NoError(t, r.Add([]string{"x.txt"}))
	topicTip, err := r.Commit("on topic", "")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("master"))
	result, err := r.Merge("topic")
	require.NoError(t, err)
	require.Equal(t, repo.MergeFastForward, result.Outcome)
	require.Equal(t, topicTip, result.Commit)

	content, err := os.ReadFile(filepath.Join(dir, "x.txt"))
	require.NoError(t, err)
	require.Equal(t, "2", string(content))
}

func TestCleanThreeWayMerge(t *testing.T) {
	r, dir := initRepo(t)
	writeFile(t, dir, "a.txt", "hello")
	require.NoError(t, r.Add([]string{"a.txt"}))
	_, err := r.Commit("first", "")
	require.NoError(t, err)

	require.NoError(t, r.Branch("feature"))
	require.NoError(t, r.Checkout("feature"))
	writeFile(t, dir, "b.txt", "B")
	require.NoError(t, r.Add([]string{"b.txt"}))
	_, err = r.Commit("on feature", "")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("master"))
	writeFile(t, dir, "c.txt", "C")
	require.NoError(t, r.Add([]string{"c.txt"}))
	_, err = r.Commit("on master", "")
	require.NoError(t, err)

	result, err := r.Merge("feature")
	require.NoError(t, err)
	require.Equal(t, repo.MergeCommitted, result.Outcome)

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
	}

	history, err := r.Log()
	require.NoError(t, err)
	require.Len(t, history[0].Parents, 2)
}

func TestConflictMerge(t *testing.T) {
	r, dir := initRepo(t)
	writeFile(t, dir, "f.txt", "base")
	require.NoError(t, r.Add([]string{"f.txt"}))
	_, err := r.Commit("base", "")
	require.NoError(t, err)

	require.NoError(t, r.Branch("other"))

	writeFile(t, dir, "f.txt", "mine")
	require.NoError(t, r.Add([]string{"f.txt"}))
	_, err = r.Commit("mine", "")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("other"))
	writeFile(t, dir, "f.txt", "theirs")
	require.NoError(t, r.Add([]string{"f.txt"}))
	_, err = r.Commit("theirs", "")
	require.NoError(t, err)

	require.NoError(t, r.Checkout("master"))
	_, err = r.Merge("other")
	require.Error(t, err)
	require.True(t, vcserrors.Is(err, vcserrors.MergeConflict))

	content, err := os.ReadFile(filepath.Join(dir, "f.txt"))
	require.NoError(t, err)
	require.Contains(t, string(content), "<<<<<<< HEAD")
	require.Contains(t, string(content), "mine")
	require.Contains(t, string(content), "theirs")
	require.Contains(t, string(content), ">>>>>>> other")
}

func TestLockedRepositoryRejectsConcurrentOperation(t *testing.T) {
	r, _ := initRepo(t)

	lock, err := index.Acquire(r.MetaDir)
	require.NoError(t, err)

	_, err = r.Commit("should fail", "")
	require.Error(t, err)
	require.True(t, vcserrors.Is(err, vcserrors.Locked))

	require.NoError(t, lock.Release())
}
