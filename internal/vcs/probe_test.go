package vcs

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test.dev",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test.dev",
		)
		require.NoError(t, cmd.Run())
	}
	run("init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return dir
}

func TestRevision_CleanRepoReportsDirtyFalse(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := initRepo(t)
	p := New(dir)

	snap := p.Revision()
	assert.NotEmpty(t, snap.RevisionID)
	assert.NotEqual(t, "unknown", snap.RevisionID)
	require.NotNil(t, snap.Dirty)
	assert.False(t, *snap.Dirty)
}

func TestRevision_DirtyWorkingTreeReportsDirtyTrue(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("y"), 0o644))
	p := New(dir)

	snap := p.Revision()
	require.NotNil(t, snap.Dirty)
	assert.True(t, *snap.Dirty)
}

func TestRevision_NonRepoFallsBackToUnknown(t *testing.T) {
	dir := t.TempDir()
	p := New(dir)

	snap := p.Revision()
	assert.Equal(t, "unknown", snap.RevisionID)
	assert.Nil(t, snap.Dirty)
}

func TestIsRepo_FalseOutsideWorkingTree(t *testing.T) {
	dir := t.TempDir()
	p := New(dir)
	assert.False(t, p.IsRepo())
}

func TestRemoteURL_EmptyWhenNoRemote(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := initRepo(t)
	p := New(dir)
	assert.Empty(t, p.RemoteURL())
}
