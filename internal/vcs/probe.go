// Package vcs shells out to git to capture a best-effort snapshot of
// repository state for trace records and health checks. Every method
// degrades gracefully rather than erroring: a governance layer must never
// fail a write because the repository isn't a git checkout, or because git
// itself isn't installed.
package vcs

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/agentgate/agentgate/internal/models"
)

// Probe reads git state under root. The zero value is ready to use.
type Probe struct {
	Root string
}

// New returns a Probe rooted at root.
func New(root string) *Probe {
	return &Probe{Root: root}
}

func (p *Probe) run(args ...string) (string, error) {
	fullArgs := append([]string{"-C", p.Root}, args...)
	out, err := exec.Command("git", fullArgs...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Revision returns the snapshot spec.md's VcsProbe names: revision_id,
// branch, and dirty. Any individual piece that fails is simply omitted;
// only a totally unusable repo falls back to {revision_id: "unknown"}.
func (p *Probe) Revision() models.VCSSnapshot {
	rev, err := p.run("rev-parse", "--short", "HEAD")
	if err != nil {
		return models.VCSSnapshot{RevisionID: "unknown"}
	}

	snap := models.VCSSnapshot{RevisionID: rev}

	if branch, err := p.run("rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		snap.Branch = branch
	}

	if status, err := p.run("status", "--porcelain"); err == nil {
		dirty := status != ""
		snap.Dirty = &dirty
	}

	return snap
}

// IsRepo reports whether Root is inside a git working tree, used by
// health/doctor checks before they attempt anything finer-grained.
func (p *Probe) IsRepo() bool {
	_, err := p.run("rev-parse", "--is-inside-work-tree")
	return err == nil
}

// RemoteURL returns origin's URL, or "" if there is none. Kept for
// health/doctor reporting alongside Revision.
func (p *Probe) RemoteURL() string {
	url, err := p.run("remote", "get-url", "origin")
	if err != nil {
		return ""
	}
	return url
}

// LastCommitMessage returns HEAD's subject line, or "" on failure. Kept
// for health/doctor reporting.
func (p *Probe) LastCommitMessage() string {
	msg, err := p.run("log", "-1", "--format=%s")
	if err != nil {
		return ""
	}
	return msg
}
