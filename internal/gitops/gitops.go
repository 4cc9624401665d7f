// Package gitops commits changes of a budget data repository with git.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Init initializes a new git repository at dir.
func Init(dir string) error {
	cmd := exec.Command("git", "init")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Committer commits everything under Dir as Name <Email>.
type Committer struct {
	Dir   string
	Name  string
	Email string
}

// Commit stages all files and creates a commit, returning the short hash.
// A clean working tree is not an error; the returned hash is then empty.
func (c Committer) Commit(message string) (string, error) {
	add := c.git("add", "-A")
	if out, err := add.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	status := c.git("status", "--porcelain")
	out, err := status.Output()
	if err != nil {
		return "", fmt.Errorf("git status: %w", err)
	}
	if len(strings.TrimSpace(string(out))) == 0 {
		return "", nil
	}

	commit := c.git("commit", "-m", message)
	if out, err := commit.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	rev := c.git("rev-parse", "--short", "HEAD")
	out, err = rev.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// git prepares a git command in Dir with both author and committer set, so
// commits work without a global git identity.
func (c Committer) git(args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+c.Name,
		"GIT_AUTHOR_EMAIL="+c.Email,
		"GIT_COMMITTER_NAME="+c.Name,
		"GIT_COMMITTER_EMAIL="+c.Email,
	)
	return cmd
}
