// Package git wraps the handful of git operations orc needs for room
// worktrees.
package git

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		op := strings.Join(args, " ")
		if stderr.Len() > 0 {
			return "", fmt.Errorf("git %s failed: %s", op, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %s failed: %w", op, err)
	}
	return string(out), nil
}

// AddWorktree creates a worktree at path on a new branch forked from
// HEAD. The branch name is validated by git itself.
func AddWorktree(repoRoot, path, branch string) error {
	if err := validateBranchName(repoRoot, branch); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("worktree path already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("check worktree path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create worktree parent directory: %w", err)
	}
	if _, err := runGit(repoRoot, "worktree", "add", path, "-b", branch, "HEAD"); err != nil {
		return err
	}
	return nil
}

// RemoveWorktree discards a worktree, uncommitted changes included.
// Missing worktrees are not an error; the room may never have had one
// checked out.
func RemoveWorktree(repoRoot, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if _, err := runGit(repoRoot, "worktree", "remove", path, "--force"); err != nil {
		return err
	}
	return nil
}

func validateBranchName(repoRoot, branch string) error {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return fmt.Errorf("branch name is required")
	}
	if _, err := runGit(repoRoot, "check-ref-format", "--branch", branch); err != nil {
		return fmt.Errorf("invalid branch name %q: %w", branch, err)
	}
	return nil
}
