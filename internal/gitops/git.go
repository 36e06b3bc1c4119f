// Package gitops drives the git executable for the clone and pull tools and
// reads the branch reflog used to verify a pull.
package gitops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Git runs git subcommands with a per-invocation timeout.
type Git struct {
	bin     string
	timeout time.Duration
	env     []string
}

// New returns a Git runner. A non-positive timeout means two minutes.
func New(timeout time.Duration) *Git {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Git{bin: "git", timeout: timeout, env: []string{"GIT_TERMINAL_PROMPT=0"}}
}

// Clone clones url into dir unless dir already exists. It reports whether a
// clone happened.
func (g *Git) Clone(ctx context.Context, url, dir string) (bool, error) {
	if _, err := os.Stat(dir); err == nil {
		slog.Info("Repository directory exists, skipping clone", "dir", dir)
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return false, fmt.Errorf("create parent of %s: %w", dir, err)
	}
	if _, err := g.run(ctx, "", "clone", url, dir); err != nil {
		return false, err
	}
	slog.Info("Repository cloned", "url", url, "dir", dir)
	return true, nil
}

// Pull pulls the current branch of the repository at dir and reports whether
// HEAD moved.
func (g *Git) Pull(ctx context.Context, dir string) (bool, error) {
	before, err := g.head(ctx, dir)
	if err != nil {
		return false, err
	}
	if _, err := g.run(ctx, dir, "pull", "--no-rebase", "--no-edit"); err != nil {
		return false, err
	}
	after, err := g.head(ctx, dir)
	if err != nil {
		return false, err
	}
	return before != after, nil
}

func (g *Git) head(ctx context.Context, dir string) (string, error) {
	out, err := g.run(ctx, dir, "rev-parse", "HEAD")
	return strings.TrimSpace(out), err
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, g.bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), g.env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cmdCtx.Err() != nil {
			return "", fmt.Errorf("git %s: timed out after %v", args[0], g.timeout)
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// BranchLog reads the reflog of one branch of a repository.
type BranchLog struct {
	RepoDir string
	// Branch defaults to the branch HEAD points at.
	Branch string
}

// Log returns the contents of .git/logs/refs/heads/<branch>.
func (l BranchLog) Log(_ context.Context) (string, error) {
	branch := l.Branch
	if branch == "" {
		b, err := currentBranch(l.RepoDir)
		if err != nil {
			return "", err
		}
		branch = b
	}

	data, err := os.ReadFile(filepath.Join(l.RepoDir, ".git", "logs", "refs", "heads", branch))
	if err != nil {
		return "", fmt.Errorf("read reflog of %s: %w", branch, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func currentBranch(repoDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(repoDir, ".git", "HEAD"))
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	ref, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "ref: refs/heads/")
	if !ok {
		return "", errors.New("HEAD is detached")
	}
	return ref, nil
}
