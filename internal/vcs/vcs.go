// Package vcs wraps the git operations the resolver and cache need:
// syncing a checkout to a ref and listing remote tags.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// VCS defines the version control operations used by dependency resolution.
type VCS interface {
	// CloneOrUpdate ensures a checkout of remote exists at dir.
	// If dir is absent the repository is cloned (at ref when given).
	// If dir exists a best-effort fetch+checkout runs; failures are
	// swallowed and the existing checkout keeps being used.
	CloneOrUpdate(ctx context.Context, remote, ref, dir string) error

	// Tags returns all tag names from the remote repository.
	Tags(ctx context.Context, remote string) ([]string, error)
}

// gitVCS implements VCS using the git executable.
type gitVCS struct {
	git string
}

// GitOption configures gitVCS.
type GitOption func(*gitVCS)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *gitVCS) {
		g.git = path
	}
}

// NewGit creates a git-backed VCS.
func NewGit(opts ...GitOption) VCS {
	g := &gitVCS{git: "git"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gitVCS) CloneOrUpdate(ctx context.Context, remote, ref, dir string) error {
	if _, err := os.Stat(dir); err == nil {
		// Existing checkout: refresh, but never fail the resolution over it.
		if err := g.run(ctx, dir, "fetch", "--all"); err != nil {
			slog.Warn("git fetch failed, continuing with existing checkout", "dir", dir, "err", err)
			return nil
		}
		checkoutRef := ref
		if checkoutRef == "" {
			checkoutRef = g.defaultBranch(ctx, dir)
		}
		if err := g.run(ctx, dir, "checkout", checkoutRef); err != nil {
			slog.Warn("git checkout failed, continuing with existing checkout", "ref", checkoutRef, "err", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return err
	}
	args := []string{"clone", remote, dir}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	if err := g.run(ctx, "", args...); err != nil {
		return fmt.Errorf("clone %s: %w", remote, err)
	}
	return nil
}

// defaultBranch reports the checkout's remote HEAD branch, falling back to main.
func (g *gitVCS) defaultBranch(ctx context.Context, dir string) string {
	out, err := g.output(ctx, dir, "symbolic-ref", "refs/remotes/origin/HEAD", "--short")
	if err != nil {
		return "main"
	}
	_, branch, ok := strings.Cut(strings.TrimSpace(out), "/")
	if !ok {
		return "main"
	}
	return branch
}

func (g *gitVCS) Tags(ctx context.Context, remote string) ([]string, error) {
	output, err := g.output(ctx, "", "ls-remote", "--tags", "--refs", remote)
	if err != nil {
		return nil, fmt.Errorf("list remote tags: %w", err)
	}

	output = strings.TrimSpace(output)
	if output == "" {
		return nil, nil
	}

	var tags []string
	for _, line := range strings.Split(output, "\n") {
		// format: <hash>\trefs/tags/<tag>
		parts := strings.Split(line, "\t")
		if len(parts) == 2 {
			tags = append(tags, strings.TrimPrefix(parts[1], "refs/tags/"))
		}
	}
	return tags, nil
}

func (g *gitVCS) run(ctx context.Context, dir string, args ...string) error {
	_, err := g.output(ctx, dir, args...)
	return err
}

func (g *gitVCS) output(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.git, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s", msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
