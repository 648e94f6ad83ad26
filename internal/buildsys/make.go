package buildsys

import (
	"context"
	"strconv"
)

// Make drives a plain Makefile project. Configure is a no-op; install uses
// the conventional PREFIX variable.
type Make struct {
	opts Options
}

var _ BuildSystem = (*Make)(nil)

func (m *Make) Configure(ctx context.Context, args ...string) error {
	return nil
}

func (m *Make) Build(ctx context.Context, args ...string) error {
	cmdArgs := []string{}
	if m.opts.Jobs > 0 {
		cmdArgs = append(cmdArgs, "-j", strconv.Itoa(m.opts.Jobs))
	}
	cmdArgs = append(cmdArgs, args...)
	return m.opts.run(ctx, m.opts.SourceDir, "make", cmdArgs...)
}

func (m *Make) Install(ctx context.Context, args ...string) error {
	cmdArgs := []string{"install", "PREFIX=" + m.opts.InstallDir}
	cmdArgs = append(cmdArgs, args...)
	return m.opts.run(ctx, m.opts.SourceDir, "make", cmdArgs...)
}

// Ninja drives a ninja build directory.
type Ninja struct {
	opts Options
}

var _ BuildSystem = (*Ninja)(nil)

func (n *Ninja) Configure(ctx context.Context, args ...string) error {
	return nil
}

func (n *Ninja) Build(ctx context.Context, args ...string) error {
	cmdArgs := []string{}
	if n.opts.Jobs > 0 {
		cmdArgs = append(cmdArgs, "-j", strconv.Itoa(n.opts.Jobs))
	}
	cmdArgs = append(cmdArgs, args...)
	return n.opts.run(ctx, n.opts.SourceDir, "ninja", cmdArgs...)
}

func (n *Ninja) Install(ctx context.Context, args ...string) error {
	cmdArgs := append([]string{"install"}, args...)
	return n.opts.run(ctx, n.opts.SourceDir, "ninja", cmdArgs...)
}
