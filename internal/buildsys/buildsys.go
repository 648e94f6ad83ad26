// Package buildsys drives the external build systems used to compile
// dependencies into their install trees.
package buildsys

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/cxxnode/cxxnode/internal/config"
)

// BuildSystem captures the shared lifecycle of the build helpers.
// Implementations configure, build, and install into an install prefix.
type BuildSystem interface {
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error
}

// Options are shared settings for every build system.
type Options struct {
	SourceDir  string
	BuildDir   string
	InstallDir string
	Profile    string // debug or release
	Jobs       int    // 0 means the tool's default

	// Env entries are passed to the spawned process on top of the ambient
	// environment. The ambient environment of this process is never mutated.
	Env map[string]string

	// Runner is injectable for tests; nil runs the real command.
	Runner Runner
}

// Runner executes an external command in dir with extra env entries.
type Runner func(ctx context.Context, dir string, env map[string]string, name string, args ...string) error

// New returns the build system implementation for a declared kind.
func New(kind config.BuildSystem, opts Options) (BuildSystem, error) {
	switch kind {
	case config.BuildSystemCMake:
		return NewCMake(opts), nil
	case config.BuildSystemMake:
		return &Make{opts: opts}, nil
	case config.BuildSystemNinja:
		return &Ninja{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported build system: %s", kind)
	}
}

// run executes a command with opts.Runner or the default process spawn.
func (o *Options) run(ctx context.Context, dir, name string, args ...string) error {
	if o.Runner != nil {
		return o.Runner(ctx, dir, o.Env, name, args...)
	}
	slog.Debug("exec", "cmd", name+" "+strings.Join(args, " "), "dir", dir)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = mergeEnv(os.Environ(), o.Env)
	return cmd.Run()
}

// mergeEnv overlays override entries on a base environment, returning a
// sorted KEY=VALUE list.
func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

// buildType maps a profile to the CMake-style build type name.
func buildType(profile string) string {
	if profile == "release" {
		return "Release"
	}
	return "Debug"
}
