package buildsys

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// CMake wraps the configure/build/install steps of a CMake project with
// chainable extra defines.
type CMake struct {
	opts    Options
	defines map[string]string
}

var _ BuildSystem = (*CMake)(nil)

// NewCMake creates a CMake helper for opts.
func NewCMake(opts Options) *CMake {
	if opts.BuildDir == "" {
		opts.BuildDir = filepath.Join(opts.SourceDir, "build")
	}
	return &CMake{opts: opts, defines: map[string]string{}}
}

// Define adds a -D cache entry for the configure step.
func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = value
	return c
}

func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(c.opts.BuildDir, 0o755); err != nil {
		return err
	}
	cmakeArgs := []string{"-S", c.opts.SourceDir, "-B", c.opts.BuildDir}
	c.Define("CMAKE_BUILD_TYPE", buildType(c.opts.Profile))
	if c.opts.InstallDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", c.opts.InstallDir)
	}
	cmakeArgs = append(cmakeArgs, c.defineArgs()...)
	cmakeArgs = append(cmakeArgs, args...)
	return c.opts.run(ctx, "", "cmake", cmakeArgs...)
}

func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--build", c.opts.BuildDir, "--config", buildType(c.opts.Profile)}
	if c.opts.Jobs > 0 {
		cmdArgs = append(cmdArgs, "--parallel", strconv.Itoa(c.opts.Jobs))
	}
	cmdArgs = append(cmdArgs, args...)
	return c.opts.run(ctx, "", "cmake", cmdArgs...)
}

func (c *CMake) Install(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--install", c.opts.BuildDir, "--config", buildType(c.opts.Profile)}
	if c.opts.InstallDir != "" {
		cmdArgs = append(cmdArgs, "--prefix", c.opts.InstallDir)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.opts.run(ctx, "", "cmake", cmdArgs...)
}

func (c *CMake) defineArgs() []string {
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, fmt.Sprintf("-D%s=%s", k, c.defines[k]))
	}
	return args
}
