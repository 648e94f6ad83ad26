package deps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cxxnode/cxxnode/internal/config"
)

// PkgConfig abstracts the pkg-config probe so tests can fake the host.
type PkgConfig interface {
	// Exists reports whether the package id is known to pkg-config.
	// The error is non-nil when pkg-config itself is unavailable.
	Exists(ctx context.Context, id string) (bool, error)

	// Flags returns the raw --cflags-only-I and --libs output fields.
	Flags(ctx context.Context, id string) (cflags, libs []string, err error)
}

type execPkgConfig struct{}

func (execPkgConfig) Exists(ctx context.Context, id string) (bool, error) {
	cmd := exec.CommandContext(ctx, "pkg-config", "--exists", id)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// pkg-config ran but does not know the package.
		return false, nil
	}
	return false, err
}

func (execPkgConfig) Flags(ctx context.Context, id string) ([]string, []string, error) {
	cflagsOut, err := exec.CommandContext(ctx, "pkg-config", "--cflags-only-I", id).Output()
	if err != nil {
		return nil, nil, err
	}
	libsOut, err := exec.CommandContext(ctx, "pkg-config", "--libs", id).Output()
	if err != nil {
		return nil, nil, err
	}
	return strings.Fields(string(cflagsOut)), strings.Fields(string(libsOut)), nil
}

// resolveSystem probes the host for an installed dependency. pkg-config is
// authoritative when available; otherwise the platform library directories
// are scanned. Fatal only when neither method finds anything.
func (m *Manager) resolveSystem(ctx context.Context, name string, dep *config.SystemDependency) (Resolved, error) {
	res := Resolved{
		Name: name,
		// System installs have no meaningful source/install split.
		SourceDir:  systemRoot(m.opts.GOOS),
		InstallDir: systemRoot(m.opts.GOOS),
	}

	if dep.PkgConfig != "" {
		found, err := m.opts.PkgConfig.Exists(ctx, dep.PkgConfig)
		if err != nil {
			slog.Warn("pkg-config unavailable, falling back to filesystem probe", "err", err)
		} else if found {
			slog.Info("found system package via pkg-config", "id", dep.PkgConfig)
			m.harvestPkgConfig(ctx, dep.PkgConfig, &res)
			m.applySystemOverrides(dep, &res)
			return res, nil
		} else {
			slog.Warn("pkg-config does not know package, falling back to filesystem probe", "id", dep.PkgConfig)
		}
	}

	libraries := dep.Libraries
	if len(libraries) == 0 {
		libraries = []string{dep.Name}
	}
	var found, missing []string
	for _, lib := range libraries {
		if m.findSystemLibrary(lib) {
			found = append(found, lib)
		} else {
			missing = append(missing, lib)
		}
	}
	if len(found) == 0 {
		return Resolved{}, fmt.Errorf("system dependency %s: no libraries found (looked for %s)",
			name, strings.Join(libraries, ", "))
	}
	if len(missing) > 0 {
		slog.Warn("some system libraries missing, continuing with the rest", "missing", missing)
	}

	res.Libraries = append(res.Libraries, found...)
	m.applySystemOverrides(dep, &res)
	return res, nil
}

// harvestPkgConfig folds pkg-config's include and link fields into res.
func (m *Manager) harvestPkgConfig(ctx context.Context, id string, res *Resolved) {
	cflags, libs, err := m.opts.PkgConfig.Flags(ctx, id)
	if err != nil {
		slog.Warn("pkg-config flag query failed", "id", id, "err", err)
		return
	}
	for _, flag := range cflags {
		if after, ok := strings.CutPrefix(flag, "-I"); ok && after != "" {
			res.IncludeDirs = append(res.IncludeDirs, after)
		}
	}
	for _, flag := range libs {
		switch {
		case strings.HasPrefix(flag, "-L"):
			res.LibDirs = append(res.LibDirs, flag[2:])
		case strings.HasPrefix(flag, "-l"):
			res.Libraries = append(res.Libraries, flag[2:])
		}
	}
}

// applySystemOverrides appends the manually declared paths. System override
// paths are absolute host paths, not checkout-relative.
func (m *Manager) applySystemOverrides(dep *config.SystemDependency, res *Resolved) {
	res.IncludeDirs = append(res.IncludeDirs, dep.IncludeDirs...)
	res.LibDirs = append(res.LibDirs, dep.LibDirs...)
	if len(res.Libraries) == 0 {
		res.Libraries = append(res.Libraries, dep.Libraries...)
	}
}

// findSystemLibrary scans the platform search dirs for any conventional
// spelling of the library's filename.
func (m *Manager) findSystemLibrary(lib string) bool {
	patterns := []string{
		"lib" + lib + ".so",
		"lib" + lib + ".a",
		lib + ".lib",
		lib + ".dll",
	}
	for _, dir := range m.opts.SearchDirs {
		for _, pattern := range patterns {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err == nil && len(matches) > 0 {
				return true
			}
			// Versioned shared objects (libz.so.1) also count.
			matches, err = filepath.Glob(filepath.Join(dir, pattern+".*"))
			if err == nil && len(matches) > 0 {
				return true
			}
		}
	}
	return false
}

// defaultSearchDirs lists where the platform keeps its libraries.
func defaultSearchDirs(goos string) []string {
	if goos == "windows" {
		return []string{
			`C:\Windows\System32`,
			`C:\vcpkg\installed\x64-windows\lib`,
		}
	}
	return []string{
		"/usr/lib",
		"/usr/local/lib",
		"/lib",
		"/usr/lib/x86_64-linux-gnu",
		"/usr/lib/aarch64-linux-gnu",
		"/usr/lib64",
	}
}

func systemRoot(goos string) string {
	if goos == "windows" {
		return `C:\`
	}
	return "/usr"
}
