package deps

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/cxxnode/cxxnode/internal/buildsys"
	"github.com/cxxnode/cxxnode/internal/config"
)

// resolveGit brings a version-controlled dependency to SourceReady (checkout
// in the cache) and Installed (non-empty install tree), building it when the
// install tree is missing and degrading to header-only treatment when the
// build fails.
func (m *Manager) resolveGit(ctx context.Context, name string, dep *config.GitDependency) (Resolved, error) {
	cachePath := m.opts.Resolver.ResolvePath(ctx, dep.URL, dep.Ref())

	unlock, err := lockEntry(cachePath)
	if err != nil {
		return Resolved{}, err
	}
	defer unlock()

	if err := m.opts.VCS.CloneOrUpdate(ctx, dep.URL, dep.Ref(), cachePath); err != nil {
		return Resolved{}, err
	}

	sourceDir := cachePath
	if dep.Subdir != "" {
		sourceDir = filepath.Join(cachePath, dep.Subdir)
	}
	installDir := filepath.Join(cachePath, "install")
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return Resolved{}, err
	}

	if m.opts.ForceRebuild || dirEmpty(installDir) {
		if err := m.buildDependency(ctx, sourceDir, installDir, dep.BuildSystem, dep.CMakeOptions); err != nil {
			// Not silent: header-only treatment is a real downgrade the
			// user should see in the log.
			slog.Warn("dependency build failed, treating as header-only", "name", name, "err", err)
			if err := setupHeaderOnly(sourceDir, installDir, dep.IncludeDirs); err != nil {
				return Resolved{}, fmt.Errorf("header-only fallback: %w", err)
			}
		}
	}

	return m.finishSourceDep(name, sourceDir, installDir, dep.IncludeDirs, dep.LibDirs, dep.Libraries), nil
}

// finishSourceDep assembles the Resolved record for a built source tree.
// Declared include overrides resolve against the SOURCE directory (they
// name subpaths of the checkout); lib overrides against the install tree.
func (m *Manager) finishSourceDep(name, sourceDir, installDir string, includeDirs, libDirs, libraries []string) Resolved {
	res := Resolved{
		Name:       name,
		SourceDir:  sourceDir,
		InstallDir: installDir,
		Libraries:  libraries,
	}
	stdIncludes, stdLibs := standardDirs(installDir)
	res.IncludeDirs = append(res.IncludeDirs, stdIncludes...)
	res.LibDirs = append(res.LibDirs, stdLibs...)

	for _, dir := range includeDirs {
		res.IncludeDirs = append(res.IncludeDirs, filepath.Join(sourceDir, dir))
	}
	for _, dir := range libDirs {
		res.LibDirs = append(res.LibDirs, filepath.Join(installDir, dir))
	}
	return res
}

// buildDependency runs the declared build system into installDir. A
// dependency without a declared build system is header-only by definition.
func (m *Manager) buildDependency(ctx context.Context, sourceDir, installDir string, system config.BuildSystem, cmakeOptions map[string]string) error {
	if system == "" || system == config.BuildSystemNative {
		return setupHeaderOnly(sourceDir, installDir, nil)
	}
	slog.Info("building dependency", "system", string(system), "source", sourceDir)

	bs, err := buildsys.New(system, buildsys.Options{
		SourceDir:  sourceDir,
		InstallDir: installDir,
		Profile:    m.opts.Profile,
		Jobs:       m.opts.Jobs,
		Runner:     m.opts.Runner,
	})
	if err != nil {
		return err
	}
	if cm, ok := bs.(*buildsys.CMake); ok {
		for k, v := range cmakeOptions {
			cm.Define(k, v)
		}
	}
	if err := bs.Configure(ctx); err != nil {
		return fmt.Errorf("configure: %w", err)
	}
	if err := bs.Build(ctx); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if err := bs.Install(ctx); err != nil {
		return fmt.Errorf("install: %w", err)
	}
	return nil
}

// setupHeaderOnly copies the declared (or heuristically discovered) include
// subtrees of a checkout into install/include.
func setupHeaderOnly(sourceDir, installDir string, includeDirs []string) error {
	installInclude := filepath.Join(installDir, "include")
	if err := os.MkdirAll(installInclude, 0o755); err != nil {
		return err
	}

	if len(includeDirs) > 0 {
		for _, dir := range includeDirs {
			src := filepath.Join(sourceDir, dir)
			if _, err := os.Stat(src); err != nil {
				continue
			}
			if err := os.CopyFS(filepath.Join(installInclude, dir), os.DirFS(src)); err != nil {
				return err
			}
		}
		return nil
	}

	// No declaration: take headers from the first conventional layout found.
	for _, pattern := range []string{"include", "src", "."} {
		src := filepath.Join(sourceDir, pattern)
		if !dirExists(src) {
			continue
		}
		if err := copyHeaders(src, installInclude); err != nil {
			return err
		}
		return nil
	}
	return nil
}

// copyHeaders copies every .h/.hpp/.hh file under src into dst, preserving
// relative layout.
func copyHeaders(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".h" && ext != ".hpp" && ext != ".hh" {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

// lockEntry takes an advisory lock guarding one cache entry against
// concurrent tool invocations racing to populate it.
func lockEntry(cachePath string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return nil, err
	}
	lock := flock.New(cachePath + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock cache entry %s: %w", cachePath, err)
	}
	return func() { _ = lock.Unlock() }, nil
}
