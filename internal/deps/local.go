package deps

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/cxxnode/cxxnode/internal/cache"
	"github.com/cxxnode/cxxnode/internal/config"
)

// resolveLocal uses an on-disk source tree as-is. The path must exist;
// build output lands in a cache entry keyed by a hash of the absolute path
// so two projects pointing at the same tree share it.
func (m *Manager) resolveLocal(ctx context.Context, name string, dep *config.LocalDependency) (Resolved, error) {
	sourceDir, err := filepath.Abs(dep.Path)
	if err != nil {
		return Resolved{}, err
	}
	if _, err := os.Stat(sourceDir); err != nil {
		return Resolved{}, fmt.Errorf("local dependency path not found: %s", sourceDir)
	}

	installDir := filepath.Join(m.opts.CacheDir, localCacheKey(sourceDir))

	unlock, err := lockEntry(installDir)
	if err != nil {
		return Resolved{}, err
	}
	defer unlock()

	if m.opts.ForceRebuild || dirEmpty(installDir) {
		if err := os.MkdirAll(installDir, 0o755); err != nil {
			return Resolved{}, err
		}
		if err := m.buildDependency(ctx, sourceDir, installDir, dep.BuildSystem, dep.CMakeOptions); err != nil {
			return Resolved{}, err
		}
	}

	return m.finishSourceDep(name, sourceDir, installDir, dep.IncludeDirs, dep.LibDirs, dep.Libraries), nil
}

// localCacheKey derives a stable cache entry name from an absolute path.
func localCacheKey(absPath string) string {
	h := fnv.New32a()
	h.Write([]byte(absPath))
	return fmt.Sprintf("local-%s-%08x", cache.Sanitize(filepath.Base(absPath)), h.Sum32())
}
