// Package compile assembles and runs the final compiler invocation: source
// collection, flag translation between GCC-like and MSVC dialects, argument
// ordering, and supervised execution with output filtering.
package compile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var sourceExts = []string{".cc", ".cpp", ".cxx", ".c"}

// dirs never scanned when collecting sources implicitly.
var skipDirs = map[string]bool{
	".git":   true,
	"target": true,
	"build":  true,
}

// CollectSources resolves the compilation set for a project. Explicit
// patterns may be doublestar globs or literal paths and are resolved
// relative to root; with no patterns every source file under root is taken.
// Exclude patterns are matched against the slash-separated relative path.
// An empty result is an error: a build with nothing to compile is always a
// configuration mistake.
func CollectSources(root string, patterns, excludes []string) ([]string, error) {
	var collected []string
	if len(patterns) > 0 {
		for _, pattern := range patterns {
			matches, err := expandPattern(root, pattern)
			if err != nil {
				return nil, err
			}
			collected = append(collected, matches...)
		}
	} else {
		found, err := scanTree(root)
		if err != nil {
			return nil, err
		}
		collected = found
	}

	filtered, err := applyExcludes(root, collected, excludes)
	if err != nil {
		return nil, err
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no source files found in %s", root)
	}

	sort.Strings(filtered)
	return dedup(filtered), nil
}

func expandPattern(root, pattern string) ([]string, error) {
	// Literal paths pass through so users can name generated files that do
	// not exist until a later pipeline stage.
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{filepath.Join(root, filepath.FromSlash(pattern))}, nil
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid source pattern %q: %w", pattern, err)
	}
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(m)))
	}
	return paths, nil
}

func scanTree(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if isSource(d.Name()) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning sources: %w", err)
	}
	return found, nil
}

func applyExcludes(root string, paths, excludes []string) ([]string, error) {
	if len(excludes) == 0 {
		return paths, nil
	}
	kept := paths[:0]
	for _, path := range paths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		excluded := false
		for _, pattern := range excludes {
			ok, err := doublestar.Match(pattern, rel)
			if err != nil {
				return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
			}
			if ok {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, path)
		}
	}
	return kept, nil
}

func isSource(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range sourceExts {
		if ext == want {
			return true
		}
	}
	return false
}

func dedup(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
