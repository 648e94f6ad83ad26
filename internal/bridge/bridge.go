// Package bridge discovers generated Rust/C++ bridge artifacts under a
// framework build-output tree: the headers and glue translation units
// emitted per crate, and the static libraries already built from them.
package bridge

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cxxnode/cxxnode/internal/toolchain"
)

// glueSource is the generated translation unit emitted next to each
// crate's bridge header.
const glueSource = "lib.rs.cc"

// ArtifactSet is the result of a discovery scan. Both lists are
// deduplicated preserving first-seen order; include order decides compiler
// search-path precedence, so earlier roots win.
type ArtifactSet struct {
	IncludeDirs      []string
	GeneratedSources []string

	includeSeen map[string]bool
	sourceSeen  map[string]bool
}

func (s *ArtifactSet) addInclude(dir string) {
	if s.includeSeen == nil {
		s.includeSeen = make(map[string]bool)
	}
	if s.includeSeen[dir] {
		return
	}
	s.includeSeen[dir] = true
	s.IncludeDirs = append(s.IncludeDirs, dir)
}

func (s *ArtifactSet) addSource(path string) {
	if s.sourceSeen == nil {
		s.sourceSeen = make(map[string]bool)
	}
	if s.sourceSeen[path] {
		return
	}
	s.sourceSeen[path] = true
	s.GeneratedSources = append(s.GeneratedSources, path)
}

// AddInclude appends dir to the include list, keeping the dedup invariant.
// Used for directories that must rank below everything discovered, such as
// the framework's hand-written API trees.
func (s *ArtifactSet) AddInclude(dir string) {
	s.addInclude(dir)
}

// Empty reports whether the scan found nothing at all.
func (s *ArtifactSet) Empty() bool {
	return len(s.IncludeDirs) == 0 && len(s.GeneratedSources) == 0
}

// Discover scans a build-output root for bridge artifacts.
//
// Candidate roots are <root>/<profile>/bridge and <root>/bridge. Each crate
// directory contributes the crate root and its src/ as include paths and
// any generated glue sources. A deeper fallback handles build systems that
// leave their outputs under build/*/out/bridge/crate/<name>/src.
func Discover(root, profile string) *ArtifactSet {
	set := &ArtifactSet{}
	// A crate can show up under several roots; the first occurrence wins so
	// profiled output shadows stale unprofiled output.
	seenCrates := make(map[string]bool)

	for _, bridgeRoot := range []string{
		filepath.Join(root, profile, "bridge"),
		filepath.Join(root, "bridge"),
	} {
		entries, err := os.ReadDir(bridgeRoot)
		if err != nil {
			continue
		}
		// The root itself first: top-level convenience headers live there.
		set.addInclude(bridgeRoot)
		for _, entry := range entries {
			if !entry.IsDir() || seenCrates[entry.Name()] {
				continue
			}
			seenCrates[entry.Name()] = true
			scanCrate(set, filepath.Join(bridgeRoot, entry.Name()), true)
		}
	}

	// Fallback: externally-triggered builds nest their bridge output under
	// per-unit build directories.
	buildRoot := filepath.Join(root, profile, "build")
	if units, err := os.ReadDir(buildRoot); err == nil {
		for _, unit := range units {
			crateRoot := filepath.Join(buildRoot, unit.Name(), "out", "bridge", "crate")
			crates, err := os.ReadDir(crateRoot)
			if err != nil {
				continue
			}
			for _, crate := range crates {
				if seenCrates[crate.Name()] {
					continue
				}
				seenCrates[crate.Name()] = true
				scanCrate(set, filepath.Join(crateRoot, crate.Name()), false)
			}
		}
	}

	return set
}

// scanCrate registers one crate directory. includeRoot controls whether the
// crate root itself joins the include path (true for the primary layout,
// false for the nested fallback where only src/ matters).
func scanCrate(set *ArtifactSet, crateDir string, includeRoot bool) {
	if includeRoot {
		set.addInclude(crateDir)
	}
	src := filepath.Join(crateDir, "src")
	if info, err := os.Stat(src); err == nil && info.IsDir() {
		set.addInclude(src)
		glue := filepath.Join(src, glueSource)
		if _, err := os.Stat(glue); err == nil {
			set.addSource(glue)
		}
	}
	if !includeRoot {
		return
	}
	// Crate-root glue sources (e.g. <crate>.cc) ship alongside some crates.
	matches, _ := filepath.Glob(filepath.Join(crateDir, "*.cc"))
	for _, m := range matches {
		set.addSource(m)
	}
}

// ExcludePrebuilt drops generated glue sources whose crate already has a
// built static/import library in libDir, avoiding duplicate symbols at link
// time. Matching tries the raw crate name and its separator-normalized
// spelling.
func ExcludePrebuilt(set *ArtifactSet, libDir string, kind toolchain.Kind) {
	names := PrebuiltLibraries(libDir, kind)
	if len(names) == 0 {
		return
	}
	available := make(map[string]bool, len(names)*2)
	for _, name := range names {
		available[name] = true
		available[normalizeName(name)] = true
	}
	kept := set.GeneratedSources[:0]
	for _, src := range set.GeneratedSources {
		crate := crateOf(src)
		if crate != "" && (available[crate] || available[normalizeName(crate)]) {
			continue
		}
		kept = append(kept, src)
	}
	set.GeneratedSources = kept
}

// LibDir returns the build-output directory holding the prebuilt bridge
// libraries. When the requested profile's directory does not exist the
// opposite profile is tried, so a release-built framework still serves a
// debug node build and vice versa.
func LibDir(root, profile string) string {
	dir := filepath.Join(root, profile)
	if dirExists(dir) {
		return dir
	}
	alt := ""
	switch profile {
	case "debug":
		alt = "release"
	case "release":
		alt = "debug"
	}
	if alt != "" {
		if fallback := filepath.Join(root, alt); dirExists(fallback) {
			return fallback
		}
	}
	return dir
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// PrebuiltLibraries lists the static/import library names found in dir,
// stripped of their platform affixes, in directory order.
func PrebuiltLibraries(dir string, kind toolchain.Kind) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch kind {
		case toolchain.MSVC:
			if strings.HasSuffix(name, ".lib") {
				names = append(names, strings.TrimSuffix(name, ".lib"))
			}
		default:
			if strings.HasPrefix(name, "lib") && strings.HasSuffix(name, ".a") {
				names = append(names, strings.TrimSuffix(strings.TrimPrefix(name, "lib"), ".a"))
			}
		}
	}
	return names
}

// crateOf extracts the crate name from a glue source path. The layout is
// <crate>/src/lib.rs.cc for nested glue and <crate>/<file>.cc at crate root.
func crateOf(src string) string {
	dir := filepath.Dir(src)
	if filepath.Base(dir) == "src" {
		dir = filepath.Dir(dir)
	}
	return filepath.Base(dir)
}

// normalizeName maps '-' to '_', the usual crate-name/library-name skew.
func normalizeName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
