package bridge

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// companionSubdirs are the C++ API source trees that ship alongside the
// generated bridge inside a framework checkout.
var companionSubdirs = []string{
	filepath.Join("apis", "c++", "node", "src"),
	filepath.Join("apis", "c++", "operator", "src"),
	filepath.Join("apis", "c", "node", "src"),
	filepath.Join("apis", "c", "operator", "src"),
}

// CompanionIncludes returns the hand-written API header directories found
// inside a framework checkout. Missing subtrees are skipped silently since
// framework versions differ in which APIs they ship. An empty checkout
// (framework disabled) yields nothing; the subdirs must never be resolved
// against the working directory.
func CompanionIncludes(checkout string) []string {
	if checkout == "" {
		return nil
	}
	var dirs []string
	for _, sub := range companionSubdirs {
		dir := filepath.Join(checkout, sub)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// generatedHeader is the bridge header emitted next to each crate's glue
// source. It carries the same name in every crate.
const generatedHeader = "lib.rs.h"

// StageHeaders copies the bridge headers from every discovered include
// directory into <root>/<profile>/deps so that sources can reference them
// through one stable search path. Each crate's generated lib.rs.h is
// renamed to a per-crate convenience header (dora-node-api-cxx becomes
// dora-node-api.h) so crates do not overwrite one another. The staging
// directory is appended to the set's include list. Copy failures for
// individual headers are fatal since a half-staged tree compiles against
// stale declarations.
func StageHeaders(set *ArtifactSet, root, profile string) (string, error) {
	staging := filepath.Join(root, profile, "deps")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", fmt.Errorf("creating header staging dir: %w", err)
	}
	for _, dir := range set.IncludeDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !isHeader(entry.Name()) {
				continue
			}
			src := filepath.Join(dir, entry.Name())
			name := entry.Name()
			if name == generatedHeader {
				if crate := crateOf(src); crate != "" {
					name = convenienceHeader(crate)
				}
			}
			if err := copyFile(src, filepath.Join(staging, name)); err != nil {
				return "", fmt.Errorf("staging header %s: %w", entry.Name(), err)
			}
		}
	}
	set.addInclude(staging)
	return staging, nil
}

// convenienceHeader derives the staged header name from a crate name,
// dropping the language-binding suffix: dora-node-api-cxx and
// dora-node-api-c both stage as dora-node-api.h.
func convenienceHeader(crate string) string {
	crate = strings.TrimSuffix(crate, "-cxx")
	crate = strings.TrimSuffix(crate, "-c")
	return crate + ".h"
}

func isHeader(name string) bool {
	for _, ext := range []string{".h", ".hh", ".hpp", ".rs.h"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	mode := fs.FileMode(0o644)
	if err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(dst, data, mode)
}
