package config

import "fmt"

// Dependency is the closed set of dependency declarations. Each kind
// carries its own resolution protocol; the resolver switches exhaustively
// on the concrete type.
type Dependency interface {
	// Kind returns the declaration tag ("git", "vcpkg", "system", "local").
	Kind() string
}

// GitDependency is a version-controlled source dependency.
type GitDependency struct {
	URL    string `toml:"url"`
	Rev    string `toml:"rev"`
	Branch string `toml:"branch"`
	Tag    string `toml:"tag"`
	Subdir string `toml:"subdir"`

	BuildSystem  BuildSystem       `toml:"build_system"`
	CMakeOptions map[string]string `toml:"cmake_options"`

	IncludeDirs []string `toml:"include_dirs"`
	LibDirs     []string `toml:"lib_dirs"`
	Libraries   []string `toml:"libraries"`
}

func (*GitDependency) Kind() string { return "git" }

// Ref returns the declared checkout ref, preferring rev over branch over tag.
func (d *GitDependency) Ref() string {
	switch {
	case d.Rev != "":
		return d.Rev
	case d.Branch != "":
		return d.Branch
	default:
		return d.Tag
	}
}

// VcpkgDependency is installed through the vcpkg package manager.
type VcpkgDependency struct {
	Name     string   `toml:"name"`
	Version  string   `toml:"version"`
	Features []string `toml:"features"`
	Triplet  string   `toml:"triplet"`
}

func (*VcpkgDependency) Kind() string { return "vcpkg" }

// SystemDependency is probed from the host rather than built.
type SystemDependency struct {
	Name      string `toml:"name"`
	PkgConfig string `toml:"pkg_config"`

	IncludeDirs []string `toml:"include_dirs"`
	LibDirs     []string `toml:"lib_dirs"`
	Libraries   []string `toml:"libraries"`
}

func (*SystemDependency) Kind() string { return "system" }

// LocalDependency points at a source tree on disk.
type LocalDependency struct {
	Path string `toml:"path"`

	BuildSystem  BuildSystem       `toml:"build_system"`
	CMakeOptions map[string]string `toml:"cmake_options"`

	IncludeDirs []string `toml:"include_dirs"`
	LibDirs     []string `toml:"lib_dirs"`
	Libraries   []string `toml:"libraries"`
}

func (*LocalDependency) Kind() string { return "local" }

// newDependency returns the zero declaration for a kind tag.
func newDependency(kind string) (Dependency, error) {
	switch kind {
	case "git", "":
		return &GitDependency{}, nil
	case "vcpkg":
		return &VcpkgDependency{}, nil
	case "system":
		return &SystemDependency{}, nil
	case "local":
		return &LocalDependency{}, nil
	default:
		return nil, fmt.Errorf("unknown dependency type: %s", kind)
	}
}
