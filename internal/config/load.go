package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the project manifest looked up by FindProjectRoot.
const FileName = "cxxnode.toml"

// rawConfig mirrors the document layout before dependency declarations are
// resolved to their concrete kinds.
type rawConfig struct {
	Node         NodeConfig                `toml:"node"`
	Build        BuildConfig               `toml:"build"`
	Framework    *FrameworkConfig          `toml:"framework"`
	Dependencies map[string]toml.Primitive `toml:"dependencies"`
}

type depTag struct {
	Type string `toml:"type"`
}

// Load decodes a cxxnode.toml into the typed model. This is the single
// decode step; nothing downstream sees raw maps.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(string(data))
}

// Decode parses an already-read document.
func Decode(data string) (*Config, error) {
	raw := rawConfig{Build: DefaultBuildConfig()}

	md, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if raw.Node.Name == "" {
		return nil, fmt.Errorf("node name is required in [node] section")
	}
	if raw.Node.Version == "" {
		raw.Node.Version = "0.1.0"
	}
	if raw.Framework != nil && raw.Framework.Git == "" && raw.Framework.Enabled {
		raw.Framework.Git = DefaultFrameworkGit
	}

	cfg := &Config{
		Node:         raw.Node,
		Build:        raw.Build,
		Framework:    raw.Framework,
		Dependencies: make(map[string]Dependency, len(raw.Dependencies)),
	}
	for name, prim := range raw.Dependencies {
		var tag depTag
		if err := md.PrimitiveDecode(prim, &tag); err != nil {
			return nil, fmt.Errorf("dependency %s: %w", name, err)
		}
		dep, err := newDependency(tag.Type)
		if err != nil {
			return nil, fmt.Errorf("dependency %s: %w", name, err)
		}
		if err := md.PrimitiveDecode(prim, dep); err != nil {
			return nil, fmt.Errorf("dependency %s: %w", name, err)
		}
		cfg.Dependencies[name] = dep
	}
	return cfg, nil
}

// DefaultFrameworkGit is the upstream used when a [framework] section is
// enabled without an explicit URL.
const DefaultFrameworkGit = "https://github.com/dora-rs/dora"

// FindProjectRoot walks up from start looking for cxxnode.toml. If none is
// found it falls back to start itself.
func FindProjectRoot(start string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// Validate returns human-readable problems with a decoded configuration.
// Problems are warnings, not fatal: the build proceeds with degraded inputs
// unless a later stage hits a hard requirement.
func Validate(cfg *Config) []string {
	var warnings []string

	if cfg.Node.Name == "" {
		warnings = append(warnings, "node name cannot be empty")
	}
	if cfg.Build.Profile != "debug" && cfg.Build.Profile != "release" {
		warnings = append(warnings, fmt.Sprintf("unknown build profile: %s", cfg.Build.Profile))
	}
	if cfg.Build.ParallelJobs < 0 {
		warnings = append(warnings, "parallel_jobs must be >= 1")
	}
	if cfg.Framework != nil && cfg.Framework.Git != "" &&
		!strings.HasPrefix(cfg.Framework.Git, "https://") && !strings.HasPrefix(cfg.Framework.Git, "git@") {
		warnings = append(warnings, "framework git should be a valid git URL")
	}

	for name, dep := range cfg.Dependencies {
		switch d := dep.(type) {
		case *GitDependency:
			if d.URL == "" {
				warnings = append(warnings, fmt.Sprintf("git dependency %q missing url", name))
			}
			refs := 0
			for _, r := range []string{d.Rev, d.Branch, d.Tag} {
				if r != "" {
					refs++
				}
			}
			if refs > 1 {
				warnings = append(warnings, fmt.Sprintf("git dependency %q should declare only one of rev, branch, tag", name))
			}
		case *VcpkgDependency:
			if d.Name == "" {
				warnings = append(warnings, fmt.Sprintf("vcpkg dependency %q missing package name", name))
			}
		case *SystemDependency:
			if d.Name == "" {
				warnings = append(warnings, fmt.Sprintf("system dependency %q missing name", name))
			}
		case *LocalDependency:
			if d.Path == "" {
				warnings = append(warnings, fmt.Sprintf("local dependency %q missing path", name))
			} else if _, err := os.Stat(d.Path); err != nil {
				warnings = append(warnings, fmt.Sprintf("local dependency %q path does not exist: %s", name, d.Path))
			}
		}
	}
	return warnings
}
