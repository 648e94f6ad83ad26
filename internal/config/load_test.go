package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fullManifest = `
[node]
name = "object-detector"
type = "node"
version = "1.2.0"

[framework]
enabled = true
rev = "v0.3.5"

[build]
toolchain = "clang"
profile = "release"
std = "c++20"
sources = ["src/**/*.cc"]
exclude_sources = ["src/experimental/**"]
cxxflags = ["-Wall", "-Wextra"]
build_timeout = 120

[dependencies.fmt]
url = "https://github.com/fmtlib/fmt"
rev = "10.1.1"
build_system = "cmake"
cmake_options = { FMT_TEST = "OFF" }

[dependencies.opencv]
type = "vcpkg"
name = "opencv4"
features = ["contrib"]

[dependencies.ssl]
type = "system"
name = "ssl"
pkg_config = "openssl"

[dependencies.mylib]
type = "local"
path = "/tmp/mylib"
`

func TestDecodeFullManifest(t *testing.T) {
	cfg, err := Decode(fullManifest)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if cfg.Node.Name != "object-detector" {
		t.Errorf("node name = %q", cfg.Node.Name)
	}
	if cfg.Build.Toolchain != ToolchainClang {
		t.Errorf("toolchain = %q", cfg.Build.Toolchain)
	}
	if cfg.Build.Profile != "release" || cfg.Build.Std != "c++20" {
		t.Errorf("build section = %+v", cfg.Build)
	}
	if cfg.Build.BuildTimeout != 120 {
		t.Errorf("build_timeout = %d", cfg.Build.BuildTimeout)
	}
	if cfg.Framework == nil || !cfg.Framework.Enabled {
		t.Fatal("framework section missing")
	}
	if cfg.Framework.Git != DefaultFrameworkGit {
		t.Errorf("enabled framework without url should default, got %q", cfg.Framework.Git)
	}
	if cfg.Framework.Rev != "v0.3.5" {
		t.Errorf("framework rev = %q", cfg.Framework.Rev)
	}

	if len(cfg.Dependencies) != 4 {
		t.Fatalf("got %d dependencies", len(cfg.Dependencies))
	}
	git, ok := cfg.Dependencies["fmt"].(*GitDependency)
	if !ok {
		t.Fatalf("fmt is %T, want *GitDependency", cfg.Dependencies["fmt"])
	}
	if git.URL != "https://github.com/fmtlib/fmt" || git.Rev != "10.1.1" {
		t.Errorf("fmt = %+v", git)
	}
	if git.BuildSystem != BuildSystemCMake || git.CMakeOptions["FMT_TEST"] != "OFF" {
		t.Errorf("fmt build settings = %+v", git)
	}
	if v, ok := cfg.Dependencies["opencv"].(*VcpkgDependency); !ok || v.Name != "opencv4" {
		t.Errorf("opencv = %#v", cfg.Dependencies["opencv"])
	}
	if s, ok := cfg.Dependencies["ssl"].(*SystemDependency); !ok || s.PkgConfig != "openssl" {
		t.Errorf("ssl = %#v", cfg.Dependencies["ssl"])
	}
	if l, ok := cfg.Dependencies["mylib"].(*LocalDependency); !ok || l.Path != "/tmp/mylib" {
		t.Errorf("mylib = %#v", cfg.Dependencies["mylib"])
	}
}

func TestDecodeDefaults(t *testing.T) {
	cfg, err := Decode("[node]\nname = \"n\"\n")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Node.Version != "0.1.0" {
		t.Errorf("default version = %q", cfg.Node.Version)
	}
	if cfg.Build.Profile != "debug" || cfg.Build.Std != "c++17" {
		t.Errorf("default build = %+v", cfg.Build)
	}
	if cfg.Build.Toolchain != ToolchainAuto || cfg.Build.System != BuildSystemNative {
		t.Errorf("default build = %+v", cfg.Build)
	}
	if cfg.Framework != nil {
		t.Error("framework should be nil when absent")
	}
}

func TestDecodeUntypedDependencyIsGit(t *testing.T) {
	cfg, err := Decode(`
[node]
name = "n"

[dependencies.json]
url = "https://github.com/nlohmann/json"
tag = "v3.11.3"
`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	dep, ok := cfg.Dependencies["json"].(*GitDependency)
	if !ok {
		t.Fatalf("json is %T, want *GitDependency", cfg.Dependencies["json"])
	}
	if dep.Ref() != "v3.11.3" {
		t.Errorf("Ref() = %q", dep.Ref())
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing node name", "[build]\nprofile = \"debug\"\n"},
		{"unknown dep type", "[node]\nname = \"n\"\n[dependencies.x]\ntype = \"conan\"\n"},
		{"malformed toml", "[node\nname"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.doc); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGitDependencyRef(t *testing.T) {
	tests := []struct {
		dep  GitDependency
		want string
	}{
		{GitDependency{Rev: "abc", Branch: "dev", Tag: "v1"}, "abc"},
		{GitDependency{Branch: "dev", Tag: "v1"}, "dev"},
		{GitDependency{Tag: "v1"}, "v1"},
		{GitDependency{}, ""},
	}
	for _, tt := range tests {
		if got := tt.dep.Ref(); got != tt.want {
			t.Errorf("Ref() = %q, want %q", got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Decode(`
[node]
name = "n"

[build]
profile = "superfast"

[dependencies.broken]
type = "git"

[dependencies.overpinned]
url = "https://github.com/a/b"
rev = "abc"
branch = "main"

[dependencies.ghost]
type = "local"
path = "/definitely/not/a/real/path"
`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	warnings := Validate(cfg)
	wantSubstrings := []string{
		"unknown build profile",
		`git dependency "broken" missing url`,
		"only one of rev, branch, tag",
		"path does not exist",
	}
	for _, want := range wantSubstrings {
		found := false
		for _, w := range warnings {
			if strings.Contains(w, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing warning containing %q in %v", want, warnings)
		}
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "nodes")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("[node]\nname=\"n\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := FindProjectRoot(nested); got != root {
		t.Errorf("FindProjectRoot = %q, want %q", got, root)
	}
	// No manifest anywhere: fall back to the start directory.
	orphan := t.TempDir()
	if got := FindProjectRoot(orphan); got != orphan {
		t.Errorf("FindProjectRoot fallback = %q, want %q", got, orphan)
	}
}
