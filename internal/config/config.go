// Package config defines the typed configuration model for a cxxnode
// project. The whole document is decoded once at the boundary; the rest of
// the tool never inspects raw key/value maps.
package config

// Toolchain is a declared compiler preference.
type Toolchain string

const (
	ToolchainAuto  Toolchain = "auto"
	ToolchainGCC   Toolchain = "gcc"
	ToolchainClang Toolchain = "clang"
	ToolchainMSVC  Toolchain = "msvc"
)

// BuildSystem selects how a dependency (or the node itself) is built.
type BuildSystem string

const (
	BuildSystemNative BuildSystem = "native" // built-in compiler invocation
	BuildSystemCMake  BuildSystem = "cmake"
	BuildSystemMake   BuildSystem = "make"
	BuildSystemNinja  BuildSystem = "ninja"
)

// NodeConfig is the [node] section. Immutable once loaded.
type NodeConfig struct {
	Name        string `toml:"name"`
	Type        string `toml:"type"`
	Description string `toml:"description"`
	Version     string `toml:"version"`
}

// FrameworkConfig pins the upstream framework source the node builds
// against. An empty Rev means "latest stable tag at resolution time".
type FrameworkConfig struct {
	Git     string `toml:"git"`
	Rev     string `toml:"rev"`
	Enabled bool   `toml:"enabled"`
}

// BuildConfig is the [build] section. Owned by the session and read-only
// during a build.
type BuildConfig struct {
	Toolchain Toolchain   `toml:"toolchain"`
	System    BuildSystem `toml:"system"`
	Profile   string      `toml:"profile"`
	Std       string      `toml:"std"`

	// Source selection. Globs may use ** (doublestar syntax).
	Sources        []string `toml:"sources"`
	ExcludeSources []string `toml:"exclude_sources"`

	// Raw extra flags, passed after translation for the selected toolchain.
	CXXFlags []string `toml:"cxxflags"`
	LDFlags  []string `toml:"ldflags"`

	// Single-string variants, split with shell quoting rules.
	ExtraCXXFlags string `toml:"extra_cxxflags"`
	ExtraLDFlags  string `toml:"extra_ldflags"`

	IncludeDirs []string `toml:"include_dirs"`
	LibDirs     []string `toml:"lib_dirs"`
	Libraries   []string `toml:"libraries"`

	// Warning management. SuppressWarnings drops every non-essential
	// diagnostic; otherwise verbose categories are sampled.
	SuppressWarnings bool     `toml:"suppress_warnings"`
	WarningPatterns  []string `toml:"warning_filter_patterns"`
	ShowAllWarnings  bool     `toml:"show_all_warnings"`

	// BuildTimeout is in seconds; zero means the 5 minute default.
	BuildTimeout int `toml:"build_timeout"`

	ParallelJobs int `toml:"parallel_jobs"`
}

// Config is a fully decoded cxxnode.toml.
type Config struct {
	Node         NodeConfig
	Build        BuildConfig
	Framework    *FrameworkConfig
	Dependencies map[string]Dependency
}

// DefaultBuildConfig returns the build settings used when the [build]
// section is absent or partial.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Toolchain: ToolchainAuto,
		System:    BuildSystemNative,
		Profile:   "debug",
		Std:       "c++17",
	}
}
