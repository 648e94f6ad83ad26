// Package deps resolves the dependencies declared in a project config into
// uniform (source dir, install dir) pairs plus the include/lib requirements
// they contribute to the compiler invocation.
//
// Each dependency moves through Unresolved -> SourceReady -> Installed ->
// Registered. Resolution is recomputed every build (cheap existence
// checks); the on-disk products persist in the shared cache.
package deps

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/cxxnode/cxxnode/internal/buildsys"
	"github.com/cxxnode/cxxnode/internal/cache"
	"github.com/cxxnode/cxxnode/internal/config"
	"github.com/cxxnode/cxxnode/internal/vcs"
)

// Resolved is the uniform output of dependency resolution. It is never
// mutated after creation within one build.
type Resolved struct {
	Name       string
	SourceDir  string
	InstallDir string

	IncludeDirs []string
	LibDirs     []string
	Libraries   []string
}

// Options configures a Manager.
type Options struct {
	CacheDir     string // dependency cache root; defaults under cache.Dir()
	Profile      string
	Jobs         int
	ForceRebuild bool

	VCS      vcs.VCS
	Resolver *cache.Resolver

	// Injection points for tests. Zero values select the host behavior.
	Runner         buildsys.Runner
	LookPath       func(string) (string, error)
	PkgConfig      PkgConfig
	SearchDirs     []string // system library probe dirs
	VcpkgLocations []string // fixed vcpkg install locations
	GOOS           string
	GOARCH         string
}

// Manager resolves all declared dependencies for one build session and
// aggregates their compiler requirements in declaration order.
type Manager struct {
	cfg  *config.Config
	opts Options

	resolved []Resolved

	includeDirs orderedSet
	libDirs     orderedSet
	libraries   orderedSet
}

// NewManager creates a Manager for cfg.
func NewManager(cfg *config.Config, opts Options) (*Manager, error) {
	if opts.CacheDir == "" {
		root, err := cache.Dir()
		if err != nil {
			return nil, err
		}
		opts.CacheDir = filepath.Join(root, "deps")
	}
	if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
		return nil, err
	}
	if opts.VCS == nil {
		opts.VCS = vcs.NewGit()
	}
	if opts.Resolver == nil {
		opts.Resolver = cache.NewResolver(opts.CacheDir, opts.VCS)
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if opts.PkgConfig == nil {
		opts.PkgConfig = execPkgConfig{}
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.GOARCH == "" {
		opts.GOARCH = runtime.GOARCH
	}
	if opts.SearchDirs == nil {
		opts.SearchDirs = defaultSearchDirs(opts.GOOS)
	}
	if opts.Profile == "" {
		opts.Profile = "debug"
	}
	return &Manager{cfg: cfg, opts: opts}, nil
}

// ResolveAll resolves every declared dependency in name order and registers
// its contributions. A failed dependency fails the whole resolution, except
// where a kind defines its own fallback.
func (m *Manager) ResolveAll(ctx context.Context) ([]Resolved, error) {
	names := make([]string, 0, len(m.cfg.Dependencies))
	for name := range m.cfg.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		decl := m.cfg.Dependencies[name]
		slog.Info("resolving dependency", "name", name, "kind", decl.Kind())

		var (
			res Resolved
			err error
		)
		switch d := decl.(type) {
		case *config.GitDependency:
			res, err = m.resolveGit(ctx, name, d)
		case *config.VcpkgDependency:
			res, err = m.resolveVcpkg(ctx, name, d)
		case *config.SystemDependency:
			res, err = m.resolveSystem(ctx, name, d)
		case *config.LocalDependency:
			res, err = m.resolveLocal(ctx, name, d)
		default:
			err = fmt.Errorf("unknown dependency kind %q", decl.Kind())
		}
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", name, err)
		}
		m.register(res)
		m.resolved = append(m.resolved, res)
		slog.Info("resolved dependency", "name", name, "install", res.InstallDir)
	}
	return m.resolved, nil
}

// register folds a dependency's contributions into the session aggregates,
// deduplicating while preserving first-seen order.
func (m *Manager) register(res Resolved) {
	for _, dir := range res.IncludeDirs {
		m.includeDirs.add(dir)
	}
	for _, dir := range res.LibDirs {
		m.libDirs.add(dir)
	}
	for _, lib := range res.Libraries {
		m.libraries.add(lib)
	}
}

// IncludeDirs returns the aggregated include directories in registration order.
func (m *Manager) IncludeDirs() []string { return m.includeDirs.values() }

// LibDirs returns the aggregated library directories in registration order.
func (m *Manager) LibDirs() []string { return m.libDirs.values() }

// Libraries returns the aggregated library names in registration order.
func (m *Manager) Libraries() []string { return m.libraries.values() }

// runTool executes an external tool, honoring the injected Runner.
func (m *Manager) runTool(ctx context.Context, name string, args ...string) error {
	if m.opts.Runner != nil {
		return m.opts.Runner(ctx, "", nil, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// standardDirs collects the conventional include/ and lib/ subtrees of an
// install prefix that actually exist on disk.
func standardDirs(installDir string) (includes, libs []string) {
	for _, sub := range []string{"include", "inc"} {
		if dir := filepath.Join(installDir, sub); dirExists(dir) {
			includes = append(includes, dir)
		}
	}
	for _, sub := range []string{"lib", "lib64", "libs"} {
		if dir := filepath.Join(installDir, sub); dirExists(dir) {
			libs = append(libs, dir)
		}
	}
	return includes, libs
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// dirEmpty reports whether dir has no entries (or does not exist).
func dirEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err != nil || len(entries) == 0
}

// orderedSet keeps insertion order while rejecting duplicates.
type orderedSet struct {
	seen map[string]bool
	list []string
}

func (s *orderedSet) add(v string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.list = append(s.list, v)
}

func (s *orderedSet) values() []string { return s.list }
