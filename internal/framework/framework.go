// Package framework prepares the vendored Rust framework that generates the
// C++ bridge: cloning or updating a versioned checkout in the cache,
// building the bridge API crates with cargo, and locating the target
// directory their artifacts land in.
package framework

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cxxnode/cxxnode/internal/cache"
	"github.com/cxxnode/cxxnode/internal/config"
	"github.com/cxxnode/cxxnode/internal/vcs"
)

// EnvCargo overrides the cargo binary used for framework builds.
const EnvCargo = "CARGO"

// EnvTargetDir overrides target-directory discovery entirely.
const EnvTargetDir = "CXXNODE_TARGET_DIR"

// bridgeCrates are the API packages whose build emits the generated bridge
// headers and static libraries. Order matters: the node API crate carries
// the runtime types the operator API depends on.
var bridgeCrates = []string{
	"dora-node-api-cxx",
	"dora-operator-api-cxx",
}

// crateManifests maps each bridge crate to its manifest path inside the
// checkout, used as a fallback when workspace-level package selection is
// unavailable (older framework versions).
var crateManifests = map[string]string{
	"dora-node-api-cxx":     filepath.Join("apis", "c++", "node", "Cargo.toml"),
	"dora-operator-api-cxx": filepath.Join("apis", "c++", "operator", "Cargo.toml"),
}

// Runner executes an external tool. Tests inject one to observe cargo
// invocations without running cargo.
type Runner func(ctx context.Context, dir string, env map[string]string, name string, args ...string) error

// Options configures framework preparation.
type Options struct {
	CacheDir string
	Profile  string
	VCS      vcs.VCS
	Resolver *cache.Resolver
	Runner   Runner
	Getenv   func(string) string
}

// Manager prepares framework checkouts and builds their bridge crates.
type Manager struct {
	opts Options
}

func NewManager(opts Options) (*Manager, error) {
	if opts.CacheDir == "" {
		dir, err := cache.Dir()
		if err != nil {
			return nil, err
		}
		opts.CacheDir = filepath.Join(dir, "framework")
	}
	if opts.VCS == nil {
		opts.VCS = vcs.NewGit()
	}
	if opts.Resolver == nil {
		opts.Resolver = cache.NewResolver(opts.CacheDir, opts.VCS)
	}
	if opts.Profile == "" {
		opts.Profile = "debug"
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	return &Manager{opts: opts}, nil
}

// Prepare ensures a framework checkout for cfg exists in the cache and its
// bridge crates are built. It returns the checkout directory.
func (m *Manager) Prepare(ctx context.Context, cfg config.FrameworkConfig) (string, error) {
	url := cfg.Git
	if url == "" {
		url = config.DefaultFrameworkGit
	}
	checkout := m.opts.Resolver.ResolvePath(ctx, url, cfg.Rev)
	if err := m.opts.VCS.CloneOrUpdate(ctx, url, cfg.Rev, checkout); err != nil {
		return "", fmt.Errorf("preparing framework checkout: %w", err)
	}
	if err := m.buildBridgeCrates(ctx, checkout); err != nil {
		return "", err
	}
	return checkout, nil
}

// buildBridgeCrates builds each API crate, preferring workspace package
// selection and falling back to a per-manifest build when the package is
// not a workspace member in this framework version.
func (m *Manager) buildBridgeCrates(ctx context.Context, checkout string) error {
	cargo := m.cargoBin()
	for _, crate := range bridgeCrates {
		args := []string{"build", "--package", crate}
		if m.opts.Profile == "release" {
			args = append(args, "--release")
		}
		err := m.run(ctx, checkout, cargo, args...)
		if err == nil {
			continue
		}
		manifest, ok := crateManifests[crate]
		if !ok {
			return fmt.Errorf("building framework crate %s: %w", crate, err)
		}
		slog.Warn("workspace build failed, retrying with crate manifest",
			"crate", crate, "error", err)
		args = []string{"build", "--manifest-path", filepath.Join(checkout, manifest)}
		if m.opts.Profile == "release" {
			args = append(args, "--release")
		}
		if err := m.run(ctx, checkout, cargo, args...); err != nil {
			return fmt.Errorf("building framework crate %s: %w", crate, err)
		}
	}
	return nil
}

func (m *Manager) cargoBin() string {
	if cargo := m.opts.Getenv(EnvCargo); cargo != "" {
		return cargo
	}
	return "cargo"
}

func (m *Manager) run(ctx context.Context, dir, name string, args ...string) error {
	if m.opts.Runner != nil {
		return m.opts.Runner(ctx, dir, nil, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v: %w\n%s", name, args, err, out)
	}
	return nil
}

// FindTargetDir locates the cargo target directory holding bridge output.
// Precedence: the explicit flag value, the CXXNODE_TARGET_DIR environment
// variable, the checkout's own target directory, a third_party vendored
// checkout under the project, and finally the project's target directory.
func (m *Manager) FindTargetDir(flagValue, projectRoot, checkout string) string {
	if flagValue != "" {
		return flagValue
	}
	if dir := m.opts.Getenv(EnvTargetDir); dir != "" {
		return dir
	}
	candidates := []string{
		filepath.Join(checkout, "target"),
		filepath.Join(projectRoot, "third_party", "dora", "target"),
	}
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return filepath.Join(projectRoot, "target")
}
