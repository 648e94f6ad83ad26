package framework

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cxxnode/cxxnode/internal/config"
)

type fakeVCS struct {
	tags   []string
	cloned []string
}

func (f *fakeVCS) CloneOrUpdate(ctx context.Context, remote, ref, dir string) error {
	f.cloned = append(f.cloned, remote+"@"+ref)
	return os.MkdirAll(dir, 0o755)
}

func (f *fakeVCS) Tags(ctx context.Context, remote string) ([]string, error) {
	return f.tags, nil
}

type call struct {
	name string
	args []string
}

func newTestManager(t *testing.T, calls *[]call, failPackages bool) *Manager {
	t.Helper()
	runner := func(ctx context.Context, dir string, env map[string]string, name string, args ...string) error {
		*calls = append(*calls, call{name, args})
		if failPackages && len(args) > 1 && args[1] == "--package" {
			return errors.New("package not a workspace member")
		}
		return nil
	}
	m, err := NewManager(Options{
		CacheDir: t.TempDir(),
		VCS:      &fakeVCS{tags: []string{"v0.3.5"}},
		Runner:   runner,
		Getenv:   func(string) string { return "" },
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestPrepare(t *testing.T) {
	var calls []call
	m := newTestManager(t, &calls, false)

	checkout, err := m.Prepare(context.Background(), config.FrameworkConfig{
		Git:     "https://github.com/dora-rs/dora",
		Rev:     "v0.3.5",
		Enabled: true,
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if filepath.Base(checkout) != "dora-v0.3.5" {
		t.Errorf("checkout = %q", checkout)
	}
	if len(calls) != 2 {
		t.Fatalf("cargo ran %d times, want one build per bridge crate", len(calls))
	}
	for i, crate := range []string{"dora-node-api-cxx", "dora-operator-api-cxx"} {
		joined := strings.Join(calls[i].args, " ")
		if calls[i].name != "cargo" || !strings.Contains(joined, "--package "+crate) {
			t.Errorf("call[%d] = %s %s", i, calls[i].name, joined)
		}
	}
}

func TestPrepareDefaultsGitURL(t *testing.T) {
	var calls []call
	m := newTestManager(t, &calls, false)
	vcs := m.opts.VCS.(*fakeVCS)

	_, err := m.Prepare(context.Background(), config.FrameworkConfig{Enabled: true, Rev: "v1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vcs.cloned) != 1 || !strings.HasPrefix(vcs.cloned[0], config.DefaultFrameworkGit) {
		t.Errorf("cloned = %v", vcs.cloned)
	}
}

func TestPrepareManifestFallback(t *testing.T) {
	var calls []call
	m := newTestManager(t, &calls, true)

	if _, err := m.Prepare(context.Background(), config.FrameworkConfig{Rev: "v1", Enabled: true}); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	// Each crate: failed workspace build, then manifest-path retry.
	if len(calls) != 4 {
		t.Fatalf("cargo ran %d times, want 4", len(calls))
	}
	retry := strings.Join(calls[1].args, " ")
	if !strings.Contains(retry, "--manifest-path") || !strings.Contains(retry, filepath.Join("apis", "c++", "node", "Cargo.toml")) {
		t.Errorf("retry call = %s", retry)
	}
}

func TestPrepareReleaseProfile(t *testing.T) {
	var calls []call
	runner := func(ctx context.Context, dir string, env map[string]string, name string, args ...string) error {
		calls = append(calls, call{name, args})
		return nil
	}
	m, err := NewManager(Options{
		CacheDir: t.TempDir(),
		VCS:      &fakeVCS{},
		Runner:   runner,
		Profile:  "release",
		Getenv:   func(string) string { return "" },
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Prepare(context.Background(), config.FrameworkConfig{Rev: "v1", Enabled: true}); err != nil {
		t.Fatal(err)
	}
	for _, c := range calls {
		found := false
		for _, a := range c.args {
			if a == "--release" {
				found = true
			}
		}
		if !found {
			t.Errorf("release build missing --release: %v", c.args)
		}
	}
}

func TestCargoEnvOverride(t *testing.T) {
	var calls []call
	runner := func(ctx context.Context, dir string, env map[string]string, name string, args ...string) error {
		calls = append(calls, call{name, args})
		return nil
	}
	m, err := NewManager(Options{
		CacheDir: t.TempDir(),
		VCS:      &fakeVCS{},
		Runner:   runner,
		Getenv: func(key string) string {
			if key == EnvCargo {
				return "/opt/rust/bin/cargo"
			}
			return ""
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Prepare(context.Background(), config.FrameworkConfig{Rev: "v1", Enabled: true}); err != nil {
		t.Fatal(err)
	}
	if calls[0].name != "/opt/rust/bin/cargo" {
		t.Errorf("cargo binary = %q", calls[0].name)
	}
}

func TestFindTargetDir(t *testing.T) {
	project := t.TempDir()
	checkout := t.TempDir()

	m, err := NewManager(Options{
		CacheDir: t.TempDir(),
		VCS:      &fakeVCS{},
		Getenv:   func(string) string { return "" },
	})
	if err != nil {
		t.Fatal(err)
	}

	// Nothing exists: project target fallback.
	if got := m.FindTargetDir("", project, checkout); got != filepath.Join(project, "target") {
		t.Errorf("fallback = %q", got)
	}

	// Vendored third_party checkout beats the project fallback.
	vendored := filepath.Join(project, "third_party", "dora", "target")
	if err := os.MkdirAll(vendored, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := m.FindTargetDir("", project, checkout); got != vendored {
		t.Errorf("vendored = %q", got)
	}

	// Checkout target beats vendored.
	checkoutTarget := filepath.Join(checkout, "target")
	if err := os.MkdirAll(checkoutTarget, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := m.FindTargetDir("", project, checkout); got != checkoutTarget {
		t.Errorf("checkout = %q", got)
	}

	// Flag beats everything.
	if got := m.FindTargetDir("/explicit", project, checkout); got != "/explicit" {
		t.Errorf("flag = %q", got)
	}
}

func TestFindTargetDirEnvOverride(t *testing.T) {
	m, err := NewManager(Options{
		CacheDir: t.TempDir(),
		VCS:      &fakeVCS{},
		Getenv: func(key string) string {
			if key == EnvTargetDir {
				return "/from/env"
			}
			return ""
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.FindTargetDir("", t.TempDir(), ""); got != "/from/env" {
		t.Errorf("env override = %q", got)
	}
	if got := m.FindTargetDir("/flag", t.TempDir(), ""); got != "/flag" {
		t.Errorf("flag must beat env, got %q", got)
	}
}
