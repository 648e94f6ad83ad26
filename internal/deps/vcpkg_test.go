package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cxxnode/cxxnode/internal/config"
)

func TestDetectTriplet(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
	}{
		{"windows", "amd64", "x64-windows"},
		{"windows", "386", "x86-windows"},
		{"windows", "arm64", "arm64-windows"},
		{"darwin", "amd64", "x64-osx"},
		{"darwin", "arm64", "arm64-osx"},
		{"linux", "amd64", "x64-linux"},
		{"linux", "arm64", "arm64-linux"},
	}
	for _, tt := range tests {
		if got := detectTriplet(tt.goos, tt.goarch); got != tt.want {
			t.Errorf("detectTriplet(%s, %s) = %q, want %q", tt.goos, tt.goarch, got, tt.want)
		}
	}
}

func TestLibraryName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"libssl.a", "ssl", true},
		{"libssl.so", "ssl", true},
		{"libfmt.dylib", "fmt", true},
		{"fmt.lib", "fmt", true},
		{"opencv_core.lib", "opencv_core", true},
		{"lib.a", "", false},
		{"README.md", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		got, ok := LibraryName(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("LibraryName(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolveVcpkg(t *testing.T) {
	vcpkgRoot := t.TempDir()
	exe := filepath.Join(vcpkgRoot, "bin", "vcpkg")
	if err := os.MkdirAll(filepath.Dir(exe), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	libDir := filepath.Join(vcpkgRoot, "installed", "x64-linux", "lib")
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(libDir, "libopencv_core.a"), []byte("!"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotArgs []string
	runner := func(ctx context.Context, dir string, env map[string]string, name string, args ...string) error {
		gotArgs = append([]string{name}, args...)
		return nil
	}

	m := newTestManager(t, configWith(map[string]config.Dependency{
		"opencv": &config.VcpkgDependency{Name: "opencv4", Features: []string{"contrib"}},
	}), Options{
		Runner:         runner,
		VcpkgLocations: []string{exe},
	})

	resolved, err := m.ResolveAll(context.Background())
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}

	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"install", "opencv4", "opencv4[contrib]", "--triplet", "x64-linux"} {
		if !strings.Contains(joined, want) {
			t.Errorf("vcpkg invocation missing %q: %s", want, joined)
		}
	}

	res := resolved[0]
	wantInstall := filepath.Join(vcpkgRoot, "installed", "x64-linux")
	if res.InstallDir != wantInstall {
		t.Errorf("InstallDir = %q, want %q", res.InstallDir, wantInstall)
	}
	if len(res.Libraries) != 1 || res.Libraries[0] != "opencv_core" {
		t.Errorf("Libraries = %v", res.Libraries)
	}
}

func TestResolveVcpkgExplicitTriplet(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "vcpkg")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	var gotArgs []string
	runner := func(ctx context.Context, dir string, env map[string]string, name string, args ...string) error {
		gotArgs = args
		return nil
	}
	m := newTestManager(t, configWith(map[string]config.Dependency{
		"fmt": &config.VcpkgDependency{Name: "fmt", Triplet: "arm64-osx"},
	}), Options{Runner: runner, VcpkgLocations: []string{exe}})

	if _, err := m.ResolveAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(strings.Join(gotArgs, " "), "--triplet arm64-osx") {
		t.Errorf("explicit triplet not honored: %v", gotArgs)
	}
}

func TestFindVcpkgNotFound(t *testing.T) {
	m := newTestManager(t, configWith(nil), Options{
		LookPath:       func(string) (string, error) { return "", errors.New("nope") },
		VcpkgLocations: []string{filepath.Join(t.TempDir(), "missing")},
	})
	if _, err := m.findVcpkg(); err == nil {
		t.Fatal("expected error when vcpkg is nowhere")
	}
}
