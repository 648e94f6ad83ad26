package deps

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cxxnode/cxxnode/internal/config"
)

// vcpkgKnownLocations are probed when the executable is not on PATH.
var vcpkgKnownLocations = []string{
	`C:\vcpkg\vcpkg.exe`,
	`C:\tools\vcpkg\vcpkg.exe`,
	"/usr/local/bin/vcpkg",
	"/opt/vcpkg/vcpkg",
}

// resolveVcpkg installs a package through vcpkg. There is no local build
// step: Installed means the manager reports the package present in its own
// tree for the platform triplet.
func (m *Manager) resolveVcpkg(ctx context.Context, name string, dep *config.VcpkgDependency) (Resolved, error) {
	exe, err := m.findVcpkg()
	if err != nil {
		return Resolved{}, err
	}

	triplet := dep.Triplet
	if triplet == "" {
		triplet = detectTriplet(m.opts.GOOS, m.opts.GOARCH)
	}
	if dep.Version != "" {
		// Classic-mode vcpkg installs cannot pin versions; manifests can.
		slog.Warn("vcpkg version constraint ignored by classic install", "package", dep.Name, "version", dep.Version)
	}

	args := []string{"install", dep.Name}
	for _, feature := range dep.Features {
		args = append(args, fmt.Sprintf("%s[%s]", dep.Name, feature))
	}
	args = append(args, "--triplet", triplet)

	slog.Info("installing with vcpkg", "package", dep.Name, "triplet", triplet)
	if err := m.runTool(ctx, exe, args...); err != nil {
		return Resolved{}, fmt.Errorf("vcpkg install %s: %w", dep.Name, err)
	}

	// Source and install coincide: the manager owns the tree.
	installDir := filepath.Join(filepath.Dir(filepath.Dir(exe)), "installed", triplet)
	res := Resolved{
		Name:       name,
		SourceDir:  installDir,
		InstallDir: installDir,
	}
	res.IncludeDirs = append(res.IncludeDirs, filepath.Join(installDir, "include"))
	libDir := filepath.Join(installDir, "lib")
	if dirExists(libDir) {
		res.LibDirs = append(res.LibDirs, libDir)
		res.Libraries = append(res.Libraries, discoverLibraries(libDir)...)
	}
	return res, nil
}

// findVcpkg locates the vcpkg executable on PATH or in known install spots.
func (m *Manager) findVcpkg() (string, error) {
	for _, name := range []string{"vcpkg", "vcpkg.exe"} {
		if path, err := m.opts.LookPath(name); err == nil {
			return path, nil
		}
	}
	locations := m.opts.VcpkgLocations
	if locations == nil {
		locations = vcpkgKnownLocations
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc, nil
		}
	}
	return "", fmt.Errorf("vcpkg not found on PATH or in known install locations")
}

// detectTriplet maps the host platform to a vcpkg triplet.
func detectTriplet(goos, goarch string) string {
	arch := "x64"
	switch goarch {
	case "386":
		arch = "x86"
	case "arm64":
		arch = "arm64"
	}
	switch goos {
	case "windows":
		return arch + "-windows"
	case "darwin":
		return arch + "-osx"
	default:
		return arch + "-linux"
	}
}

// discoverLibraries derives linkable names from the library files in dir,
// stripping platform prefixes and suffixes.
func discoverLibraries(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var libs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name, ok := LibraryName(entry.Name()); ok {
			libs = append(libs, name)
		}
	}
	return libs
}

// LibraryName strips platform-specific decoration from a library filename,
// returning the logical name usable as a -l/<name>.lib argument.
func LibraryName(filename string) (string, bool) {
	base := filename
	switch {
	case strings.HasSuffix(base, ".lib"):
		base = strings.TrimSuffix(base, ".lib")
	case strings.HasSuffix(base, ".a"):
		base = strings.TrimSuffix(base, ".a")
	case strings.HasSuffix(base, ".so"):
		base = strings.TrimSuffix(base, ".so")
	case strings.HasSuffix(base, ".dylib"):
		base = strings.TrimSuffix(base, ".dylib")
	default:
		return "", false
	}
	base = strings.TrimPrefix(base, "lib")
	if base == "" {
		return "", false
	}
	return base, true
}
