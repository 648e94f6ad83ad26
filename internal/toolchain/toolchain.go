// Package toolchain picks the compiler executable for a build session and
// classifies its command-line dialect.
package toolchain

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cxxnode/cxxnode/internal/config"
)

// Kind is the command-line dialect of a compiler.
type Kind int

const (
	// GCCLike covers gcc, clang and anything speaking -I/-L/-l flags.
	GCCLike Kind = iota
	// MSVC covers cl and clang-cl, speaking /I and /link.
	MSVC
)

func (k Kind) String() string {
	if k == MSVC {
		return "msvc"
	}
	return "gcc-like"
}

// Info is the resolved compiler for one build session. It is derived once
// and never re-derived mid-build.
type Info struct {
	Path string
	Kind Kind
}

// Environment variables consulted for an explicit compiler override.
const (
	EnvCXX         = "CXX"
	EnvCXXCompiler = "CXX_COMPILER"
)

type candidate struct {
	name string
	kind Kind
}

// Selector resolves toolchains. LookPath is injectable for tests and
// defaults to exec.LookPath.
type Selector struct {
	LookPath func(name string) (string, error)
	Getenv   func(key string) string
	GOOS     string
}

// NewSelector returns a Selector bound to the host environment.
func NewSelector(goos string) *Selector {
	return &Selector{
		LookPath: exec.LookPath,
		Getenv:   os.Getenv,
		GOOS:     goos,
	}
}

// Select resolves a compiler. Priority: environment override, declared
// preference, platform default ordering. The kind is always derived from
// the executable actually found, not from the preference, since a declared
// preference can fall through to a different compiler.
func (s *Selector) Select(pref config.Toolchain) (Info, error) {
	for _, env := range []string{EnvCXX, EnvCXXCompiler} {
		name := s.Getenv(env)
		if name == "" {
			continue
		}
		path, err := s.LookPath(name)
		if err != nil {
			slog.Warn("compiler override not found on PATH, ignoring", "env", env, "value", name)
			continue
		}
		return Info{Path: path, Kind: KindOf(path)}, nil
	}

	var tried []string
	for _, cand := range s.candidates(pref) {
		path, err := s.LookPath(cand.name)
		if err != nil {
			tried = append(tried, cand.name)
			continue
		}
		return Info{Path: path, Kind: cand.kind}, nil
	}
	return Info{}, fmt.Errorf("no C++ compiler found (tried %s); install one or set %s",
		strings.Join(tried, ", "), EnvCXX)
}

// candidates returns the probe order for a preference on this platform.
func (s *Selector) candidates(pref config.Toolchain) []candidate {
	windows := s.GOOS == "windows"
	switch pref {
	case config.ToolchainMSVC:
		return []candidate{{"cl", MSVC}, {"clang-cl", MSVC}, {"clang++", GCCLike}, {"g++", GCCLike}}
	case config.ToolchainClang:
		return []candidate{{"clang++", GCCLike}, {"clang-cl", MSVC}, {"g++", GCCLike}, {"cl", MSVC}}
	case config.ToolchainGCC:
		return []candidate{{"g++", GCCLike}, {"clang++", GCCLike}, {"clang-cl", MSVC}, {"cl", MSVC}}
	default:
		if windows {
			return []candidate{{"cl", MSVC}, {"clang-cl", MSVC}, {"clang++", GCCLike}, {"g++", GCCLike}}
		}
		return []candidate{{"clang++", GCCLike}, {"g++", GCCLike}}
	}
}

// KindOf classifies an executable path by its base name.
func KindOf(path string) Kind {
	base := strings.ToLower(filepath.Base(path))
	base = strings.TrimSuffix(base, ".exe")
	if base == "cl" || base == "clang-cl" {
		return MSVC
	}
	return GCCLike
}
