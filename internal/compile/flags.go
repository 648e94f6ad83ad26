package compile

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/cxxnode/cxxnode/internal/toolchain"
)

// Flags are written in the GCC dialect and translated when the selected
// compiler speaks MSVC. Exact-match flags first, then prefix rewrites.
var gccToMSVC = map[string]string{
	"-Wall":   "/W3",
	"-Wextra": "/W4",
	"-Werror": "/WX",
	"-w":      "/w",
	"-O0":     "/Od",
	"-O1":     "/O1",
	"-O2":     "/O2",
	"-O3":     "/Ox",
	"-Os":     "/O1",
	"-g":      "/Zi",
	"-c":      "/c",
	"-fPIC":   "", // position independence is implicit on Windows
}

var gccPrefixToMSVC = []struct{ from, to string }{
	{"-std=", "/std:"},
	{"-D", "/D"},
	{"-I", "/I"},
	{"-L", "/LIBPATH:"},
}

// SplitFlagString splits a shell-quoted flag string into individual
// arguments, so manifests can carry flags the way Makefiles do.
func SplitFlagString(s string) ([]string, error) {
	flags, err := shellquote.Split(s)
	if err != nil {
		return nil, fmt.Errorf("parsing flags %q: %w", s, err)
	}
	return flags, nil
}

// TranslateFlags rewrites GCC-dialect flags for the target compiler kind.
// For GCC-like compilers flags pass through untouched. For MSVC, flags with
// no known translation are dropped with a warning rather than failing the
// build, since most one-off GCC flags have no MSVC meaning.
func TranslateFlags(flags []string, kind toolchain.Kind) []string {
	if kind != toolchain.MSVC {
		return flags
	}
	out := make([]string, 0, len(flags))
	for _, flag := range flags {
		translated, ok := translateMSVC(flag)
		if !ok {
			slog.Warn("flag has no MSVC equivalent, dropping", "flag", flag)
			continue
		}
		if translated != "" {
			out = append(out, translated)
		}
	}
	return out
}

func translateMSVC(flag string) (string, bool) {
	if !strings.HasPrefix(flag, "-") {
		return flag, true
	}
	if translated, ok := gccToMSVC[flag]; ok {
		return translated, true
	}
	for _, p := range gccPrefixToMSVC {
		if strings.HasPrefix(flag, p.from) {
			return p.to + flag[len(p.from):], true
		}
	}
	if name, ok := strings.CutPrefix(flag, "-l"); ok && name != "" {
		return name + ".lib", true
	}
	return "", false
}

// LibraryArg renders a library reference for the compiler kind: -l<name>
// for GCC-like drivers, <name>.lib for MSVC. Names already carrying a file
// extension pass through unchanged.
func LibraryArg(name string, kind toolchain.Kind) string {
	if strings.ContainsRune(name, '.') {
		return name
	}
	if kind == toolchain.MSVC {
		return name + ".lib"
	}
	return "-l" + name
}

// IncludeArg renders an include-directory argument.
func IncludeArg(dir string, kind toolchain.Kind) string {
	if kind == toolchain.MSVC {
		return "/I" + dir
	}
	return "-I" + dir
}

// LibDirArg renders a library-search-path argument.
func LibDirArg(dir string, kind toolchain.Kind) string {
	if kind == toolchain.MSVC {
		return "/LIBPATH:" + dir
	}
	return "-L" + dir
}
