package compile

import (
	"slices"
	"strings"
	"testing"

	"github.com/cxxnode/cxxnode/internal/toolchain"
)

func TestAssembleGCC(t *testing.T) {
	cmd := Assemble(Input{
		Compiler:    toolchain.Info{Path: "/usr/bin/clang++", Kind: toolchain.GCCLike},
		GOOS:        "linux",
		Profile:     "release",
		Std:         "c++17",
		Sources:     []string{"main.cc", "bridge/lib.rs.cc"},
		IncludeDirs: []string{"/proj/include", "/deps/include"},
		LibDirs:     []string{"/deps/lib"},
		Libraries:   []string{"fmt", "dora_node_api_cxx"},
		CXXFlags:    []string{"-Wall"},
		Output:      "/proj/target/release/node",
	})

	if cmd.Path != "/usr/bin/clang++" {
		t.Errorf("path = %q", cmd.Path)
	}
	args := cmd.Args
	for _, want := range []string{
		"-std=c++17", "-O2", "-Wall",
		"-I/proj/include", "-I/deps/include",
		"main.cc", "bridge/lib.rs.cc",
		"-o", "/proj/target/release/node",
		"-L/deps/lib", "-lfmt", "-ldora_node_api_cxx", "-pthread",
	} {
		if !slices.Contains(args, want) {
			t.Errorf("missing arg %q in %v", want, args)
		}
	}
	// Include order carries precedence.
	if slices.Index(args, "-I/proj/include") > slices.Index(args, "-I/deps/include") {
		t.Error("project include must precede dependency include")
	}
	// Libraries come after objects for single-pass linkers.
	if slices.Index(args, "-lfmt") < slices.Index(args, "main.cc") {
		t.Error("libraries must follow sources")
	}
}

func TestAssembleGCCDebugProfile(t *testing.T) {
	cmd := Assemble(Input{
		Compiler: toolchain.Info{Path: "g++", Kind: toolchain.GCCLike},
		GOOS:     "linux",
		Profile:  "debug",
		Std:      "c++17",
		Sources:  []string{"main.cc"},
		Output:   "node",
	})
	if !slices.Contains(cmd.Args, "-g") || !slices.Contains(cmd.Args, "-O0") {
		t.Errorf("debug profile flags missing: %v", cmd.Args)
	}
}

func TestAssembleMSVC(t *testing.T) {
	cmd := Assemble(Input{
		Compiler:    toolchain.Info{Path: `cl`, Kind: toolchain.MSVC},
		GOOS:        "windows",
		Profile:     "release",
		Std:         "c++17",
		Sources:     []string{"main.cc"},
		IncludeDirs: []string{`C:\deps\include`},
		LibDirs:     []string{`C:\deps\lib`},
		Libraries:   []string{"fmt"},
		CXXFlags:    []string{"-Wall"},
		Output:      `target\node.exe`,
		ObjDir:      `target\build`,
	})

	args := cmd.Args
	for _, want := range []string{
		"/std:c++17", "/EHsc", "/MD", "/O2", "/W3",
		`/IC:\deps\include`, `/Fotarget\build\`, "main.cc", `/Fe:target\node.exe`,
		"/link", `/LIBPATH:C:\deps\lib`, "fmt.lib", "ws2_32.lib",
	} {
		if !slices.Contains(args, want) {
			t.Errorf("missing arg %q in %v", want, args)
		}
	}
	linkAt := slices.Index(args, "/link")
	if linkAt < 0 {
		t.Fatal("missing /link separator")
	}
	if slices.Index(args, `/LIBPATH:C:\deps\lib`) < linkAt {
		t.Error("LIBPATH must come after /link")
	}
	if slices.Index(args, "/W3") > linkAt {
		t.Error("compile flags must come before /link")
	}
}

func TestAssembleMSVCWithoutObjDir(t *testing.T) {
	cmd := Assemble(Input{
		Compiler: toolchain.Info{Path: `cl`, Kind: toolchain.MSVC},
		GOOS:     "windows",
		Profile:  "debug",
		Std:      "c++17",
		Sources:  []string{"main.cc"},
		Output:   `node.exe`,
	})
	// /MD is unconditional, object routing is not.
	if !slices.Contains(cmd.Args, "/MD") {
		t.Errorf("/MD missing: %v", cmd.Args)
	}
	for _, arg := range cmd.Args {
		if strings.HasPrefix(arg, "/Fo") {
			t.Errorf("unexpected object routing %q", arg)
		}
	}
}

func TestAssembleWindowsGCCSysLibs(t *testing.T) {
	cmd := Assemble(Input{
		Compiler: toolchain.Info{Path: "g++", Kind: toolchain.GCCLike},
		GOOS:     "windows",
		Profile:  "debug",
		Std:      "c++17",
		Sources:  []string{"main.cc"},
		Output:   "node.exe",
	})
	if !slices.Contains(cmd.Args, "-lws2_32") {
		t.Errorf("windows system libs missing: %v", cmd.Args)
	}
	if slices.Contains(cmd.Args, "-pthread") {
		t.Error("-pthread must not appear on windows")
	}
}

func TestOutputName(t *testing.T) {
	if got := OutputName("target", "node", "linux"); !strings.HasSuffix(got, "node") {
		t.Errorf("OutputName linux = %q", got)
	}
	if got := OutputName("target", "node", "windows"); !strings.HasSuffix(got, "node.exe") {
		t.Errorf("OutputName windows = %q", got)
	}
}
