package compile

import (
	"path/filepath"

	"github.com/cxxnode/cxxnode/internal/toolchain"
)

// windowsSysLibs must always join the link set on Windows: networking and
// runtime facilities the bridge libraries pull in transitively.
var windowsSysLibs = []string{
	"ws2_32", "userenv", "bcrypt", "ole32", "oleaut32",
	"advapi32", "ntdll", "shell32",
}

// Input carries everything the assembler needs to build one compiler
// invocation. Include and library directories are already in precedence
// order: project paths first, then dependency paths, then discovered
// bridge paths.
type Input struct {
	Compiler toolchain.Info
	GOOS     string

	Profile string
	Std     string // e.g. "c++17"

	Sources     []string
	IncludeDirs []string
	LibDirs     []string
	Libraries   []string

	CXXFlags []string
	LDFlags  []string

	Output string
	ObjDir string // MSVC object-file directory; ignored by GCC-like drivers
}

// Command is a fully-assembled compiler invocation.
type Command struct {
	Path string
	Args []string
}

// Assemble builds the argument vector for the selected compiler. The two
// dialects differ structurally: MSVC separates compile and link arguments
// with /link, GCC-like drivers interleave them.
func Assemble(in Input) Command {
	if in.Compiler.Kind == toolchain.MSVC {
		return assembleMSVC(in)
	}
	return assembleGCC(in)
}

func assembleGCC(in Input) Command {
	args := []string{"-std=" + in.Std}
	args = append(args, profileFlags(in.Profile, toolchain.GCCLike)...)
	args = append(args, TranslateFlags(in.CXXFlags, toolchain.GCCLike)...)
	for _, dir := range in.IncludeDirs {
		args = append(args, IncludeArg(dir, toolchain.GCCLike))
	}
	args = append(args, in.Sources...)
	args = append(args, "-o", in.Output)
	for _, dir := range in.LibDirs {
		args = append(args, LibDirArg(dir, toolchain.GCCLike))
	}
	for _, lib := range in.Libraries {
		args = append(args, LibraryArg(lib, toolchain.GCCLike))
	}
	args = append(args, TranslateFlags(in.LDFlags, toolchain.GCCLike)...)
	if in.GOOS == "windows" {
		for _, lib := range windowsSysLibs {
			args = append(args, LibraryArg(lib, toolchain.GCCLike))
		}
	} else {
		args = append(args, "-pthread")
	}
	return Command{Path: in.Compiler.Path, Args: args}
}

func assembleMSVC(in Input) Command {
	// /MD always: the bridge staticlibs are built against the dynamic
	// release runtime, and mixing runtimes fails at link time.
	args := []string{"/std:" + in.Std, "/EHsc", "/nologo", "/MD"}
	args = append(args, profileFlags(in.Profile, toolchain.MSVC)...)
	args = append(args, TranslateFlags(in.CXXFlags, toolchain.MSVC)...)
	for _, dir := range in.IncludeDirs {
		args = append(args, IncludeArg(dir, toolchain.MSVC))
	}
	if in.ObjDir != "" {
		args = append(args, "/Fo"+in.ObjDir+`\`)
	}
	args = append(args, in.Sources...)
	args = append(args, "/Fe:"+in.Output)

	link := []string{"/link"}
	for _, dir := range in.LibDirs {
		link = append(link, LibDirArg(dir, toolchain.MSVC))
	}
	for _, lib := range in.Libraries {
		link = append(link, LibraryArg(lib, toolchain.MSVC))
	}
	link = append(link, TranslateFlags(in.LDFlags, toolchain.MSVC)...)
	for _, lib := range windowsSysLibs {
		link = append(link, LibraryArg(lib, toolchain.MSVC))
	}
	return Command{Path: in.Compiler.Path, Args: append(args, link...)}
}

func profileFlags(profile string, kind toolchain.Kind) []string {
	switch {
	case profile == "release" && kind == toolchain.MSVC:
		return []string{"/O2"}
	case profile == "release":
		return []string{"-O2"}
	case kind == toolchain.MSVC:
		return []string{"/Zi", "/Od"}
	default:
		return []string{"-g", "-O0"}
	}
}

// OutputName appends the platform executable suffix.
func OutputName(dir, name, goos string) string {
	if goos == "windows" {
		name += ".exe"
	}
	return filepath.Join(dir, name)
}
