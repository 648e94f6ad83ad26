// Package builder runs the full build pipeline for a node: framework
// preparation, dependency resolution, toolchain selection, bridge artifact
// discovery, and the final compiler invocation.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cxxnode/cxxnode/internal/bridge"
	"github.com/cxxnode/cxxnode/internal/compile"
	"github.com/cxxnode/cxxnode/internal/config"
	"github.com/cxxnode/cxxnode/internal/deps"
	"github.com/cxxnode/cxxnode/internal/framework"
	"github.com/cxxnode/cxxnode/internal/toolchain"
)

// Options control one build session. Zero values pick the platform
// defaults.
type Options struct {
	ProjectRoot  string
	TargetDir    string // --target-dir flag; "" means discover
	Output       string // --out flag; "" means target/<profile>/<name>
	ForceRebuild bool
	Verbose      bool
	GOOS         string
}

// Builder drives the pipeline for one loaded configuration.
type Builder struct {
	cfg  *config.Config
	opts Options
}

func New(cfg *config.Config, opts Options) *Builder {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	return &Builder{cfg: cfg, opts: opts}
}

// Build runs the pipeline and returns the path of the produced executable.
// Stages run strictly in order; each stage only consumes the outputs of
// earlier ones.
func (b *Builder) Build(ctx context.Context) (string, error) {
	build := &b.cfg.Build
	root := b.opts.ProjectRoot

	// Framework checkout and bridge API crates.
	var checkout string
	fw, err := framework.NewManager(framework.Options{Profile: build.Profile})
	if err != nil {
		return "", err
	}
	if b.cfg.Framework != nil && b.cfg.Framework.Enabled {
		checkout, err = fw.Prepare(ctx, *b.cfg.Framework)
		if err != nil {
			return "", err
		}
		slog.Info("framework ready", "checkout", checkout)
	}
	targetDir := fw.FindTargetDir(b.opts.TargetDir, root, checkout)

	// Declared dependencies.
	mgr, err := deps.NewManager(b.cfg, deps.Options{
		Profile:      build.Profile,
		Jobs:         build.ParallelJobs,
		ForceRebuild: b.opts.ForceRebuild,
	})
	if err != nil {
		return "", err
	}
	resolved, err := mgr.ResolveAll(ctx)
	if err != nil {
		return "", err
	}
	slog.Info("dependencies resolved", "count", len(resolved))

	// Compiler.
	selector := toolchain.NewSelector(b.opts.GOOS)
	compiler, err := selector.Select(build.Toolchain)
	if err != nil {
		return "", err
	}
	slog.Info("toolchain selected", "compiler", compiler.Path, "kind", compiler.Kind)

	// Bridge artifacts out of the framework build.
	frameworkOn := b.cfg.Framework != nil && b.cfg.Framework.Enabled
	set, bridgeLibDir, err := bridgeArtifacts(targetDir, build.Profile, checkout, compiler.Kind, frameworkOn)
	if err != nil {
		return "", err
	}

	// Compilation set.
	sources, err := compile.CollectSources(root, build.Sources, build.ExcludeSources)
	if err != nil {
		return "", err
	}
	sources = append(sources, set.GeneratedSources...)

	output := b.opts.Output
	if output == "" {
		output = compile.OutputName(filepath.Join(root, "target", build.Profile), b.cfg.Node.Name, b.opts.GOOS)
	} else {
		output = absolute(root, output)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	// cl writes object files next to the working directory unless routed.
	objDir := ""
	if compiler.Kind == toolchain.MSVC {
		objDir = filepath.Join(root, "target", build.Profile, "build")
		if err := os.MkdirAll(objDir, 0o755); err != nil {
			return "", fmt.Errorf("creating object dir: %w", err)
		}
	}

	cxxflags, ldflags, err := extraFlags(build)
	if err != nil {
		return "", err
	}

	in := compile.Input{
		Compiler: compiler,
		GOOS:     b.opts.GOOS,
		Profile:  build.Profile,
		Std:      build.Std,
		Sources:  sources,
		Output:   output,
		ObjDir:   objDir,
		CXXFlags: cxxflags,
		LDFlags:  ldflags,
	}

	// Search-path precedence: project, dependencies, bridge output,
	// framework companion trees (already ordered inside the set).
	for _, dir := range build.IncludeDirs {
		in.IncludeDirs = append(in.IncludeDirs, absolute(root, dir))
	}
	in.IncludeDirs = append(in.IncludeDirs, mgr.IncludeDirs()...)
	in.IncludeDirs = append(in.IncludeDirs, set.IncludeDirs...)

	for _, dir := range build.LibDirs {
		in.LibDirs = append(in.LibDirs, absolute(root, dir))
	}
	in.LibDirs = append(in.LibDirs, mgr.LibDirs()...)
	if dirExists(bridgeLibDir) {
		in.LibDirs = append(in.LibDirs, bridgeLibDir)
	}

	in.Libraries = append(in.Libraries, build.Libraries...)
	in.Libraries = append(in.Libraries, mgr.Libraries()...)
	in.Libraries = append(in.Libraries, bridge.PrebuiltLibraries(bridgeLibDir, compiler.Kind)...)

	cmd := compile.Assemble(in)
	slog.Debug("compiler command assembled", "argv", len(cmd.Args)+1)

	exe := &compile.Executor{
		Timeout:          time.Duration(build.BuildTimeout) * time.Second,
		ShowAllWarnings:  build.ShowAllWarnings || b.opts.Verbose,
		SuppressWarnings: build.SuppressWarnings,
		SuppressPatterns: build.WarningPatterns,
	}
	if err := exe.Run(ctx, cmd, output); err != nil {
		return "", err
	}
	return output, nil
}

// bridgeArtifacts discovers the generated bridge outputs under targetDir
// and prepares the include set. The framework's hand-written API trees are
// appended after the discovered directories, so the search-path precedence
// stays project, dependencies, bridge, framework companion. When the
// framework is enabled an empty scan is fatal: compiling without any bridge
// output cannot link.
func bridgeArtifacts(targetDir, profile, checkout string, kind toolchain.Kind, frameworkOn bool) (*bridge.ArtifactSet, string, error) {
	set := bridge.Discover(targetDir, profile)
	if frameworkOn && set.Empty() {
		return nil, "", fmt.Errorf("no bridge outputs found under %s; build the framework or pass --target-dir", targetDir)
	}
	libDir := bridge.LibDir(targetDir, profile)
	bridge.ExcludePrebuilt(set, libDir, kind)
	if !set.Empty() {
		if _, err := bridge.StageHeaders(set, targetDir, profile); err != nil {
			return nil, "", err
		}
	}
	for _, dir := range bridge.CompanionIncludes(checkout) {
		set.AddInclude(dir)
	}
	return set, libDir, nil
}

// extraFlags merges the list-form flags with the single-string variants,
// which obey shell quoting rules.
func extraFlags(build *config.BuildConfig) (cxx, ld []string, err error) {
	cxx = append(cxx, build.CXXFlags...)
	ld = append(ld, build.LDFlags...)
	if build.ExtraCXXFlags != "" {
		parts, err := compile.SplitFlagString(build.ExtraCXXFlags)
		if err != nil {
			return nil, nil, err
		}
		cxx = append(cxx, parts...)
	}
	if build.ExtraLDFlags != "" {
		parts, err := compile.SplitFlagString(build.ExtraLDFlags)
		if err != nil {
			return nil, nil, err
		}
		ld = append(ld, parts...)
	}
	return cxx, ld, nil
}

func absolute(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
