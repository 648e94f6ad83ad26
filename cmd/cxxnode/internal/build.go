package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cxxnode/cxxnode/internal/builder"
	"github.com/cxxnode/cxxnode/internal/config"
)

var (
	buildTargetDir string
	buildOut       string
	buildForce     bool
	buildProfile   string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the current node",
	Long:  `Build resolves dependencies and compiles the node in the current project.`,
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildTargetDir, "target-dir", "", "Framework target directory holding bridge output")
	buildCmd.Flags().StringVar(&buildOut, "out", "", "Output executable path")
	buildCmd.Flags().BoolVar(&buildForce, "force-rebuild", false, "Rebuild cached dependencies")
	buildCmd.Flags().StringVar(&buildProfile, "profile", "", "Build profile (debug or release)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}
	if buildProfile != "" {
		cfg.Build.Profile = buildProfile
	}

	b := builder.New(cfg, builder.Options{
		ProjectRoot:  root,
		TargetDir:    buildTargetDir,
		Output:       buildOut,
		ForceRebuild: buildForce,
		Verbose:      verbose,
	})
	output, err := b.Build(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("built %s\n", output)
	return nil
}

// loadProject walks up from the working directory to the nearest manifest,
// loads it and reports any validation warnings. The --config flag skips the
// walk and names the manifest directly.
func loadProject() (string, *config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", nil, err
	}
	var root, manifest string
	if configPath != "" {
		manifest, err = filepath.Abs(configPath)
		if err != nil {
			return "", nil, err
		}
		root = filepath.Dir(manifest)
	} else {
		root = config.FindProjectRoot(wd)
		manifest = filepath.Join(root, config.FileName)
	}
	if _, err := os.Stat(manifest); err != nil {
		if configPath != "" {
			return "", nil, fmt.Errorf("manifest %s not found", manifest)
		}
		return "", nil, fmt.Errorf("%s not found in %s or any parent directory", config.FileName, wd)
	}
	cfg, err := config.Load(manifest)
	if err != nil {
		return "", nil, err
	}
	for _, warning := range config.Validate(cfg) {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	return root, cfg, nil
}
