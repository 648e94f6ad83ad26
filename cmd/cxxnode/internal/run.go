package internal

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/cxxnode/cxxnode/internal/builder"
)

var runCmd = &cobra.Command{
	Use:   "run [-- args...]",
	Short: "Build the current node and run it",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&buildTargetDir, "target-dir", "", "Framework target directory holding bridge output")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}
	b := builder.New(cfg, builder.Options{
		ProjectRoot: root,
		TargetDir:   buildTargetDir,
		Verbose:     verbose,
	})
	output, err := b.Build(cmd.Context())
	if err != nil {
		return err
	}

	node := exec.CommandContext(cmd.Context(), output, args...)
	node.Stdin = os.Stdin
	node.Stdout = os.Stdout
	node.Stderr = os.Stderr
	return node.Run()
}
