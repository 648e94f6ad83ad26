package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cxxnode/cxxnode/internal/config"
	"github.com/cxxnode/cxxnode/internal/framework"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Fetch and build the framework bridge",
	Long: `Prepare clones the configured framework into the cache and builds its
bridge API crates, so a later build finds the generated headers and
libraries ready.`,
	RunE: runPrepare,
}

func init() {
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadProject()
	if err != nil {
		return err
	}
	fw := cfg.Framework
	if fw == nil || !fw.Enabled {
		return fmt.Errorf("no framework enabled in %s", config.FileName)
	}
	mgr, err := framework.NewManager(framework.Options{Profile: cfg.Build.Profile})
	if err != nil {
		return err
	}
	checkout, err := mgr.Prepare(cmd.Context(), *fw)
	if err != nil {
		return err
	}
	fmt.Printf("framework ready at %s\n", checkout)
	return nil
}
