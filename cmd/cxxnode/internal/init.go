package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cxxnode/cxxnode/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Initialize a new node project",
	Long:  `Initialize creates a starter cxxnode.toml in the current directory.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const manifestTemplate = `[node]
name = "%s"
type = "node"
version = "0.1.0"

[framework]
enabled = true

[build]
profile = "debug"
std = "c++17"
`

func runInit(cmd *cobra.Command, args []string) error {
	name := args[0]

	manifestPath := filepath.Join(".", config.FileName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("%s already exists", config.FileName)
	}

	if err := os.WriteFile(manifestPath, []byte(fmt.Sprintf(manifestTemplate, name)), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", config.FileName, err)
	}

	fmt.Printf("Initialized node %s\n", name)
	return nil
}
