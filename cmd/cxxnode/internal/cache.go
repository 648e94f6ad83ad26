package internal

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cxxnode/cxxnode/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clean the dependency cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "List cache entries and their sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cache.Info(os.Stdout)
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean [prefix]",
	Short: "Remove cache entries, all of them or those matching a prefix",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		if err := cache.Clean(prefix); err != nil {
			return err
		}
		if prefix == "" {
			fmt.Println("cache cleaned")
		} else {
			fmt.Printf("cache entries matching %q removed\n", prefix)
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
	rootCmd.AddCommand(cacheCmd)
}
