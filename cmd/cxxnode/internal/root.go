package internal

import (
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "cxxnode",
	Short: "cxxnode builds native C++ dataflow nodes",
	Long: `cxxnode resolves dependencies, prepares the framework bridge and
compiles C++ dataflow nodes into runnable executables.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A .env beside the project is a convenience, never a requirement.
		_ = godotenv.Load()
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the project manifest")
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
