package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// Exit codes. A detected no-op (no new commits, nothing changed) is a
// success, not a failure.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

var rootCmd = &cobra.Command{
	Use:   "reword",
	Short: "Rewrite commit messages with an LLM",
	Long:  "Reword generates improved commit messages from each commit's diff and non-interactively rewrites history to apply them.",
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(ciCmd)
	rootCmd.AddCommand(rangeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitFailure
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print reword version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "reword version %s\n", version)
	},
}
