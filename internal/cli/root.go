package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/handoffdev/handoff/internal/logger"
)

// Version information set via ldflags
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "handoff",
	Short: "Turn AI coding sessions into handoff documents",
	Long: `Handoff normalizes session transcripts from AI coding assistants
(Claude Code, Codex) and synthesizes a deterministic handoff document
summarizing what happened, so work can continue in a different tool.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch {
		case quiet:
			logger.InitQuiet()
		case verbose:
			logger.Init("debug")
		default:
			logger.Init("info")
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("handoff %s\n", Version)
		fmt.Printf("  commit: %s\n", Commit)
		fmt.Printf("  built:  %s\n", Date)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logging")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
