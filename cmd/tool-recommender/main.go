/*
Package main is the entry point for the tool-recommender CLI.

tool-recommender ranks catalog tools for a user's message and context by
blending five scoring algorithms, and adapts the ranking from recorded
feedback.

Usage:
  tool-recommender [command]

Available Commands:
  setup       Create the configuration file
  serve       Run the MCP server (stdio transport)
  recommend   Rank catalog tools for a message
  feedback    Record the outcome of a recommendation
  stats       Show a user's learned profile
  catalog     List catalog candidates
  version     Show version information
  help        Help about any command

Examples:
  # Configure a catalog
  tool-recommender setup --catalog ./catalog.json

  # Get ranked recommendations
  tool-recommender recommend "create a workflow for onboarding" --user alice --explain

  # Close the loop
  tool-recommender feedback workflow-builder positive --user alice
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khanglvm/tool-recommender/internal/cli"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tool-recommender",
		Short: "Context-aware tool recommendations that learn from feedback",
		Long: `tool-recommender scores a tool catalog against the user's message,
history, workflow position, and time of day, then blends five algorithms
into one ranking:
  • collaborative - learned per-user tool affinity
  • contentBased  - tag overlap with the request
  • contextual    - workflow stage alignment
  • temporal      - urgency and time-of-day fit
  • behavioral    - recent usage patterns

Recorded feedback reshapes future rankings incrementally; no batch
retraining step is needed.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	}

	// Add subcommands
	rootCmd.AddCommand(cli.NewSetupCmd())
	rootCmd.AddCommand(cli.NewServeCmd())
	rootCmd.AddCommand(cli.NewRecommendCmd())
	rootCmd.AddCommand(cli.NewFeedbackCmd())
	rootCmd.AddCommand(cli.NewStatsCmd())
	rootCmd.AddCommand(cli.NewCatalogCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
