package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/khanglvm/tool-recommender/internal/mcp"
)

// NewServeCmd creates the 'serve' command for running the MCP server.
//
// This is the main command that exposes the 4 meta-tools via stdio transport:
// - recommend_tools, explain_recommendation, record_feedback, get_stats
func NewServeCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio transport)",
		Long: `Start the tool-recommender server using stdio transport.

This server exposes 4 meta-tools to AI clients:
  • recommend_tools        - Rank catalog tools for a message and context
  • explain_recommendation - Explain why a tool was recommended
  • record_feedback        - Report recommendation outcomes
  • get_stats              - Summarize recommendation telemetry

Feedback recorded through the server persists across restarts.`,
		Example: `  # Run directly
  tool-recommender serve

  # Add to Claude Code
  claude mcp add recommender -- tool-recommender serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(catalogPath)
		},
	}

	cmd.Flags().StringVarP(&catalogPath, "catalog", "c", "", "Catalog file (overrides config)")

	return cmd
}

// runServe starts the MCP server with stdio transport and signal handling.
// Implements graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
func runServe(catalogPath string) error {
	eng, cfg, err := buildEngine(catalogPath)
	if err != nil {
		return err
	}

	if cfg.CatalogPath == "" && catalogPath == "" {
		log.Printf("Warning: no catalog configured, serving fallback recommendations only")
	}

	server := mcp.NewServer(eng)

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	// Run server in separate goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()

	// Wait for either signal or server error
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v, shutting down gracefully...", sig)
		server.Close()
		log.Println("Shutdown complete")
		return nil

	case err := <-errChan:
		// Server.Run() returned (stdin closed or error)
		server.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
