package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/tool-recommender/internal/analyzer"
	"github.com/khanglvm/tool-recommender/internal/engine"
)

// NewRecommendCmd creates the 'recommend' command.
func NewRecommendCmd() *cobra.Command {
	var userID string
	var catalogPath string
	var stage string
	var maxResults int
	var withExplanations bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "recommend <message>",
		Short: "Rank catalog tools for a message",
		Long:  `Score and rank the catalog against a free-text message and the current context.`,
		Example: `  tool-recommender recommend "create a workflow for onboarding"
  tool-recommender recommend "export the quarterly report" --user alice --explain
  tool-recommender recommend "quick lookup" --stage discovery --max 3 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(strings.Join(args, " "), userID, catalogPath, stage, maxResults, withExplanations, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User ID for personalization")
	cmd.Flags().StringVarP(&catalogPath, "catalog", "c", "", "Catalog file (overrides config)")
	cmd.Flags().StringVar(&stage, "stage", "", "Workflow stage (discovery|planning|execution|review|delivery)")
	cmd.Flags().IntVarP(&maxResults, "max", "m", 0, "Maximum results (0 = configured default)")
	cmd.Flags().BoolVarP(&withExplanations, "explain", "e", false, "Include explanations")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runRecommend(message, userID, catalogPath, stage string, maxResults int, withExplanations, jsonOutput bool) error {
	eng, _, err := buildEngine(catalogPath)
	if err != nil {
		return err
	}
	defer eng.Stop()

	req := engine.RecommendationRequest{
		UserID:              userID,
		Message:             message,
		MaxResults:          maxResults,
		IncludeExplanations: withExplanations,
	}
	if stage != "" {
		req.Workflow = &analyzer.WorkflowState{Stage: stage}
	}

	recs := eng.GetRecommendations(context.Background(), req)

	if jsonOutput {
		data, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal recommendations: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(recs) == 0 {
		fmt.Println("No recommendations. Check the catalog path in the config or pass --catalog.")
		return nil
	}

	fmt.Printf("Recommendations (batch %s):\n\n", recs[0].BatchID)
	for _, rec := range recs {
		fmt.Printf("  %d. %s (%s)\n", rec.Position, rec.ToolName, rec.ToolID)
		fmt.Printf("     Score: %.3f  Confidence: %.2f\n", rec.Scores.Combined, rec.Confidence)
		if rec.WhyRecommended != nil {
			fmt.Printf("     Why:   %s\n", rec.WhyRecommended.Summary)
			for _, step := range rec.WhyRecommended.Guidance {
				fmt.Printf("       - %s\n", step)
			}
		}
		fmt.Println()
	}
	fmt.Println("Record outcomes with 'tool-recommender feedback <toolId> <outcome>'.")
	return nil
}
