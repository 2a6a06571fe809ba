package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the 'stats' command.
func NewStatsCmd() *cobra.Command {
	var jsonOutput bool
	var topN int

	cmd := &cobra.Command{
		Use:   "stats <userId>",
		Short: "Show a user's learned profile",
		Long:  `Display what the recommender has learned about a user: tool affinities, category usage, and feedback counts.`,
		Example: `  tool-recommender stats alice
  tool-recommender stats alice --top 10 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(args[0], topN, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&topN, "top", "t", 5, "How many top affinities to show")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runStats(userID string, topN int, jsonOutput bool) error {
	eng, _, err := buildEngine("")
	if err != nil {
		return err
	}
	defer eng.Stop()

	profile := eng.FeedbackStore().ProfileFor(userID)

	if jsonOutput {
		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if profile.FeedbackCount == 0 && len(profile.Affinity) == 0 {
		fmt.Printf("No history for '%s' yet. Recommendations will use cold-start defaults.\n", userID)
		return nil
	}

	fmt.Printf("Profile for %s:\n\n", userID)
	fmt.Printf("  Feedback:  %d total (%d positive, %d negative)\n",
		profile.FeedbackCount, profile.PositiveCount, profile.NegativeCount)

	type affinity struct {
		tool  string
		value float64
	}
	affinities := make([]affinity, 0, len(profile.Affinity))
	for tool, value := range profile.Affinity {
		affinities = append(affinities, affinity{tool, value})
	}
	sort.Slice(affinities, func(i, j int) bool {
		if affinities[i].value != affinities[j].value {
			return affinities[i].value > affinities[j].value
		}
		return affinities[i].tool < affinities[j].tool
	})

	if len(affinities) > 0 {
		fmt.Printf("\n  Top tools:\n")
		for i, a := range affinities {
			if i >= topN {
				break
			}
			fmt.Printf("    %.3f  %s\n", a.value, a.tool)
		}
	}

	if len(profile.CategoryUse) > 0 {
		fmt.Printf("\n  Categories:\n")
		categories := make([]string, 0, len(profile.CategoryUse))
		for category := range profile.CategoryUse {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			fmt.Printf("    %dx  %s\n", profile.CategoryUse[category], category)
		}
	}

	return nil
}
