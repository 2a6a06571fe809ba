package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/tool-recommender/internal/engine"
	"github.com/khanglvm/tool-recommender/internal/feedback"
)

// NewFeedbackCmd creates the 'feedback' command.
func NewFeedbackCmd() *cobra.Command {
	var userID string
	var rating float64
	var comment string

	cmd := &cobra.Command{
		Use:   "feedback <toolId> <outcome>",
		Short: "Record the outcome of a recommendation",
		Long:  `Record whether a recommended tool worked out. Outcomes are positive, negative, or mixed; feedback reshapes future rankings for the user.`,
		Example: `  tool-recommender feedback workflow-builder positive --user alice
  tool-recommender feedback report-exporter negative --user alice --rating 0.8 --comment "too slow"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedback(args[0], args[1], userID, rating, comment)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User ID the feedback belongs to")
	cmd.Flags().Float64VarP(&rating, "rating", "r", 1.0, "Outcome strength in [0,1]")
	cmd.Flags().StringVar(&comment, "comment", "", "Optional comment")

	return cmd
}

func runFeedback(toolID, outcome, userID string, rating float64, comment string) error {
	if feedback.ParseOutcome(outcome) == feedback.OutcomeMixed && outcome != string(feedback.OutcomeMixed) {
		return fmt.Errorf("unknown outcome '%s' (use positive, negative, or mixed)", outcome)
	}

	eng, _, err := buildEngine("")
	if err != nil {
		return err
	}
	defer eng.Stop()

	eng.RecordFeedback(userID, nil, engine.Feedback{
		ToolID:  toolID,
		Outcome: outcome,
		Rating:  rating,
		Comment: comment,
	})

	fmt.Printf("Feedback recorded: %s -> %s (rating %.2f)\n", toolID, outcome, rating)
	return nil
}
