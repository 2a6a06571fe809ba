package scoring

import (
	"strings"

	"github.com/khanglvm/tool-recommender/internal/analyzer"
	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/feedback"
)

const (
	stageExactScore     = 0.95
	stageAdjacentScore  = 0.6
	stageUnrelatedScore = 0.3
	stageUnknownScore   = 0.5

	// nodeMatchBoost rewards candidates referenced by active workflow
	// nodes or pending actions.
	nodeMatchBoost = 0.05
)

// ContextualScorer rates how well a candidate's declared workflow stage fits
// the request's workflow signals: exact stage match near 1.0, adjacent stage
// near 0.6, no relation near 0.3. When either side has no stage the score is
// neutral.
type ContextualScorer struct{}

// Name implements Scorer.
func (s *ContextualScorer) Name() string { return AlgorithmContextual }

// Score implements Scorer.
func (s *ContextualScorer) Score(c catalog.Candidate, f analyzer.ContextFeatures, _ *feedback.UserProfile) float64 {
	requestStage := f.Workflow.Stage

	var base float64
	switch {
	case requestStage == catalog.StageUnknown || c.Stage == catalog.StageUnknown:
		base = stageUnknownScore
	case requestStage == c.Stage:
		base = stageExactScore
	case requestStage.Adjacent(c.Stage):
		base = stageAdjacentScore
	default:
		base = stageUnrelatedScore
	}

	if signalsReference(c, f.Workflow) {
		base += nodeMatchBoost
	}

	return Clamp01(base)
}

// signalsReference reports whether any active node or pending action names
// the candidate or one of its tags.
func signalsReference(c catalog.Candidate, signals analyzer.WorkflowSignals) bool {
	tags := c.TagSet()
	for _, list := range [][]string{signals.ActiveNodes, signals.PendingActions} {
		for _, entry := range list {
			lower := strings.ToLower(entry)
			if lower == strings.ToLower(c.ID) || tags[lower] {
				return true
			}
		}
	}
	return false
}
