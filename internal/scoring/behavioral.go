package scoring

import (
	"math"

	"github.com/khanglvm/tool-recommender/internal/analyzer"
	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/feedback"
)

const (
	// behavioralBaseFloor is the floor for tools absent from history.
	behavioralBaseFloor = 0.15

	// behavioralCategoryBonus scales the category-aggregate share added
	// on top of the base floor for absent tools.
	behavioralCategoryBonus = 0.25

	// behavioralNoHistory is the score when the user has no history at all.
	behavioralNoHistory = 0.3
)

// BehavioralScorer rates a candidate by a recency-frequency weight over the
// user's recent-tool history: each occurrence contributes a weight decaying
// exponentially by position, most recent first. Tools absent from history
// score at a floor derived from the user's category-level aggregate, never
// zero.
type BehavioralScorer struct {
	// Decay is the per-position decay factor in (0,1).
	Decay float64
}

// Name implements Scorer.
func (s *BehavioralScorer) Name() string { return AlgorithmBehavioral }

// Score implements Scorer.
func (s *BehavioralScorer) Score(c catalog.Candidate, _ analyzer.ContextFeatures, p *feedback.UserProfile) float64 {
	if p == nil || len(p.RecentTools) == 0 {
		return behavioralNoHistory
	}

	matched := 0.0
	total := 0.0
	seen := false
	for position, record := range p.RecentTools {
		weight := math.Pow(s.Decay, float64(position))
		total += weight
		if record.ToolID == c.ID {
			matched += weight
			seen = true
		}
	}

	if !seen {
		return s.categoryFloor(c, p)
	}
	if total == 0 {
		return behavioralNoHistory
	}
	return Clamp01(matched / total)
}

// categoryFloor derives the absent-tool floor from how much of the user's
// positive activity falls in the candidate's category.
func (s *BehavioralScorer) categoryFloor(c catalog.Candidate, p *feedback.UserProfile) float64 {
	totalUse := 0
	for _, count := range p.CategoryUse {
		totalUse += count
	}
	if totalUse == 0 || c.Category == "" {
		return behavioralBaseFloor
	}

	share := float64(p.CategoryUse[c.Category]) / float64(totalUse)
	return Clamp01(behavioralBaseFloor + behavioralCategoryBonus*share)
}
