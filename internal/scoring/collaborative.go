package scoring

import (
	"github.com/khanglvm/tool-recommender/internal/analyzer"
	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/feedback"
)

// CollaborativeScorer rates a candidate by its weight in the user's affinity
// table, normalized by the largest affinity the user has. Users without
// history (and tools the user has never touched) get the cold-start
// baseline instead of zero, so they are never silently excluded.
type CollaborativeScorer struct {
	// Baseline is the cold-start score, at most 0.3.
	Baseline float64
}

// Name implements Scorer.
func (s *CollaborativeScorer) Name() string { return AlgorithmCollaborative }

// Score implements Scorer.
func (s *CollaborativeScorer) Score(c catalog.Candidate, _ analyzer.ContextFeatures, p *feedback.UserProfile) float64 {
	if p == nil || len(p.Affinity) == 0 {
		return s.Baseline
	}

	max := p.MaxAffinity()
	if max <= 0 {
		return s.Baseline
	}

	affinity := p.Affinity[c.ID]
	if affinity <= 0 {
		return s.Baseline
	}

	normalized := affinity / max
	if normalized < s.Baseline {
		return s.Baseline
	}
	return Clamp01(normalized)
}
