package scoring

import (
	"log"

	"github.com/khanglvm/tool-recommender/internal/analyzer"
	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/feedback"
)

// Scorer maps one candidate to a score in [0,1] for one algorithm.
// Implementations are pure and CPU-bound: no I/O, no stored state beyond
// configuration.
type Scorer interface {
	// Name returns the algorithm label used in vectors and explanations.
	Name() string

	// Score rates the candidate against the context snapshot and profile.
	Score(c catalog.Candidate, f analyzer.ContextFeatures, p *feedback.UserProfile) float64
}

// SafeScore runs a scorer and contains any fault: a panic or out-of-range
// result degrades to the neutral score instead of propagating.
func SafeScore(s Scorer, c catalog.Candidate, f analyzer.ContextFeatures, p *feedback.UserProfile) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: scorer %s panicked for candidate %s: %v", s.Name(), c.ID, r)
			score = neutralScore
		}
	}()

	return Clamp01(s.Score(c, f, p))
}

// ScoreAll runs every scorer against the candidate and assembles the
// (uncombined) vector.
func ScoreAll(scorers []Scorer, c catalog.Candidate, f analyzer.ContextFeatures, p *feedback.UserProfile) Vector {
	var v Vector
	for _, s := range scorers {
		value := SafeScore(s, c, f, p)
		switch s.Name() {
		case AlgorithmCollaborative:
			v.Collaborative = value
		case AlgorithmContentBased:
			v.ContentBased = value
		case AlgorithmContextual:
			v.Contextual = value
		case AlgorithmTemporal:
			v.Temporal = value
		case AlgorithmBehavioral:
			v.Behavioral = value
		}
	}
	return v
}

// ScorerOptions tune the individual scorers. Zero values resolve to
// defaults.
type ScorerOptions struct {
	// ColdStartBaseline is the collaborative score for users without
	// history. Kept at or below 0.3 so cold-start users lean on content.
	ColdStartBaseline float64

	// ContentFloor is the minimum content-based score.
	ContentFloor float64

	// BehavioralDecay is the per-position decay factor over recent usage.
	BehavioralDecay float64
}

func (o ScorerOptions) withDefaults() ScorerOptions {
	if o.ColdStartBaseline <= 0 {
		o.ColdStartBaseline = 0.25
	}
	if o.ContentFloor <= 0 {
		o.ContentFloor = 0.2
	}
	if o.BehavioralDecay <= 0 || o.BehavioralDecay >= 1 {
		o.BehavioralDecay = 0.8
	}
	return o
}

// NewDefaultScorers builds the standard five-scorer set.
func NewDefaultScorers(opts ScorerOptions) []Scorer {
	opts = opts.withDefaults()
	return []Scorer{
		&CollaborativeScorer{Baseline: opts.ColdStartBaseline},
		&ContentScorer{Floor: opts.ContentFloor},
		&ContextualScorer{},
		&TemporalScorer{},
		&BehavioralScorer{Decay: opts.BehavioralDecay},
	}
}
