package scoring

import (
	"github.com/khanglvm/tool-recommender/internal/analyzer"
	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/feedback"
)

// TemporalScorer rates a candidate against the request's urgency and time
// bucket. Fast tools are boosted as urgency rises (monotonically), slow
// tools are penalized under high urgency, and exploratory tools are boosted
// when urgency is low, more so outside working hours.
type TemporalScorer struct{}

// Name implements Scorer.
func (s *TemporalScorer) Name() string { return AlgorithmTemporal }

// Score implements Scorer.
func (s *TemporalScorer) Score(c catalog.Candidate, f analyzer.ContextFeatures, _ *feedback.UserProfile) float64 {
	score := 0.5

	switch c.Latency {
	case catalog.LatencyFast:
		// Monotonic in urgency.
		switch f.Urgency {
		case analyzer.UrgencyHigh:
			score = 0.9
		case analyzer.UrgencyMedium:
			score = 0.65
		case analyzer.UrgencyLow:
			score = 0.5
		}
	case catalog.LatencySlow:
		if f.Urgency == analyzer.UrgencyHigh {
			score = 0.3
		}
	}

	if c.Exploratory && f.Urgency == analyzer.UrgencyLow {
		boosted := 0.7
		if !f.Temporal.WorkingHours {
			boosted = 0.85
		}
		if boosted > score {
			score = boosted
		}
	}

	return Clamp01(score)
}
