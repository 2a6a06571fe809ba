package scoring

import (
	"strings"

	"github.com/khanglvm/tool-recommender/internal/analyzer"
	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/feedback"
)

// ContentScorer rates a candidate by lexical overlap between the resolved
// intent plus message keywords and the candidate's declared tags. The score
// is a Jaccard overlap rescaled above a floor, so unseen-but-plausible tools
// are not starved at zero.
type ContentScorer struct {
	// Floor is the minimum score.
	Floor float64
}

// Name implements Scorer.
func (s *ContentScorer) Name() string { return AlgorithmContentBased }

// Score implements Scorer.
func (s *ContentScorer) Score(c catalog.Candidate, f analyzer.ContextFeatures, _ *feedback.UserProfile) float64 {
	request := requestTermSet(f)
	tags := c.TagSet()

	if len(request) == 0 || len(tags) == 0 {
		return s.Floor
	}

	intersection := 0
	for term := range request {
		if tags[term] {
			intersection++
		}
	}
	union := len(request) + len(tags) - intersection
	if union == 0 {
		return s.Floor
	}

	jaccard := float64(intersection) / float64(union)
	return Clamp01(s.Floor + (1-s.Floor)*jaccard)
}

// requestTermSet builds the lowercase term set for the request side of the
// overlap: the intent label, its root, and the message keywords.
func requestTermSet(f analyzer.ContextFeatures) map[string]bool {
	terms := make(map[string]bool, len(f.Keywords)+2)
	if f.Intent != "" && f.Intent != "general" {
		terms[strings.ToLower(f.Intent)] = true
	}
	for _, kw := range f.Keywords {
		terms[strings.ToLower(kw)] = true
	}
	return terms
}
