/*
Package explain synthesizes human-readable explanations for recommendations.

Explain is pure and read-only: it never fails, and with incomplete inputs it
returns a degraded explanation carrying only the fields it can support, with
the explanation confidence flag set low.
*/
package explain

import (
	"fmt"
	"sort"

	"github.com/khanglvm/tool-recommender/internal/analyzer"
	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/feedback"
	"github.com/khanglvm/tool-recommender/internal/scoring"
)

const (
	fullConfidence     = 0.9
	degradedConfidence = 0.3
)

// Factor is one binary contextual signal: present or absent, never partial,
// even though the underlying scores are continuous.
type Factor struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
}

// Explanation annotates one recommendation.
type Explanation struct {
	// ToolID names the explained tool.
	ToolID string `json:"toolId"`

	// Summary is the single primary-reason sentence.
	Summary string `json:"summary"`

	// PrimaryReason is the label of the algorithm contributing most to
	// the combined score (weight times score).
	PrimaryReason string `json:"primaryReason"`

	// Breakdown decomposes all five component scores.
	Breakdown map[string]float64 `json:"breakdown"`

	// Factors lists binary contextual signals.
	Factors []Factor `json:"factors,omitempty"`

	// Guidance is skill-level-adaptive advice.
	Guidance []string `json:"guidance,omitempty"`

	// Instructions is the personalized instruction list.
	Instructions []string `json:"instructions,omitempty"`

	// Confidence flags how complete the inputs behind this explanation
	// were, in [0,1].
	Confidence float64 `json:"confidence"`
}

// reasonText maps algorithm labels to primary-reason sentences.
var reasonText = map[string]string{
	scoring.AlgorithmCollaborative: "users with similar habits valued this tool",
	scoring.AlgorithmContentBased:  "the tool's capabilities match what you asked for",
	scoring.AlgorithmContextual:    "the tool fits the current workflow stage",
	scoring.AlgorithmTemporal:      "the tool suits the timing and urgency of the request",
	scoring.AlgorithmBehavioral:    "it matches your recent tool usage",
}

// Generator produces explanations.
type Generator struct{}

// NewGenerator creates a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Explain builds the explanation for one scored candidate. candidate may be
// nil (e.g. explaining a cached result whose catalog entry is gone); the
// result then degrades to score-derived fields only.
func (g *Generator) Explain(toolID string, v scoring.Vector, weights scoring.Weights, f analyzer.ContextFeatures, p *feedback.UserProfile, candidate *catalog.Candidate) Explanation {
	primary := primaryReason(v, weights)

	e := Explanation{
		ToolID:        toolID,
		PrimaryReason: primary,
		Summary:       fmt.Sprintf("Recommended because %s.", reasonText[primary]),
		Breakdown:     v.Components(),
		Confidence:    fullConfidence,
	}

	if candidate == nil {
		e.Confidence = degradedConfidence
		return e
	}

	e.Factors = contextFactors(*candidate, f, p)
	e.Guidance = guidanceFor(f.Skill, *candidate)
	e.Instructions = instructionsFor(f.Skill, *candidate)

	if f.Intent == "" {
		e.Confidence = degradedConfidence
	}

	return e
}

// primaryReason returns the label of the highest weighted contribution.
// Ties resolve by lexical label order for determinism.
func primaryReason(v scoring.Vector, weights scoring.Weights) string {
	components := v.Components()

	labels := make([]string, 0, len(components))
	for label := range components {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	best := labels[0]
	bestContribution := -1.0
	for _, label := range labels {
		contribution := weights.Component(label) * components[label]
		if contribution > bestContribution {
			bestContribution = contribution
			best = label
		}
	}
	return best
}

// contextFactors derives the binary factor list.
func contextFactors(c catalog.Candidate, f analyzer.ContextFeatures, p *feedback.UserProfile) []Factor {
	stageKnown := f.Workflow.Stage != catalog.StageUnknown && c.Stage != catalog.StageUnknown

	factors := []Factor{
		{Name: "workflow stage match", Present: stageKnown && f.Workflow.Stage == c.Stage},
		{Name: "urgency match", Present: f.Urgency == analyzer.UrgencyHigh && c.Latency == catalog.LatencyFast},
		{Name: "working hours", Present: f.Temporal.WorkingHours},
		{Name: "intent keyword overlap", Present: hasTagOverlap(c, f)},
	}

	if p != nil {
		factors = append(factors,
			Factor{Name: "used before", Present: p.Affinity[c.ID] > 0},
			Factor{Name: "familiar category", Present: p.CategoryUse[c.Category] > 0},
		)
	}

	return factors
}

func hasTagOverlap(c catalog.Candidate, f analyzer.ContextFeatures) bool {
	tags := c.TagSet()
	for _, kw := range f.Keywords {
		if tags[kw] {
			return true
		}
	}
	return false
}

// guidanceFor selects adaptive-complexity guidance by skill level: beginners
// get simplification and step-by-step help, experts get growth suggestions.
func guidanceFor(skill analyzer.SkillLevel, c catalog.Candidate) []string {
	switch skill {
	case analyzer.SkillBeginner:
		return []string{
			fmt.Sprintf("Start with the guided setup for %s and follow each step in order.", c.Name),
			"Use the default settings first; you can adjust them once the basics feel familiar.",
			"If anything is unclear, look for the simplified mode before trying advanced options.",
		}
	case analyzer.SkillAdvanced:
		return []string{
			fmt.Sprintf("%s supports batching and parameter presets; both cut repeat work.", c.Name),
			"Consider wiring this tool into your existing workflow triggers.",
		}
	case analyzer.SkillExpert:
		return []string{
			fmt.Sprintf("You have headroom with %s: try its composition features with other tools in the same stage.", c.Name),
			"Exploring adjacent-stage tools could extend this workflow further.",
		}
	default:
		return []string{
			fmt.Sprintf("%s covers this task directly; its common options are a good starting point.", c.Name),
		}
	}
}

// instructionsFor builds the personalized instruction list.
func instructionsFor(skill analyzer.SkillLevel, c catalog.Candidate) []string {
	instructions := []string{
		fmt.Sprintf("Open %s from the %s tools.", c.Name, c.Category),
	}

	if skill == analyzer.SkillBeginner {
		instructions = append(instructions,
			"Review the short description before running it.",
			"Run it once with example input to see what it produces.",
		)
	} else {
		instructions = append(instructions,
			"Provide your input and run the tool.",
		)
	}

	if c.Latency == catalog.LatencySlow {
		instructions = append(instructions, "This tool can take a while; it is safe to leave it running.")
	}

	return instructions
}
