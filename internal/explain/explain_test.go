package explain

import (
	"testing"

	"github.com/khanglvm/tool-recommender/internal/analyzer"
	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/feedback"
	"github.com/khanglvm/tool-recommender/internal/scoring"
)

func fullInputs() (scoring.Vector, scoring.Weights, analyzer.ContextFeatures, *feedback.UserProfile, *catalog.Candidate) {
	v := scoring.Vector{
		Collaborative: 0.9,
		ContentBased:  0.5,
		Contextual:    0.6,
		Temporal:      0.4,
		Behavioral:    0.3,
		Combined:      0.65,
	}
	f := analyzer.ContextFeatures{
		Intent:   "creation",
		Skill:    analyzer.SkillIntermediate,
		Urgency:  analyzer.UrgencyHigh,
		Keywords: []string{"workflow", "create"},
		Workflow: analyzer.WorkflowSignals{Stage: catalog.StagePlanning},
	}
	p := &feedback.UserProfile{
		Affinity:    map[string]float64{"wb": 0.4},
		CategoryUse: map[string]int{"automation": 2},
	}
	c := &catalog.Candidate{
		ID:       "wb",
		Name:     "Workflow Builder",
		Category: "automation",
		Tags:     []string{"workflow", "create"},
		Stage:    catalog.StagePlanning,
		Latency:  catalog.LatencyFast,
	}
	return v, scoring.DefaultWeights(), f, p, c
}

func TestExplain_PrimaryReasonHighestContribution(t *testing.T) {
	g := NewGenerator()
	v, w, f, p, c := fullInputs()

	// collaborative: 0.3*0.9 = 0.27, the largest weighted contribution.
	e := g.Explain("wb", v, w, f, p, c)

	if e.PrimaryReason != scoring.AlgorithmCollaborative {
		t.Errorf("expected collaborative primary reason, got %s", e.PrimaryReason)
	}
	if e.Summary == "" {
		t.Error("summary must not be empty")
	}
}

func TestExplain_BreakdownComplete(t *testing.T) {
	g := NewGenerator()
	v, w, f, p, c := fullInputs()

	e := g.Explain("wb", v, w, f, p, c)

	if len(e.Breakdown) != 5 {
		t.Errorf("expected 5 breakdown entries, got %d", len(e.Breakdown))
	}
	if e.Breakdown[scoring.AlgorithmContentBased] != 0.5 {
		t.Errorf("unexpected content breakdown: %f", e.Breakdown[scoring.AlgorithmContentBased])
	}
}

func TestExplain_FactorsAreBinary(t *testing.T) {
	g := NewGenerator()
	v, w, f, p, c := fullInputs()

	e := g.Explain("wb", v, w, f, p, c)

	byName := make(map[string]bool, len(e.Factors))
	for _, factor := range e.Factors {
		byName[factor.Name] = factor.Present
	}

	if !byName["workflow stage match"] {
		t.Error("planning-stage candidate should match planning-stage request")
	}
	if !byName["urgency match"] {
		t.Error("fast tool under high urgency should match")
	}
	if !byName["used before"] {
		t.Error("tool with positive affinity should be marked used before")
	}
}

func TestExplain_SkillAdaptiveGuidance(t *testing.T) {
	g := NewGenerator()
	v, w, f, p, c := fullInputs()

	f.Skill = analyzer.SkillBeginner
	beginner := g.Explain("wb", v, w, f, p, c)

	f.Skill = analyzer.SkillExpert
	expert := g.Explain("wb", v, w, f, p, c)

	if len(beginner.Guidance) <= len(expert.Guidance) {
		t.Errorf("beginners should get more step-by-step guidance: %d vs %d",
			len(beginner.Guidance), len(expert.Guidance))
	}
	if len(beginner.Instructions) <= len(expert.Instructions) {
		t.Errorf("beginners should get more instructions: %d vs %d",
			len(beginner.Instructions), len(expert.Instructions))
	}
}

func TestExplain_DegradedWithoutCandidate(t *testing.T) {
	g := NewGenerator()
	v, w, f, p, _ := fullInputs()

	e := g.Explain("gone-tool", v, w, f, p, nil)

	if e.Confidence >= 0.5 {
		t.Errorf("expected low confidence without candidate, got %f", e.Confidence)
	}
	if len(e.Breakdown) != 5 {
		t.Error("breakdown should survive degradation")
	}
	if len(e.Factors) != 0 || len(e.Guidance) != 0 {
		t.Error("degraded explanation should omit unsupported fields")
	}
	if e.PrimaryReason == "" {
		t.Error("primary reason should survive degradation")
	}
}

func TestExplain_FullInputsHighConfidence(t *testing.T) {
	g := NewGenerator()
	v, w, f, p, c := fullInputs()

	e := g.Explain("wb", v, w, f, p, c)

	if e.Confidence < 0.5 {
		t.Errorf("expected high confidence with full inputs, got %f", e.Confidence)
	}
}

func TestPrimaryReason_TieResolvesDeterministically(t *testing.T) {
	// Equal contributions everywhere: the lexically first label must win
	// every time.
	v := scoring.Vector{Collaborative: 0.2, ContentBased: 0.2, Contextual: 0.2, Temporal: 0.2, Behavioral: 0.2}
	w := scoring.Weights{Collaborative: 0.2, ContentBased: 0.2, Contextual: 0.2, Temporal: 0.2, Behavioral: 0.2}

	first := primaryReason(v, w)
	for i := 0; i < 10; i++ {
		if primaryReason(v, w) != first {
			t.Fatal("primary reason must be deterministic across calls")
		}
	}
	if first != scoring.AlgorithmBehavioral {
		t.Errorf("expected lexically first label (behavioral), got %s", first)
	}
}
