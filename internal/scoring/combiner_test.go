package scoring

import (
	"math"
	"testing"
)

func TestDefaultWeights_SumToOne(t *testing.T) {
	if math.Abs(DefaultWeights().Sum()-1.0) > 1e-9 {
		t.Errorf("default weights must sum to 1, got %f", DefaultWeights().Sum())
	}
}

func TestCombine_WeightedSum(t *testing.T) {
	c := NewCombiner(DefaultWeights())

	v := Vector{
		Collaborative: 0.8,
		ContentBased:  0.6,
		Contextual:    0.4,
		Temporal:      0.2,
		Behavioral:    1.0,
	}

	combined := c.Combine(v, nil, false)

	want := 0.3*0.8 + 0.25*0.6 + 0.2*0.4 + 0.15*0.2 + 0.1*1.0
	if math.Abs(combined.Combined-want) > 1e-9 {
		t.Errorf("expected combined %f, got %f", want, combined.Combined)
	}
}

func TestCombine_ValidOverride(t *testing.T) {
	c := NewCombiner(DefaultWeights())

	override := Weights{Collaborative: 1.0}
	v := Vector{Collaborative: 0.7, ContentBased: 0.1}

	combined := c.Combine(v, &override, false)

	if math.Abs(combined.Combined-0.7) > 1e-9 {
		t.Errorf("expected combined 0.7 under collaborative-only weights, got %f", combined.Combined)
	}
}

func TestCombine_NegativeWeightFallsBackWholesale(t *testing.T) {
	c := NewCombiner(DefaultWeights())

	// One bad weight invalidates the entire set; no partial mixing.
	override := Weights{Collaborative: -1, ContentBased: 2}
	v := Vector{
		Collaborative: 0.5, ContentBased: 0.5, Contextual: 0.5,
		Temporal: 0.5, Behavioral: 0.5,
	}

	combined := c.Combine(v, &override, false)

	if math.Abs(combined.Combined-0.5) > 1e-9 {
		t.Errorf("expected default-weight combination 0.5, got %f", combined.Combined)
	}
	if combined.Combined < 0 || combined.Combined > 1 {
		t.Errorf("combined out of range: %f", combined.Combined)
	}
}

func TestCombine_SumDeviationFallsBack(t *testing.T) {
	c := NewCombiner(DefaultWeights())

	override := Weights{Collaborative: 0.5, ContentBased: 0.5, Contextual: 0.5}
	if override.Valid() {
		t.Fatal("weights summing to 1.5 must be invalid")
	}

	active := c.ActiveWeights(&override, false)
	if active != DefaultWeights() {
		t.Errorf("expected fallback to defaults, got %+v", active)
	}
}

func TestCombine_ClampsComponentsAndSum(t *testing.T) {
	c := NewCombiner(DefaultWeights())

	v := Vector{Collaborative: 1.7, ContentBased: -0.4, Contextual: 1.0, Temporal: 1.0, Behavioral: 1.0}

	combined := c.Combine(v, nil, false)

	if combined.Collaborative != 1.0 {
		t.Errorf("expected collaborative clamped to 1, got %f", combined.Collaborative)
	}
	if combined.ContentBased != 0.0 {
		t.Errorf("expected content clamped to 0, got %f", combined.ContentBased)
	}
	if combined.Combined < 0 || combined.Combined > 1 {
		t.Errorf("combined out of range: %f", combined.Combined)
	}
}

func TestActiveWeights_NewUserReweighting(t *testing.T) {
	c := NewCombiner(DefaultWeights())

	active := c.ActiveWeights(nil, true)

	if math.Abs(active.Collaborative-0.15) > 1e-9 {
		t.Errorf("expected collaborative halved to 0.15, got %f", active.Collaborative)
	}
	if math.Abs(active.ContentBased-0.40) > 1e-9 {
		t.Errorf("expected content raised to 0.40, got %f", active.ContentBased)
	}
	if math.Abs(active.Sum()-1.0) > 1e-9 {
		t.Errorf("reweighted set must still sum to 1, got %f", active.Sum())
	}
}

func TestActiveWeights_NewUserAppliesToOverride(t *testing.T) {
	c := NewCombiner(DefaultWeights())

	override := Weights{Collaborative: 0.6, ContentBased: 0.4}
	active := c.ActiveWeights(&override, true)

	if math.Abs(active.Collaborative-0.3) > 1e-9 || math.Abs(active.ContentBased-0.7) > 1e-9 {
		t.Errorf("expected reweighted override {0.3, 0.7}, got %+v", active)
	}
}

func TestWeights_SmallToleranceAccepted(t *testing.T) {
	w := Weights{Collaborative: 0.3, ContentBased: 0.25, Contextual: 0.2, Temporal: 0.15, Behavioral: 0.105}
	if !w.Valid() {
		t.Error("sum 1.005 is within tolerance and must be valid")
	}
}

func TestNewCombiner_InvalidDefaultsReplaced(t *testing.T) {
	c := NewCombiner(Weights{Collaborative: 2})

	if c.ActiveWeights(nil, false) != DefaultWeights() {
		t.Error("invalid constructor defaults must fall back to DefaultWeights")
	}
}
