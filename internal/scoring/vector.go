/*
Package scoring implements the five algorithm scorers and the score combiner.

Every scorer maps (candidate, context features, user profile) to a score in
[0,1] and never fails: internal faults degrade to a neutral 0.5. The combiner
folds the five scores into a single combined value under validated weights.
*/
package scoring

import "fmt"

// Algorithm names, used as vector labels and explanation keys.
const (
	AlgorithmCollaborative = "collaborative"
	AlgorithmContentBased  = "contentBased"
	AlgorithmContextual    = "contextual"
	AlgorithmTemporal      = "temporal"
	AlgorithmBehavioral    = "behavioral"
)

// neutralScore replaces the output of a faulted scorer.
const neutralScore = 0.5

// Vector holds the five per-algorithm scores plus the combined score.
// Every field lies in [0,1].
type Vector struct {
	Collaborative float64 `json:"collaborative"`
	ContentBased  float64 `json:"contentBased"`
	Contextual    float64 `json:"contextual"`
	Temporal      float64 `json:"temporal"`
	Behavioral    float64 `json:"behavioral"`
	Combined      float64 `json:"combined"`
}

// Components returns the five component scores keyed by algorithm name.
func (v Vector) Components() map[string]float64 {
	return map[string]float64{
		AlgorithmCollaborative: v.Collaborative,
		AlgorithmContentBased:  v.ContentBased,
		AlgorithmContextual:    v.Contextual,
		AlgorithmTemporal:      v.Temporal,
		AlgorithmBehavioral:    v.Behavioral,
	}
}

// Clamped returns a copy with every field clamped into [0,1].
func (v Vector) Clamped() Vector {
	return Vector{
		Collaborative: Clamp01(v.Collaborative),
		ContentBased:  Clamp01(v.ContentBased),
		Contextual:    Clamp01(v.Contextual),
		Temporal:      Clamp01(v.Temporal),
		Behavioral:    Clamp01(v.Behavioral),
		Combined:      Clamp01(v.Combined),
	}
}

// String renders the vector for logs and CLI output.
func (v Vector) String() string {
	return fmt.Sprintf("collab=%.2f content=%.2f context=%.2f temporal=%.2f behavior=%.2f combined=%.2f",
		v.Collaborative, v.ContentBased, v.Contextual, v.Temporal, v.Behavioral, v.Combined)
}

// Clamp01 clamps a value into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
