package scoring

import "math"

const (
	// weightSumTolerance is how far a caller-supplied weight sum may
	// deviate from 1.0 before the whole set is rejected.
	weightSumTolerance = 0.01
)

// Weights assigns the relative importance of each algorithm. A valid set has
// every weight in [0,1] and sums to 1 within tolerance.
type Weights struct {
	Collaborative float64 `json:"collaborative"`
	ContentBased  float64 `json:"contentBased"`
	Contextual    float64 `json:"contextual"`
	Temporal      float64 `json:"temporal"`
	Behavioral    float64 `json:"behavioral"`
}

// DefaultWeights returns the documented default weight set.
func DefaultWeights() Weights {
	return Weights{
		Collaborative: 0.3,
		ContentBased:  0.25,
		Contextual:    0.2,
		Temporal:      0.15,
		Behavioral:    0.1,
	}
}

// Sum returns the total of the five weights.
func (w Weights) Sum() float64 {
	return w.Collaborative + w.ContentBased + w.Contextual + w.Temporal + w.Behavioral
}

// Valid reports whether every weight is in [0,1] and the sum is 1 within
// tolerance.
func (w Weights) Valid() bool {
	for _, weight := range []float64{w.Collaborative, w.ContentBased, w.Contextual, w.Temporal, w.Behavioral} {
		if weight < 0 || weight > 1 || math.IsNaN(weight) {
			return false
		}
	}
	return math.Abs(w.Sum()-1.0) <= weightSumTolerance
}

// forNewUser returns the cold-start reweighting: the collaborative weight is
// halved and the content-based weight raised by the same amount, so a user
// without history leans on content instead of an empty affinity table.
// This is policy, not error correction; the sum is unchanged.
func (w Weights) forNewUser() Weights {
	shift := w.Collaborative / 2
	w.Collaborative -= shift
	w.ContentBased += shift
	return w
}

// Component returns the weight for an algorithm name.
func (w Weights) Component(name string) float64 {
	switch name {
	case AlgorithmCollaborative:
		return w.Collaborative
	case AlgorithmContentBased:
		return w.ContentBased
	case AlgorithmContextual:
		return w.Contextual
	case AlgorithmTemporal:
		return w.Temporal
	case AlgorithmBehavioral:
		return w.Behavioral
	default:
		return 0
	}
}

// Combiner completes score vectors under a validated weight policy.
type Combiner struct {
	defaults Weights
}

// NewCombiner creates a combiner with the given default weights. Invalid
// defaults fall back to DefaultWeights.
func NewCombiner(defaults Weights) *Combiner {
	if !defaults.Valid() {
		defaults = DefaultWeights()
	}
	return &Combiner{defaults: defaults}
}

// ActiveWeights resolves the weight set used for a request: the caller's
// override when valid, otherwise the defaults — never a partial mix, so a
// single bad weight rejects the whole override. New-user reweighting is then
// applied on top.
func (c *Combiner) ActiveWeights(override *Weights, newUser bool) Weights {
	active := c.defaults
	if override != nil && override.Valid() {
		active = *override
	}
	if newUser {
		active = active.forNewUser()
	}
	return active
}

// Combine clamps the component scores and fills the Combined field with the
// weighted sum, clamped after summation to absorb floating-point overshoot.
func (c *Combiner) Combine(v Vector, override *Weights, newUser bool) Vector {
	weights := c.ActiveWeights(override, newUser)

	v = v.Clamped()
	v.Combined = Clamp01(
		weights.Collaborative*v.Collaborative +
			weights.ContentBased*v.ContentBased +
			weights.Contextual*v.Contextual +
			weights.Temporal*v.Temporal +
			weights.Behavioral*v.Behavioral,
	)
	return v
}
