/*
Package analyzer derives normalized context features from a recommendation
request.

Analyze is a total, pure function: it never fails, missing fields resolve to
documented defaults, and the resulting ContextFeatures snapshot is immutable
and cheaply hashable for cache-key derivation.
*/
package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/khanglvm/tool-recommender/internal/catalog"
)

// SkillLevel is the user's inferred proficiency.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillExpert       SkillLevel = "expert"
)

// ParseSkillLevel maps a string to a SkillLevel, defaulting to intermediate.
func ParseSkillLevel(s string) SkillLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return SkillBeginner
	case "advanced":
		return SkillAdvanced
	case "expert":
		return SkillExpert
	case "intermediate":
		return SkillIntermediate
	default:
		return SkillIntermediate
	}
}

// Urgency is the request's inferred urgency.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Rank orders urgencies for monotonicity checks (low < medium < high).
func (u Urgency) Rank() int {
	switch u {
	case UrgencyLow:
		return 0
	case UrgencyHigh:
		return 2
	default:
		return 1
	}
}

// Turn is one entry of the conversation history.
type Turn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// WorkflowState is the caller-supplied workflow position.
type WorkflowState struct {
	Stage          string   `json:"stage"`
	ActiveNodes    []string `json:"activeNodes,omitempty"`
	PendingActions []string `json:"pendingActions,omitempty"`
}

// TimeContext is a caller-supplied time reference. When present it is read
// verbatim instead of the wall clock.
type TimeContext struct {
	Now time.Time `json:"now"`
}

// Request is the analyzer's input, assembled by the orchestrator from the
// incoming recommendation request.
type Request struct {
	Message    string
	History    []Turn
	Workflow   *WorkflowState
	Time       *TimeContext
	SkillLevel string
	Device     string
}

// TemporalBucket captures when a request happens.
type TemporalBucket struct {
	HourOfDay    int
	Weekday      time.Weekday
	WorkingHours bool
}

// WorkflowSignals captures where in a workflow a request happens.
type WorkflowSignals struct {
	Stage          catalog.WorkflowStage
	ActiveNodes    []string
	PendingActions []string
}

// ContextFeatures is the derived, read-only context snapshot consumed by the
// scorers and the cache fingerprint.
type ContextFeatures struct {
	Intent           string
	IntentConfidence float64
	Skill            SkillLevel
	Urgency          Urgency
	Temporal         TemporalBucket
	Workflow         WorkflowSignals
	Keywords         []string
	Mobile           bool
	Business         bool
}

// Digest returns a stable hash of the feature snapshot, suitable for
// inclusion in cache fingerprints.
func (f ContextFeatures) Digest() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%.3f|%s|%s|", f.Intent, f.IntentConfidence, f.Skill, f.Urgency)
	fmt.Fprintf(&b, "%d|%d|%t|", f.Temporal.HourOfDay, f.Temporal.Weekday, f.Temporal.WorkingHours)
	fmt.Fprintf(&b, "%s|%s|%s|", f.Workflow.Stage, strings.Join(f.Workflow.ActiveNodes, ","), strings.Join(f.Workflow.PendingActions, ","))
	fmt.Fprintf(&b, "%s|%t|%t", strings.Join(f.Keywords, ","), f.Mobile, f.Business)

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}
