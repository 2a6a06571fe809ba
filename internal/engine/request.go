/*
Package engine orchestrates the recommendation pipeline.

A request flows analyze → fingerprint → cache → score → combine → rank →
explain → cache → return, strictly forward, with one fallback exit when the
catalog is unavailable. The public API is total: it never returns an error
for an engine-internal fault, only an empty or fallback result.
*/
package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/khanglvm/tool-recommender/internal/analyzer"
	"github.com/khanglvm/tool-recommender/internal/explain"
	"github.com/khanglvm/tool-recommender/internal/scoring"
)

// RecommendationRequest describes one recommendation call. Immutable once
// created; the engine only reads it.
type RecommendationRequest struct {
	// UserID identifies the requesting user; empty means anonymous.
	UserID string `json:"userId,omitempty"`

	// Message is the free-text user message.
	Message string `json:"message"`

	// History is the ordered conversation history.
	History []analyzer.Turn `json:"history,omitempty"`

	// Workflow is the optional explicit workflow state.
	Workflow *analyzer.WorkflowState `json:"workflow,omitempty"`

	// TimeContext optionally pins the request time.
	TimeContext *analyzer.TimeContext `json:"timeContext,omitempty"`

	// SkillLevel optionally overrides skill inference.
	SkillLevel string `json:"skillLevel,omitempty"`

	// Device is the requesting device class (e.g. "mobile").
	Device string `json:"device,omitempty"`

	// Weights optionally overrides the algorithm weights for this call.
	// Invalid overrides fall back to the defaults wholesale.
	Weights *scoring.Weights `json:"algorithmWeights,omitempty"`

	// MaxResults caps the returned list; 0 uses the configured default.
	MaxResults int `json:"maxResults,omitempty"`

	// IncludeExplanations requests explanation bundles for the results.
	IncludeExplanations bool `json:"includeExplanations,omitempty"`
}

// analyzerRequest maps the request onto the analyzer's input.
func (r RecommendationRequest) analyzerRequest() analyzer.Request {
	return analyzer.Request{
		Message:    r.Message,
		History:    r.History,
		Workflow:   r.Workflow,
		Time:       r.TimeContext,
		SkillLevel: r.SkillLevel,
		Device:     r.Device,
	}
}

// Recommendation is one ranked result. Immutable once produced.
type Recommendation struct {
	// ToolID identifies the recommended tool.
	ToolID string `json:"toolId"`

	// ToolName is the tool's display name.
	ToolName string `json:"toolName,omitempty"`

	// Category is the tool's catalog category.
	Category string `json:"category,omitempty"`

	// Scores is the per-algorithm score vector with the combined score.
	Scores scoring.Vector `json:"algorithmScores"`

	// Confidence is the overall confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// Position is the rank within the batch, starting at 1.
	Position int `json:"position"`

	// BatchID ties the recommendation to its batch for feedback.
	BatchID string `json:"batchId"`

	// WhyRecommended is the explanation bundle, when requested.
	WhyRecommended *explain.Explanation `json:"whyRecommended,omitempty"`
}

// Feedback is the user's verdict on one recommended tool.
type Feedback struct {
	// ToolID names the tool the feedback applies to.
	ToolID string `json:"toolId"`

	// Outcome is "positive", "negative", or "mixed".
	Outcome string `json:"outcome"`

	// Rating is the user's rating in [0,1].
	Rating float64 `json:"rating"`

	// Comment is optional free text.
	Comment string `json:"comment,omitempty"`
}

// normalizeMessage canonicalizes the request text for fingerprinting:
// lowercase, collapsed whitespace.
func normalizeMessage(message string) string {
	return strings.Join(strings.Fields(strings.ToLower(message)), " ")
}

// fingerprint derives the stable cache key for a request: normalized text,
// user, feature digest, active weights, and result cap. Two requests with
// the same fingerprint are interchangeable for cache purposes.
func fingerprint(userID, message string, features analyzer.ContextFeatures, weights scoring.Weights, maxResults int) string {
	var b strings.Builder
	b.WriteString(normalizeMessage(message))
	b.WriteByte('|')
	b.WriteString(userID)
	b.WriteByte('|')
	b.WriteString(features.Digest())
	fmt.Fprintf(&b, "|%.4f,%.4f,%.4f,%.4f,%.4f|%d",
		weights.Collaborative, weights.ContentBased, weights.Contextual,
		weights.Temporal, weights.Behavioral, maxResults)

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}
