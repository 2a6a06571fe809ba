/*
Package storage provides data models for the feedback persistence layer.

These models represent feedback events, per-user affinity snapshots, and the
global co-occurrence table the adaptation loop maintains across restarts.
*/
package storage

import "time"

// FeedbackRecord is a single persisted feedback event.
type FeedbackRecord struct {
	// UserID identifies the user who gave feedback.
	UserID string `json:"user_id"`

	// ToolID is the tool the feedback applies to.
	ToolID string `json:"tool_id"`

	// BatchID references the recommendation batch the tool came from.
	BatchID string `json:"batch_id"`

	// Outcome is "positive", "negative", or "mixed".
	Outcome string `json:"outcome"`

	// Rating is the user's rating in [0,1].
	Rating float64 `json:"rating"`

	// Comment is optional free text.
	Comment string `json:"comment,omitempty"`

	// Timestamp is when the feedback was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// AffinityRecord is a persisted (user, tool) affinity value.
type AffinityRecord struct {
	UserID    string    `json:"user_id"`
	ToolID    string    `json:"tool_id"`
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CoOccurrenceRecord is a persisted tool-pair co-occurrence weight. ToolA
// sorts before ToolB so each pair is stored once.
type CoOccurrenceRecord struct {
	ToolA     string    `json:"tool_a"`
	ToolB     string    `json:"tool_b"`
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
