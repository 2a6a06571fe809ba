/*
Package feedback implements the adaptation loop: user profiles, the
incremental affinity update applied per feedback event, and the global
co-occurrence table.

Each event applies one bounded-cost exponential-moving-average update to the
affected user's profile; there is no batch retraining. Updates to a given
user are serialized, updates to different users proceed in parallel.
*/
package feedback

import (
	"time"

	"github.com/khanglvm/tool-recommender/internal/storage"
)

// Outcome classifies a feedback event.
type Outcome string

const (
	OutcomePositive Outcome = "positive"
	OutcomeNegative Outcome = "negative"
	OutcomeMixed    Outcome = "mixed"
)

// Sign returns the update direction for the outcome: +1, -1, or 0.
func (o Outcome) Sign() float64 {
	switch o {
	case OutcomePositive:
		return 1
	case OutcomeNegative:
		return -1
	default:
		return 0
	}
}

// ParseOutcome maps a string to an Outcome, defaulting to mixed.
func ParseOutcome(s string) Outcome {
	switch Outcome(s) {
	case OutcomePositive:
		return OutcomePositive
	case OutcomeNegative:
		return OutcomeNegative
	default:
		return OutcomeMixed
	}
}

// Event is one user feedback event. Events are append-only.
type Event struct {
	// UserID identifies the user giving feedback.
	UserID string

	// ToolID is the tool the feedback applies to.
	ToolID string

	// Category is the tool's category, when known, used for the
	// behavioral category aggregate.
	Category string

	// BatchID references the recommendation batch the tool came from.
	BatchID string

	// Outcome is the feedback classification.
	Outcome Outcome

	// Rating is the user's rating in [0,1]; out-of-range values are clamped.
	Rating float64

	// Comment is optional free text.
	Comment string

	// Timestamp is when the feedback was given; zero means now.
	Timestamp time.Time
}

// toStorage converts the event to its persistence model.
func (e Event) toStorage() storage.FeedbackRecord {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return storage.FeedbackRecord{
		UserID:    e.UserID,
		ToolID:    e.ToolID,
		BatchID:   e.BatchID,
		Outcome:   string(e.Outcome),
		Rating:    e.Rating,
		Comment:   e.Comment,
		Timestamp: ts,
	}
}
