package feedback

import "time"

// UsageRecord is one entry of a user's recent-tool history.
type UsageRecord struct {
	ToolID    string
	Category  string
	Timestamp time.Time
}

// UserProfile is the per-user aggregate read by the scorers. Profiles
// handed out by the store are snapshots: scorers may read them freely while
// the store keeps mutating its own copy.
type UserProfile struct {
	// UserID identifies the user.
	UserID string

	// RecentTools is the bounded usage history, most recent first.
	RecentTools []UsageRecord

	// Affinity maps tool IDs to collaborative affinity values.
	Affinity map[string]float64

	// CategoryUse counts positive interactions per tool category.
	CategoryUse map[string]int

	// FeedbackCount is the total number of feedback events recorded.
	FeedbackCount int

	// PositiveCount and NegativeCount break FeedbackCount down by outcome.
	PositiveCount int
	NegativeCount int
}

// newProfile creates an empty profile for a user.
func newProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:      userID,
		Affinity:    make(map[string]float64),
		CategoryUse: make(map[string]int),
	}
}

// Clone returns a deep copy safe for concurrent reads.
func (p *UserProfile) Clone() *UserProfile {
	clone := &UserProfile{
		UserID:        p.UserID,
		RecentTools:   make([]UsageRecord, len(p.RecentTools)),
		Affinity:      make(map[string]float64, len(p.Affinity)),
		CategoryUse:   make(map[string]int, len(p.CategoryUse)),
		FeedbackCount: p.FeedbackCount,
		PositiveCount: p.PositiveCount,
		NegativeCount: p.NegativeCount,
	}
	copy(clone.RecentTools, p.RecentTools)
	for tool, value := range p.Affinity {
		clone.Affinity[tool] = value
	}
	for category, count := range p.CategoryUse {
		clone.CategoryUse[category] = count
	}
	return clone
}

// IsNew reports whether the user is still in the cold-start window.
func (p *UserProfile) IsNew(threshold int) bool {
	return p.FeedbackCount < threshold
}

// MaxAffinity returns the largest affinity in the profile, or 0 when the
// table is empty.
func (p *UserProfile) MaxAffinity() float64 {
	max := 0.0
	for _, value := range p.Affinity {
		if value > max {
			max = value
		}
	}
	return max
}
