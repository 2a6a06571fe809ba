package feedback

import (
	"sync"
	"time"

	"github.com/khanglvm/tool-recommender/internal/storage"
)

const (
	defaultLearningRate     = 0.1
	defaultAffinityFloor    = 0.0
	defaultAffinityCeiling  = 1.0
	defaultHistoryLimit     = 20
	defaultNewUserThreshold = 3
)

// Options tune the adaptation loop. Zero values resolve to defaults.
type Options struct {
	// LearningRate scales each incremental affinity update.
	LearningRate float64

	// AffinityFloor and AffinityCeiling bound the affinity range.
	AffinityFloor   float64
	AffinityCeiling float64

	// HistoryLimit caps the recent-tool history length per user.
	HistoryLimit int

	// NewUserThreshold is the feedback count below which a user is
	// considered new (cold start).
	NewUserThreshold int
}

func (o Options) withDefaults() Options {
	if o.LearningRate <= 0 {
		o.LearningRate = defaultLearningRate
	}
	if o.AffinityCeiling <= o.AffinityFloor {
		o.AffinityFloor = defaultAffinityFloor
		o.AffinityCeiling = defaultAffinityCeiling
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = defaultHistoryLimit
	}
	if o.NewUserThreshold <= 0 {
		o.NewUserThreshold = defaultNewUserThreshold
	}
	return o
}

// pairKey identifies a tool pair in the co-occurrence table; A sorts before B.
type pairKey struct {
	A, B string
}

func makePairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{A: a, B: b}
}

// userEntry serializes writes for one user.
type userEntry struct {
	mu      sync.Mutex
	profile *UserProfile
	loaded  bool
}

// Store owns the user profiles and the co-occurrence table. An optional
// storage backend persists events and snapshots; without one the store is
// memory-only and data lives for the process lifetime.
type Store struct {
	opts Options

	mu    sync.RWMutex
	users map[string]*userEntry

	coMu    sync.RWMutex
	cooccur map[pairKey]float64

	backend storage.Store
	tracker *Tracker
}

// NewStore creates a memory-only store.
func NewStore(opts Options) *Store {
	return &Store{
		opts:    opts.withDefaults(),
		users:   make(map[string]*userEntry),
		cooccur: make(map[pairKey]float64),
	}
}

// NewStoreWithBackend creates a store that warm-starts from and persists to
// the given backend. Backend failures never surface: the backend degrades to
// a no-op and the store keeps working in memory.
func NewStoreWithBackend(opts Options, backend storage.Store) *Store {
	s := NewStore(opts)
	if backend == nil {
		return s
	}

	if err := backend.Init(); err != nil {
		// Backend disabled itself; keep it attached, its ops are no-ops.
		s.backend = backend
		return s
	}
	s.backend = backend
	s.tracker = NewTracker(backend)

	if records, err := backend.LoadCoOccurrences(); err == nil {
		for _, rec := range records {
			s.cooccur[makePairKey(rec.ToolA, rec.ToolB)] = rec.Value
		}
	}

	return s
}

// Stop flushes pending persistence work. Safe to call on memory-only stores.
func (s *Store) Stop() {
	if s.tracker != nil {
		s.tracker.Stop()
	}
}

// entryFor returns the entry for a user, creating it on first use.
func (s *Store) entryFor(userID string) *userEntry {
	s.mu.RLock()
	entry, ok := s.users[userID]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok = s.users[userID]; ok {
		return entry
	}
	entry = &userEntry{profile: newProfile(userID)}
	s.users[userID] = entry
	return entry
}

// warmStart loads persisted affinities into a freshly created entry.
// Caller holds entry.mu.
func (s *Store) warmStart(entry *userEntry) {
	if entry.loaded {
		return
	}
	entry.loaded = true

	if s.backend == nil {
		return
	}
	affinities, err := s.backend.LoadAffinities(entry.profile.UserID)
	if err != nil {
		return
	}
	// Persisted affinities imply prior feedback; count them so a
	// returning user is not treated as new.
	for tool, value := range affinities {
		entry.profile.Affinity[tool] = value
		entry.profile.FeedbackCount++
	}
}

// RecordFeedback applies one bounded-cost update for the event. batchTools
// lists the other tools recommended in the same batch, used to maintain the
// co-occurrence table. The update is O(1) in the profile and O(len(batch))
// in the table.
func (s *Store) RecordFeedback(event Event, batchTools []string) {
	if event.UserID == "" || event.ToolID == "" {
		return
	}

	rating := clamp01(event.Rating)
	sign := event.Outcome.Sign()

	entry := s.entryFor(event.UserID)

	entry.mu.Lock()
	s.warmStart(entry)

	profile := entry.profile
	current := profile.Affinity[event.ToolID]
	delta := s.opts.LearningRate * (sign*rating - current)
	next := clampRange(current+delta, s.opts.AffinityFloor, s.opts.AffinityCeiling)
	profile.Affinity[event.ToolID] = next

	profile.FeedbackCount++
	switch event.Outcome {
	case OutcomePositive:
		profile.PositiveCount++
		if event.Category != "" {
			profile.CategoryUse[event.Category]++
		}
	case OutcomeNegative:
		profile.NegativeCount++
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	profile.RecentTools = append([]UsageRecord{{
		ToolID:    event.ToolID,
		Category:  event.Category,
		Timestamp: ts,
	}}, profile.RecentTools...)
	if len(profile.RecentTools) > s.opts.HistoryLimit {
		profile.RecentTools = profile.RecentTools[:s.opts.HistoryLimit]
	}
	entry.mu.Unlock()

	coRecords := s.updateCoOccurrence(event, batchTools, sign, rating)

	if s.tracker != nil {
		s.tracker.Track(persistItem{
			record:        event.toStorage(),
			affinityUser:  event.UserID,
			affinityTool:  event.ToolID,
			affinityValue: next,
			cooccurrences: coRecords,
		})
	}
}

// updateCoOccurrence applies the same EMA update to every (event tool,
// batch tool) pair and returns the new values for persistence.
func (s *Store) updateCoOccurrence(event Event, batchTools []string, sign, rating float64) []storage.CoOccurrenceRecord {
	if len(batchTools) == 0 {
		return nil
	}

	s.coMu.Lock()
	defer s.coMu.Unlock()

	var records []storage.CoOccurrenceRecord
	for _, other := range batchTools {
		if other == "" || other == event.ToolID {
			continue
		}
		key := makePairKey(event.ToolID, other)
		current := s.cooccur[key]
		delta := s.opts.LearningRate * (sign*rating - current)
		next := clampRange(current+delta, 0, 1)
		s.cooccur[key] = next
		records = append(records, storage.CoOccurrenceRecord{
			ToolA: key.A,
			ToolB: key.B,
			Value: next,
		})
	}
	return records
}

// ProfileFor returns a snapshot of the user's profile. The snapshot is a
// deep copy: it never observes later feedback updates.
func (s *Store) ProfileFor(userID string) *UserProfile {
	entry := s.entryFor(userID)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	s.warmStart(entry)
	return entry.profile.Clone()
}

// CoOccurrence returns the current weight for a tool pair.
func (s *Store) CoOccurrence(toolA, toolB string) float64 {
	s.coMu.RLock()
	defer s.coMu.RUnlock()
	return s.cooccur[makePairKey(toolA, toolB)]
}

// NewUserThreshold exposes the configured cold-start boundary.
func (s *Store) NewUserThreshold() int {
	return s.opts.NewUserThreshold
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
