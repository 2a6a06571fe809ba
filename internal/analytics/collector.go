/*
Package analytics collects recommendation telemetry.

The engine emits one event per request, fire-and-forget: emission never
blocks and never fails the request. The in-memory collector aggregates
events into hourly buckets and serves time-range queries for the stats
surface.
*/
package analytics

import (
	"sync"
	"time"
)

// Event is the telemetry record for one recommendation request.
type Event struct {
	// Timestamp is when the request completed.
	Timestamp time.Time

	// UserID identifies the requesting user.
	UserID string

	// BatchID identifies the recommendation batch.
	BatchID string

	// Results is how many recommendations were returned.
	Results int

	// CacheHit reports whether the batch came from the cache.
	CacheHit bool

	// Fallback reports whether the fallback path produced the batch.
	Fallback bool

	// Duration is the request's processing time.
	Duration time.Duration

	// TopCombined is the combined score of the top result, 0 if empty.
	TopCombined float64
}

// AggregatedStats summarizes events over a time range.
type AggregatedStats struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	Requests       int           `json:"requests"`
	CacheHits      int           `json:"cacheHits"`
	Fallbacks      int           `json:"fallbacks"`
	EmptyResults   int           `json:"emptyResults"`
	AvgDuration    time.Duration `json:"avgDuration"`
	AvgTopCombined float64       `json:"avgTopCombined"`
}

// CacheHitRate returns hits/requests, 0 when there were no requests.
func (s AggregatedStats) CacheHitRate() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.Requests)
}

// Collector consumes recommendation telemetry.
type Collector interface {
	// Record ingests one event. Implementations must be non-blocking and
	// must never fail the caller.
	Record(event Event)
}

// bucket aggregates the events of one hour.
type bucket struct {
	requests      int
	cacheHits     int
	fallbacks     int
	emptyResults  int
	totalDuration time.Duration
	totalTop      float64
	scoredCount   int
}

// MemoryCollector is the in-process Collector: hourly buckets, bounded
// retention, lock-protected.
type MemoryCollector struct {
	mu        sync.Mutex
	buckets   map[int64]*bucket
	retention time.Duration
}

// NewMemoryCollector creates a collector keeping the given window of
// buckets. A non-positive retention defaults to 7 days.
func NewMemoryCollector(retention time.Duration) *MemoryCollector {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &MemoryCollector{
		buckets:   make(map[int64]*bucket),
		retention: retention,
	}
}

// bucketKey truncates a time to its hour.
func bucketKey(t time.Time) int64 {
	return t.Truncate(time.Hour).Unix()
}

// Record implements Collector.
func (m *MemoryCollector) Record(event Event) {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := bucketKey(ts)
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{}
		m.buckets[key] = b
		m.evictOld(ts)
	}

	b.requests++
	if event.CacheHit {
		b.cacheHits++
	}
	if event.Fallback {
		b.fallbacks++
	}
	if event.Results == 0 {
		b.emptyResults++
	}
	b.totalDuration += event.Duration
	if event.TopCombined > 0 {
		b.totalTop += event.TopCombined
		b.scoredCount++
	}
}

// evictOld drops buckets outside the retention window. Caller holds mu.
func (m *MemoryCollector) evictOld(now time.Time) {
	cutoff := bucketKey(now.Add(-m.retention))
	for key := range m.buckets {
		if key < cutoff {
			delete(m.buckets, key)
		}
	}
}

// Aggregate summarizes all buckets overlapping [from, to].
func (m *MemoryCollector) Aggregate(from, to time.Time) AggregatedStats {
	stats := AggregatedStats{From: from, To: to}

	m.mu.Lock()
	defer m.mu.Unlock()

	fromKey := bucketKey(from)
	toKey := bucketKey(to)

	var totalDuration time.Duration
	totalTop := 0.0
	scored := 0

	for key, b := range m.buckets {
		if key < fromKey || key > toKey {
			continue
		}
		stats.Requests += b.requests
		stats.CacheHits += b.cacheHits
		stats.Fallbacks += b.fallbacks
		stats.EmptyResults += b.emptyResults
		totalDuration += b.totalDuration
		totalTop += b.totalTop
		scored += b.scoredCount
	}

	if stats.Requests > 0 {
		stats.AvgDuration = totalDuration / time.Duration(stats.Requests)
	}
	if scored > 0 {
		stats.AvgTopCombined = totalTop / float64(scored)
	}

	return stats
}
