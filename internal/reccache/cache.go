/*
Package reccache implements the recommendation cache.

The cache is split into three independent TTL classes so behavior-derived
aggregates can go stale slower than raw recommendation results. Entries are
held in ristretto caches (size-bounded, TTL-evicting) and computations are
coalesced per fingerprint with singleflight: N concurrent callers with the
same fingerprint trigger exactly one underlying computation.

The cache is best-effort: any internal fault degrades to a miss and the
caller recomputes. It never surfaces its own errors.
*/
package reccache

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"
)

// Class selects one of the cache's independent TTL classes.
type Class int

const (
	// ClassRecommendations holds ranked recommendation batches.
	ClassRecommendations Class = iota

	// ClassContext holds derived context snapshots.
	ClassContext

	// ClassBehavior holds behavior-derived aggregates.
	ClassBehavior

	numClasses
)

func (c Class) String() string {
	switch c {
	case ClassRecommendations:
		return "recommendations"
	case ClassContext:
		return "context"
	case ClassBehavior:
		return "behavior"
	default:
		return "unknown"
	}
}

// ClassConfig sizes one cache class.
type ClassConfig struct {
	// TTL is how long entries stay fresh.
	TTL time.Duration

	// MaxEntries bounds the class size; older entries are evicted under
	// pressure.
	MaxEntries int64
}

// Config holds per-class settings.
type Config struct {
	Recommendations ClassConfig
	Context         ClassConfig
	Behavior        ClassConfig
}

// DefaultConfig returns the documented defaults: recommendations expire
// fastest, behavior aggregates slowest.
func DefaultConfig() Config {
	return Config{
		Recommendations: ClassConfig{TTL: 5 * time.Minute, MaxEntries: 1024},
		Context:         ClassConfig{TTL: 15 * time.Minute, MaxEntries: 2048},
		Behavior:        ClassConfig{TTL: time.Hour, MaxEntries: 1024},
	}
}

func (c Config) class(class Class) ClassConfig {
	switch class {
	case ClassContext:
		return c.Context
	case ClassBehavior:
		return c.Behavior
	default:
		return c.Recommendations
	}
}

// Cache is the three-class recommendation cache.
type Cache struct {
	caches [numClasses]*ristretto.Cache[string, any]
	ttls   [numClasses]time.Duration

	group        singleflight.Group
	computations atomic.Int64
}

// New creates a cache. Zero class settings resolve to defaults.
func New(cfg Config) (*Cache, error) {
	defaults := DefaultConfig()

	c := &Cache{}
	for class := Class(0); class < numClasses; class++ {
		settings := cfg.class(class)
		fallback := defaults.class(class)
		if settings.TTL <= 0 {
			settings.TTL = fallback.TTL
		}
		if settings.MaxEntries <= 0 {
			settings.MaxEntries = fallback.MaxEntries
		}

		cache, err := ristretto.NewCache(&ristretto.Config[string, any]{
			NumCounters: settings.MaxEntries * 10,
			MaxCost:     settings.MaxEntries,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s cache: %w", class, err)
		}
		c.caches[class] = cache
		c.ttls[class] = settings.TTL
	}

	return c, nil
}

// Get returns the cached value for a key, or a miss. Internal faults also
// report a miss.
func (c *Cache) Get(class Class, key string) (value any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: cache read fault for %s/%s: %v", class, key, r)
			value, ok = nil, false
		}
	}()

	if class < 0 || class >= numClasses {
		return nil, false
	}
	return c.caches[class].Get(key)
}

// Set stores a value. The write is made visible before returning so an
// immediate re-read observes it.
func (c *Cache) Set(class Class, key string, value any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: cache write fault for %s/%s: %v", class, key, r)
		}
	}()

	if class < 0 || class >= numClasses {
		return
	}
	c.caches[class].SetWithTTL(key, value, 1, c.ttls[class])
	c.caches[class].Wait()
}

// GetOrCompute returns the cached value for the fingerprint or runs fn to
// produce it, guaranteeing at most one concurrent computation per
// fingerprint within a class. Concurrent callers with the same fingerprint
// share the in-flight result. fn errors are returned uncached.
func (c *Cache) GetOrCompute(ctx context.Context, class Class, fingerprint string, fn func(context.Context) (any, error)) (any, error) {
	if value, ok := c.Get(class, fingerprint); ok {
		return value, nil
	}

	flightKey := fmt.Sprintf("%d:%s", class, fingerprint)
	value, err, _ := c.group.Do(flightKey, func() (any, error) {
		// A waiter may arrive after the leader already stored the value.
		if value, ok := c.Get(class, fingerprint); ok {
			return value, nil
		}

		c.computations.Add(1)
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(class, fingerprint, value)
		return value, nil
	})
	return value, err
}

// Invalidate drops a single entry, forcing recomputation on next demand.
func (c *Cache) Invalidate(class Class, key string) {
	if class < 0 || class >= numClasses {
		return
	}
	c.caches[class].Del(key)
	c.caches[class].Wait()
}

// Computations returns how many times GetOrCompute ran its compute
// function; tests use it to observe cache hits and coalescing.
func (c *Cache) Computations() int64 {
	return c.computations.Load()
}

// Close releases the underlying caches.
func (c *Cache) Close() {
	for _, cache := range c.caches {
		if cache != nil {
			cache.Close()
		}
	}
}
