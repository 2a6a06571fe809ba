package feedback

import (
	"log"
	"sync"
	"time"

	"github.com/khanglvm/tool-recommender/internal/storage"
)

const (
	// itemQueueSize is the buffer size for the persistence queue.
	// If full, items are dropped (non-blocking).
	itemQueueSize = 1000

	// batchFlushSize is the number of items that triggers an immediate flush.
	batchFlushSize = 10

	// flushInterval is how often pending items are flushed to storage.
	flushInterval = 50 * time.Millisecond
)

// persistItem carries everything one feedback event needs written: the
// append-only record plus the updated affinity and co-occurrence snapshots.
type persistItem struct {
	record        storage.FeedbackRecord
	affinityUser  string
	affinityTool  string
	affinityValue float64
	cooccurrences []storage.CoOccurrenceRecord
}

// Tracker persists feedback in the background with non-blocking writes, so
// RecordFeedback never waits on storage I/O.
type Tracker struct {
	store    storage.Store
	queue    chan persistItem
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTracker creates a tracker with background processing.
func NewTracker(store storage.Store) *Tracker {
	t := &Tracker{
		store:    store,
		queue:    make(chan persistItem, itemQueueSize),
		stopChan: make(chan struct{}),
	}

	t.wg.Add(1)
	go t.processItems()

	return t
}

// Track queues a persistence item (non-blocking). If the queue is full the
// item is dropped and a warning is logged; the in-memory state is already
// updated so only durability is lost.
func (t *Tracker) Track(item persistItem) {
	select {
	case t.queue <- item:
	default:
		log.Printf("Warning: feedback persistence queue full, dropping event for tool: %s", item.record.ToolID)
	}
}

// Stop gracefully shuts down the tracker, flushing remaining items.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopChan)
		t.wg.Wait()
	})
}

// QueueLen returns the current number of queued items, for monitoring.
func (t *Tracker) QueueLen() int {
	return len(t.queue)
}

// processItems runs in the background, batching and flushing items.
func (t *Tracker) processItems() {
	defer t.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]persistItem, 0, batchFlushSize)

	for {
		select {
		case item := <-t.queue:
			batch = append(batch, item)
			if len(batch) >= batchFlushSize {
				t.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				t.flush(batch)
				batch = batch[:0]
			}

		case <-t.stopChan:
			// Drain whatever is still queued, then flush and exit.
			for {
				select {
				case item := <-t.queue:
					batch = append(batch, item)
					if len(batch) >= batchFlushSize {
						t.flush(batch)
						batch = batch[:0]
					}
				default:
					t.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch of items to storage.
func (t *Tracker) flush(items []persistItem) {
	for _, item := range items {
		if err := t.store.AppendFeedback(item.record); err != nil {
			log.Printf("Warning: failed to persist feedback: %v", err)
		}
		if err := t.store.UpsertAffinity(item.affinityUser, item.affinityTool, item.affinityValue); err != nil {
			log.Printf("Warning: failed to persist affinity: %v", err)
		}
		for _, co := range item.cooccurrences {
			if err := t.store.UpsertCoOccurrence(co.ToolA, co.ToolB, co.Value); err != nil {
				log.Printf("Warning: failed to persist co-occurrence: %v", err)
			}
		}
	}
}
