/*
Package storage implements a persistent storage layer for the adaptation loop.

This package provides SQLite-based storage for feedback events, affinity
snapshots, and the co-occurrence table, with graceful degradation if the
database is unavailable: failed initialization disables the store and turns
every operation into a no-op instead of an error.

The default database lives at ~/.tool-recommender/feedback.db and uses
modernc.org/sqlite (a pure Go, CGo-free implementation).
*/
package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store defines the interface for feedback persistence.
type Store interface {
	// Init opens the database and runs migrations.
	Init() error

	// AppendFeedback appends a feedback event to the log.
	AppendFeedback(rec FeedbackRecord) error

	// LoadFeedback retrieves feedback for a user since a given time,
	// newest first.
	LoadFeedback(userID string, since time.Time) ([]FeedbackRecord, error)

	// UpsertAffinity writes the current affinity for a (user, tool) pair.
	UpsertAffinity(userID, toolID string, value float64) error

	// LoadAffinities retrieves all affinities for a user.
	LoadAffinities(userID string) (map[string]float64, error)

	// UpsertCoOccurrence writes the current weight for a tool pair.
	UpsertCoOccurrence(toolA, toolB string, value float64) error

	// LoadCoOccurrences retrieves the full co-occurrence table.
	LoadCoOccurrences() ([]CoOccurrenceRecord, error)

	// Cleanup removes feedback events older than the retention window.
	Cleanup(retention time.Duration) error

	// Close closes the database connection.
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	mu       sync.Mutex
	initOnce sync.Once
}

// NewStore creates a store at the default location
// (~/.tool-recommender/feedback.db). If the home directory cannot be
// resolved the store is disabled but operations will not fail.
func NewStore() *SQLiteStore {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: failed to get home directory: %v", err)
		return &SQLiteStore{enabled: false}
	}

	return NewStoreAt(filepath.Join(home, ".tool-recommender", "feedback.db"))
}

// NewStoreAt creates a store at an explicit path, for tests and embedding.
func NewStoreAt(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath:  dbPath,
		enabled: true,
	}
}

// Init opens the database and runs migrations.
//
// If initialization fails, the store is disabled and subsequent operations
// become no-ops (graceful degradation).
func (s *SQLiteStore) Init() error {
	if !s.enabled {
		return nil
	}

	var initErr error
	s.initOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
			initErr = fmt.Errorf("failed to create db directory: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}
		s.db = db

		if err := db.Ping(); err != nil {
			initErr = fmt.Errorf("failed to ping database: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}

		if err := s.runMigrations(); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			s.enabled = false
			log.Printf("Warning: %v", initErr)
			return
		}
	})

	return initErr
}

// runMigrations creates the schema if it does not exist.
func (s *SQLiteStore) runMigrations() error {
	schema := `
		CREATE TABLE IF NOT EXISTS feedback_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			tool_id TEXT NOT NULL,
			batch_id TEXT,
			outcome TEXT NOT NULL,
			rating REAL NOT NULL,
			comment TEXT,
			timestamp TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_user_time
			ON feedback_events(user_id, timestamp);

		CREATE TABLE IF NOT EXISTS affinities (
			user_id TEXT NOT NULL,
			tool_id TEXT NOT NULL,
			value REAL NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (user_id, tool_id)
		);

		CREATE TABLE IF NOT EXISTS cooccurrences (
			tool_a TEXT NOT NULL,
			tool_b TEXT NOT NULL,
			value REAL NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (tool_a, tool_b)
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}

// Cleanup removes feedback events older than the retention window.
func (s *SQLiteStore) Cleanup(retention time.Duration) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-retention).Format(time.RFC3339)
	if _, err := s.db.Exec(`DELETE FROM feedback_events WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to clean up feedback events: %w", err)
	}
	return nil
}
