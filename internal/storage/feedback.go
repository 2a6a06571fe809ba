package storage

import (
	"log"
	"time"
)

// AppendFeedback appends a feedback event to the log.
func (s *SQLiteStore) AppendFeedback(rec FeedbackRecord) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO feedback_events (user_id, tool_id, batch_id, outcome, rating, comment, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		rec.UserID,
		rec.ToolID,
		rec.BatchID,
		rec.Outcome,
		rec.Rating,
		rec.Comment,
		rec.Timestamp.Format(time.RFC3339),
	)

	if err != nil {
		log.Printf("Warning: failed to append feedback: %v", err)
	}

	return nil
}

// LoadFeedback retrieves feedback for a user since a given time, newest first.
func (s *SQLiteStore) LoadFeedback(userID string, since time.Time) ([]FeedbackRecord, error) {
	if !s.enabled || s.db == nil {
		return []FeedbackRecord{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT user_id, tool_id, batch_id, outcome, rating, comment, timestamp
		FROM feedback_events
		WHERE user_id = ? AND timestamp >= ?
		ORDER BY timestamp DESC
	`

	rows, err := s.db.Query(query, userID, since.Format(time.RFC3339))
	if err != nil {
		log.Printf("Warning: failed to query feedback: %v", err)
		return []FeedbackRecord{}, nil
	}
	defer rows.Close()

	var records []FeedbackRecord
	for rows.Next() {
		var rec FeedbackRecord
		var timestampStr string

		if err := rows.Scan(
			&rec.UserID,
			&rec.ToolID,
			&rec.BatchID,
			&rec.Outcome,
			&rec.Rating,
			&rec.Comment,
			&timestampStr,
		); err != nil {
			log.Printf("Warning: failed to scan feedback row: %v", err)
			continue
		}

		rec.Timestamp, err = time.Parse(time.RFC3339, timestampStr)
		if err != nil {
			log.Printf("Warning: failed to parse timestamp: %v", err)
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}

// UpsertAffinity writes the current affinity for a (user, tool) pair.
func (s *SQLiteStore) UpsertAffinity(userID, toolID string, value float64) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO affinities (user_id, tool_id, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, tool_id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	_, err := s.db.Exec(query, userID, toolID, value, time.Now().Format(time.RFC3339))
	if err != nil {
		log.Printf("Warning: failed to upsert affinity: %v", err)
	}
	return nil
}

// LoadAffinities retrieves all affinities for a user.
func (s *SQLiteStore) LoadAffinities(userID string) (map[string]float64, error) {
	affinities := make(map[string]float64)

	if !s.enabled || s.db == nil {
		return affinities, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT tool_id, value FROM affinities WHERE user_id = ?`, userID)
	if err != nil {
		log.Printf("Warning: failed to query affinities: %v", err)
		return affinities, nil
	}
	defer rows.Close()

	for rows.Next() {
		var toolID string
		var value float64
		if err := rows.Scan(&toolID, &value); err != nil {
			log.Printf("Warning: failed to scan affinity row: %v", err)
			continue
		}
		affinities[toolID] = value
	}

	return affinities, nil
}

// UpsertCoOccurrence writes the current weight for a tool pair.
func (s *SQLiteStore) UpsertCoOccurrence(toolA, toolB string, value float64) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO cooccurrences (tool_a, tool_b, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tool_a, tool_b) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	_, err := s.db.Exec(query, toolA, toolB, value, time.Now().Format(time.RFC3339))
	if err != nil {
		log.Printf("Warning: failed to upsert co-occurrence: %v", err)
	}
	return nil
}

// LoadCoOccurrences retrieves the full co-occurrence table.
func (s *SQLiteStore) LoadCoOccurrences() ([]CoOccurrenceRecord, error) {
	if !s.enabled || s.db == nil {
		return []CoOccurrenceRecord{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT tool_a, tool_b, value, updated_at FROM cooccurrences`)
	if err != nil {
		log.Printf("Warning: failed to query co-occurrences: %v", err)
		return []CoOccurrenceRecord{}, nil
	}
	defer rows.Close()

	var records []CoOccurrenceRecord
	for rows.Next() {
		var rec CoOccurrenceRecord
		var updatedStr string

		if err := rows.Scan(&rec.ToolA, &rec.ToolB, &rec.Value, &updatedStr); err != nil {
			log.Printf("Warning: failed to scan co-occurrence row: %v", err)
			continue
		}

		rec.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr)
		if err != nil {
			log.Printf("Warning: failed to parse timestamp: %v", err)
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}
