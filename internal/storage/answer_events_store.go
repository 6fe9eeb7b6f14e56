/*
 * This file is part of Voxform (https://github.com/voxform/voxform).
 * Copyright (C) 2025 Voxform
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package storage

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/voxform/voxform-hub/internal/events"
)

// AnswerEventsStore handles database operations for answer events
type AnswerEventsStore struct {
	db *Database
}

// NewAnswerEventsStore creates a new answer events store
func NewAnswerEventsStore(db *Database) *AnswerEventsStore {
	return &AnswerEventsStore{db: db}
}

// Insert stores a new answer event in the database
func (s *AnswerEventsStore) Insert(event *events.AnswerEvent) error {
	if err := event.IsValid(); err != nil {
		return fmt.Errorf("invalid answer event: %w", err)
	}

	query := `
		INSERT INTO answer_events (
			uuid, session_id, timestamp,
			transcript, language,
			question_id, outcome, answer_kind, command, value,
			latency_ms, error_message
		) VALUES (
			?, ?, ?,
			?, ?,
			?, ?, ?, ?, ?,
			?, ?
		)`

	_, err := s.db.DB().Exec(query,
		event.UUID, event.SessionID, event.Timestamp,
		event.Transcript, event.Language,
		event.QuestionID, string(event.Outcome), event.AnswerKind, event.Command, event.Value,
		event.LatencyMs, event.ErrorMessage,
	)

	if err != nil {
		return fmt.Errorf("failed to insert answer event: %w", err)
	}

	log.Printf("📝 Stored answer event: %s (Session: %s, Outcome: %s)",
		event.UUID, event.SessionID, event.Outcome)
	return nil
}

// GetByUUID retrieves an answer event by its UUID
func (s *AnswerEventsStore) GetByUUID(uuid string) (*events.AnswerEvent, error) {
	query := `
		SELECT uuid, session_id, timestamp,
			   transcript, language,
			   question_id, outcome, answer_kind, command, value,
			   latency_ms, error_message
		FROM answer_events
		WHERE uuid = ?`

	row := s.db.DB().QueryRow(query, uuid)
	return s.scanAnswerEvent(row)
}

// List retrieves answer events with pagination and filtering
func (s *AnswerEventsStore) List(options ListOptions) ([]*events.AnswerEvent, error) {
	query, args := s.buildListQuery(options)

	rows, err := s.db.DB().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query answer events: %w", err)
	}
	defer rows.Close()

	var eventsList []*events.AnswerEvent
	for rows.Next() {
		event, err := s.scanAnswerEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer event: %w", err)
		}
		eventsList = append(eventsList, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answer events: %w", err)
	}

	return eventsList, nil
}

// Count returns the total number of answer events matching the filter
func (s *AnswerEventsStore) Count(options ListOptions) (int64, error) {
	// Build count query using same filters
	options.Limit = 0
	options.Offset = 0
	query, args := s.buildListQuery(options)

	// Replace SELECT fields with COUNT(*)
	countQuery := "SELECT COUNT(*) FROM (" + query + ") as filtered"

	var count int64
	err := s.db.DB().QueryRow(countQuery, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count answer events: %w", err)
	}

	return count, nil
}

// GetRecentBySession retrieves recent events for a specific session
func (s *AnswerEventsStore) GetRecentBySession(sessionID string, limit int) ([]*events.AnswerEvent, error) {
	options := ListOptions{
		SessionID: sessionID,
		Limit:     limit,
	}
	return s.List(options)
}

// Delete removes an answer event by UUID
func (s *AnswerEventsStore) Delete(uuid string) error {
	result, err := s.db.DB().Exec("DELETE FROM answer_events WHERE uuid = ?", uuid)
	if err != nil {
		return fmt.Errorf("failed to delete answer event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("answer event not found: %s", uuid)
	}

	log.Printf("🗑️  Deleted answer event: %s", uuid)
	return nil
}

// ListOptions defines filtering and pagination options
type ListOptions struct {
	// Filtering
	SessionID  string
	QuestionID string
	Outcome    string
	StartTime  *time.Time
	EndTime    *time.Time

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "timestamp", "latency_ms", "value"
	SortOrder string // "ASC", "DESC"
}

// buildListQuery constructs the SQL query based on ListOptions
func (s *AnswerEventsStore) buildListQuery(options ListOptions) (string, []interface{}) {
	query := `
		SELECT uuid, session_id, timestamp,
			   transcript, language,
			   question_id, outcome, answer_kind, command, value,
			   latency_ms, error_message
		FROM answer_events WHERE 1=1`

	var args []interface{}

	// Apply filters
	if options.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, options.SessionID)
	}

	if options.QuestionID != "" {
		query += " AND question_id = ?"
		args = append(args, options.QuestionID)
	}

	if options.Outcome != "" {
		query += " AND outcome = ?"
		args = append(args, options.Outcome)
	}

	if options.StartTime != nil {
		query += " AND timestamp >= ?"
		args = append(args, options.StartTime)
	}

	if options.EndTime != nil {
		query += " AND timestamp <= ?"
		args = append(args, options.EndTime)
	}

	// Apply sorting
	sortBy := options.SortBy
	if sortBy == "" {
		sortBy = "timestamp"
	}

	sortOrder := options.SortOrder
	if sortOrder == "" {
		sortOrder = "DESC"
	}

	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	// Apply pagination
	if options.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, options.Limit)

		if options.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, options.Offset)
		}
	}

	return query, args
}

// scanAnswerEvent scans a database row into an AnswerEvent struct
func (s *AnswerEventsStore) scanAnswerEvent(scanner interface{}) (*events.AnswerEvent, error) {
	var event events.AnswerEvent
	var outcome string

	var row interface {
		Scan(dest ...interface{}) error
	}

	switch v := scanner.(type) {
	case *sql.Row:
		row = v
	case *sql.Rows:
		row = v
	default:
		return nil, fmt.Errorf("unsupported scanner type")
	}

	err := row.Scan(
		&event.UUID, &event.SessionID, &event.Timestamp,
		&event.Transcript, &event.Language,
		&event.QuestionID, &outcome, &event.AnswerKind, &event.Command, &event.Value,
		&event.LatencyMs, &event.ErrorMessage,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("answer event not found")
		}
		return nil, err
	}

	event.Outcome = events.Outcome(outcome)

	return &event, nil
}
