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

	"github.com/voxform/voxform-hub/internal/events"
)

// SubmissionsStore handles database operations for completed surveys
type SubmissionsStore struct {
	db *Database
}

// NewSubmissionsStore creates a new submissions store
func NewSubmissionsStore(db *Database) *SubmissionsStore {
	return &SubmissionsStore{db: db}
}

// Insert stores a submission and its scores and latency samples in one
// transaction.
func (s *SubmissionsStore) Insert(submission *events.Submission) error {
	if err := submission.IsValid(); err != nil {
		return fmt.Errorf("invalid submission: %w", err)
	}

	tx, err := s.db.DB().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`
		INSERT INTO submissions (
			uuid, channel, location_code, shopper_id, visit_datetime, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`,
		submission.UUID, submission.Channel, submission.LocationCode,
		submission.ShopperID, submission.VisitDatetime, submission.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	for _, score := range submission.Scores {
		_, err = tx.Exec(`
			INSERT INTO submission_scores (submission_uuid, question_id, score, comment)
			VALUES (?, ?, ?, ?)`,
			submission.UUID, score.QuestionID, score.Score, score.Comment,
		)
		if err != nil {
			return fmt.Errorf("failed to insert submission score: %w", err)
		}
	}

	for _, sample := range submission.Latency {
		_, err = tx.Exec(`
			INSERT INTO submission_latency (submission_uuid, question_id, latency_ms)
			VALUES (?, ?, ?)`,
			submission.UUID, sample.QuestionID, sample.Milliseconds,
		)
		if err != nil {
			return fmt.Errorf("failed to insert latency sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit submission: %w", err)
	}

	log.Printf("📝 Stored submission: %s (Location: %s, Scores: %d)",
		submission.UUID, submission.LocationCode, len(submission.Scores))
	return nil
}

// GetByUUID retrieves a submission with its scores and latency samples
func (s *SubmissionsStore) GetByUUID(uuid string) (*events.Submission, error) {
	row := s.db.DB().QueryRow(`
		SELECT uuid, channel, location_code, shopper_id, visit_datetime, created_at
		FROM submissions WHERE uuid = ?`, uuid)

	var submission events.Submission
	err := row.Scan(
		&submission.UUID, &submission.Channel, &submission.LocationCode,
		&submission.ShopperID, &submission.VisitDatetime, &submission.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("submission not found")
		}
		return nil, fmt.Errorf("failed to query submission: %w", err)
	}

	if submission.Scores, err = s.loadScores(uuid); err != nil {
		return nil, err
	}
	if submission.Latency, err = s.loadLatency(uuid); err != nil {
		return nil, err
	}

	return &submission, nil
}

// ListRecent retrieves the most recent submissions, newest first,
// without their child rows.
func (s *SubmissionsStore) ListRecent(limit int) ([]*events.Submission, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.DB().Query(`
		SELECT uuid, channel, location_code, shopper_id, visit_datetime, created_at
		FROM submissions
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var submissions []*events.Submission
	for rows.Next() {
		var submission events.Submission
		err := rows.Scan(
			&submission.UUID, &submission.Channel, &submission.LocationCode,
			&submission.ShopperID, &submission.VisitDatetime, &submission.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, &submission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}

	return submissions, nil
}

// Delete removes a submission and its child rows by UUID
func (s *SubmissionsStore) Delete(uuid string) error {
	result, err := s.db.DB().Exec("DELETE FROM submissions WHERE uuid = ?", uuid)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("submission not found: %s", uuid)
	}

	log.Printf("🗑️  Deleted submission: %s", uuid)
	return nil
}

func (s *SubmissionsStore) loadScores(uuid string) ([]events.SubmissionScore, error) {
	rows, err := s.db.DB().Query(`
		SELECT question_id, score, comment
		FROM submission_scores
		WHERE submission_uuid = ?
		ORDER BY id`, uuid)
	if err != nil {
		return nil, fmt.Errorf("failed to query submission scores: %w", err)
	}
	defer rows.Close()

	var scores []events.SubmissionScore
	for rows.Next() {
		var score events.SubmissionScore
		if err := rows.Scan(&score.QuestionID, &score.Score, &score.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan submission score: %w", err)
		}
		scores = append(scores, score)
	}

	return scores, rows.Err()
}

func (s *SubmissionsStore) loadLatency(uuid string) ([]events.LatencySample, error) {
	rows, err := s.db.DB().Query(`
		SELECT question_id, latency_ms
		FROM submission_latency
		WHERE submission_uuid = ?
		ORDER BY id`, uuid)
	if err != nil {
		return nil, fmt.Errorf("failed to query latency samples: %w", err)
	}
	defer rows.Close()

	var samples []events.LatencySample
	for rows.Next() {
		var sample events.LatencySample
		if err := rows.Scan(&sample.QuestionID, &sample.Milliseconds); err != nil {
			return nil, fmt.Errorf("failed to scan latency sample: %w", err)
		}
		samples = append(samples, sample)
	}

	return samples, rows.Err()
}
