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

package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubmissionScore is a single answered question in a submission.
type SubmissionScore struct {
	QuestionID string `json:"question_id"`
	Score      int    `json:"score"`
	Comment    string `json:"comment,omitempty"`
}

// LatencySample records how long one answer took, in milliseconds from
// the moment the question was asked to the moment it was recorded.
type LatencySample struct {
	QuestionID   string  `json:"question_id"`
	Milliseconds float64 `json:"ms"`
}

// Submission is a completed survey ready for persistence.
type Submission struct {
	UUID          string            `json:"uuid"`
	Channel       string            `json:"channel"`
	LocationCode  string            `json:"location_code"`
	ShopperID     string            `json:"shopper_id"`
	VisitDatetime time.Time         `json:"visit_datetime"`
	Scores        []SubmissionScore `json:"scores"`
	Latency       []LatencySample   `json:"latency_samples,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// NewSubmission creates a submission with a generated UUID and the
// current creation timestamp.
func NewSubmission(channel, locationCode, shopperID string, visit time.Time) *Submission {
	return &Submission{
		UUID:          uuid.NewString(),
		Channel:       channel,
		LocationCode:  locationCode,
		ShopperID:     shopperID,
		VisitDatetime: visit,
		CreatedAt:     time.Now(),
	}
}

// GetUUID returns the submission identifier.
func (s *Submission) GetUUID() string {
	return s.UUID
}

// IsValid performs basic validation on the submission.
func (s *Submission) IsValid() error {
	if s.UUID == "" {
		return fmt.Errorf("UUID is required")
	}
	if s.Channel == "" {
		return fmt.Errorf("channel is required")
	}
	if s.LocationCode == "" {
		return fmt.Errorf("location code is required")
	}
	if s.VisitDatetime.IsZero() {
		return fmt.Errorf("visit datetime is required")
	}
	if len(s.Scores) == 0 {
		return fmt.Errorf("at least one score is required")
	}
	for i, score := range s.Scores {
		if score.QuestionID == "" {
			return fmt.Errorf("score %d: question ID is required", i)
		}
		if score.Score < 0 {
			return fmt.Errorf("score %d: negative score", i)
		}
	}
	return nil
}
