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

// Outcome classifies how a final transcript was handled by the session.
type Outcome string

const (
	OutcomeRecorded     Outcome = "recorded"
	OutcomeConfirming   Outcome = "confirming"
	OutcomeCommand      Outcome = "command"
	OutcomeUnrecognized Outcome = "unrecognized"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeRejected     Outcome = "rejected"
)

// AnswerEvent is the record of one processed final transcript with full
// traceability: what was heard, how it parsed, and what the session did
// with it.
type AnswerEvent struct {
	UUID      string    `json:"uuid" db:"uuid"`
	SessionID string    `json:"session_id" db:"session_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	// What was heard
	Transcript string `json:"transcript" db:"transcript"`
	Language   string `json:"language" db:"language"`

	// How it resolved
	QuestionID string  `json:"question_id,omitempty" db:"question_id"`
	Outcome    Outcome `json:"outcome" db:"outcome"`
	AnswerKind string  `json:"answer_kind,omitempty" db:"answer_kind"`
	Command    string  `json:"command,omitempty" db:"command"`
	Value      int     `json:"value,omitempty" db:"value"`

	// Timing
	LatencyMs float64 `json:"latency_ms,omitempty" db:"latency_ms"`

	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`
}

// NewAnswerEvent creates an event for the given session with a generated
// UUID and the current timestamp.
func NewAnswerEvent(sessionID, transcript string) *AnswerEvent {
	return &AnswerEvent{
		UUID:       uuid.NewString(),
		SessionID:  sessionID,
		Timestamp:  time.Now(),
		Transcript: transcript,
	}
}

// GetUUID returns the event identifier.
func (e *AnswerEvent) GetUUID() string {
	return e.UUID
}

// IsValid performs basic validation on the event.
func (e *AnswerEvent) IsValid() error {
	if e.UUID == "" {
		return fmt.Errorf("UUID is required")
	}
	if e.SessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if e.Outcome == "" {
		return fmt.Errorf("outcome is required")
	}
	return nil
}

// String returns a human-readable representation of the event.
func (e *AnswerEvent) String() string {
	return fmt.Sprintf("AnswerEvent{UUID: %s, Session: %s, Question: %s, Outcome: %s, Transcript: %q}",
		e.UUID, e.SessionID, e.QuestionID, e.Outcome, e.Transcript)
}
