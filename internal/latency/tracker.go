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

// Package latency records wall-clock time between a question being asked and
// its answer being recorded.
package latency

import "time"

// ExportCap is the maximum number of samples included in a submission
// payload.
const ExportCap = 25

// Sample is one recorded question/answer timing.
type Sample struct {
	QuestionID   string  `json:"question_id"`
	Milliseconds float64 `json:"ms"`
}

// Tracker accumulates one sample per recorded answer. Skipped or undone
// questions produce no sample. Not safe for concurrent use; the session
// engine owns it.
type Tracker struct {
	startedAt time.Time
	running   bool
	samples   []Sample
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{}
}

// StartTimer marks the moment the current question was asked. Calling it
// again before StopAndRecord restarts the measurement (a re-asked question
// is timed from the re-ask).
func (t *Tracker) StartTimer(now time.Time) {
	t.startedAt = now
	t.running = true
}

// Cancel discards a running measurement without producing a sample.
func (t *Tracker) Cancel() {
	t.running = false
}

// StopAndRecord appends a sample for questionID and returns the elapsed
// milliseconds. It returns 0 and records nothing when no timer is running.
func (t *Tracker) StopAndRecord(questionID string, now time.Time) float64 {
	if !t.running {
		return 0
	}
	ms := float64(now.Sub(t.startedAt)) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	t.samples = append(t.samples, Sample{QuestionID: questionID, Milliseconds: ms})
	t.running = false
	return ms
}

// Running reports whether a question timer is active.
func (t *Tracker) Running() bool { return t.running }

// Len returns the number of recorded samples.
func (t *Tracker) Len() int { return len(t.samples) }

// Samples returns a copy of all recorded samples in order.
func (t *Tracker) Samples() []Sample {
	out := make([]Sample, len(t.samples))
	copy(out, t.samples)
	return out
}

// Export returns the most recent ExportCap samples for the submission
// payload.
func (t *Tracker) Export() []Sample {
	s := t.samples
	if len(s) > ExportCap {
		s = s[len(s)-ExportCap:]
	}
	out := make([]Sample, len(s))
	copy(out, s)
	return out
}

// Average returns the mean sample duration in milliseconds, or 0 when no
// samples exist. Derived, not stored.
func (t *Tracker) Average() float64 {
	if len(t.samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range t.samples {
		sum += s.Milliseconds
	}
	return sum / float64(len(t.samples))
}

// Last returns the most recent sample.
func (t *Tracker) Last() (Sample, bool) {
	if len(t.samples) == 0 {
		return Sample{}, false
	}
	return t.samples[len(t.samples)-1], true
}

// Reset clears all samples and any running timer. Called at session start.
func (t *Tracker) Reset() {
	t.samples = nil
	t.running = false
}
