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

// Package form holds the answer state of a survey form: one selected option
// value per question, the way a radio group holds its checked input.
package form

import (
	"sync"

	"github.com/voxform/voxform-hub/internal/parser"
	"github.com/voxform/voxform-hub/internal/questions"
)

// ChangeFunc observes a successful answer write.
type ChangeFunc func(questionID, optionValue string)

// Model is the mutable form state a session records answers into. Safe for
// concurrent use.
type Model struct {
	mu        sync.Mutex
	selected  map[string]string
	observers []ChangeFunc
}

// NewModel returns an empty form model.
func NewModel() *Model {
	return &Model{selected: make(map[string]string)}
}

// Subscribe registers an observer notified after each successful write.
func (m *Model) Subscribe(fn ChangeFunc) {
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

// Record applies a parsed answer to the question's option row and reports
// success. Score and Choice answers select the Nth option by display order,
// not by underlying value. Yes prefers the option valued "1" then "5"; No
// prefers "0" then "1" — the conventional encodings, since yes/no semantics
// are not uniformly value-encoded across question sets. Record never
// panics; an answer with no matching option returns false.
func (m *Model) Record(q *questions.Question, ans parser.Answer) bool {
	if q == nil {
		return false
	}

	var opt questions.Option
	var ok bool
	switch ans.Kind {
	case parser.AnswerScore, parser.AnswerChoice:
		opt, ok = q.OptionAt(ans.Value)
	case parser.AnswerYes:
		opt, ok = firstOptionByValue(q, "1", "5")
	case parser.AnswerNo:
		opt, ok = firstOptionByValue(q, "0", "1")
	}
	if !ok {
		return false
	}

	m.mu.Lock()
	m.selected[q.ID] = opt.Value
	observers := make([]ChangeFunc, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	for _, fn := range observers {
		fn(q.ID, opt.Value)
	}
	return true
}

// Clear removes any selection for the question.
func (m *Model) Clear(questionID string) {
	m.mu.Lock()
	delete(m.selected, questionID)
	m.mu.Unlock()
}

// Selected returns the chosen option value for a question.
func (m *Model) Selected(questionID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.selected[questionID]
	return v, ok
}

// Answered returns the number of questions with a recorded selection.
func (m *Model) Answered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.selected)
}

// Snapshot returns a copy of all selections keyed by question id.
func (m *Model) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.selected))
	for k, v := range m.selected {
		out[k] = v
	}
	return out
}

// Reset discards all selections.
func (m *Model) Reset() {
	m.mu.Lock()
	m.selected = make(map[string]string)
	m.mu.Unlock()
}

func firstOptionByValue(q *questions.Question, values ...string) (questions.Option, bool) {
	for _, v := range values {
		if opt, ok := q.OptionByValue(v); ok {
			return opt, true
		}
	}
	return questions.Option{}, false
}
