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

// Package dedupe suppresses duplicate final transcripts.
//
// Recognizer engines echo finals in two ways: an immediate double-fire of
// the same text within a couple of seconds, and a re-delivery after an
// automatic engine restart. A short echo window against the last final
// absorbs the first kind; a longer rolling window over recent finals absorbs
// the second.
package dedupe

import "time"

const (
	// DefaultEchoWindow is the window for the last-final immediate echo check.
	DefaultEchoWindow = 2 * time.Second
	// DefaultWindow is the rolling window for restart double-fires.
	DefaultWindow = 5 * time.Second
	// DefaultMaxEntries bounds the rolling store during long sessions.
	DefaultMaxEntries = 60
)

// Suppressor implements time-windowed de-duplication of normalized final
// transcripts. It is not safe for concurrent use; the session engine calls
// it under its own lock.
type Suppressor struct {
	echoWindow time.Duration
	window     time.Duration
	maxEntries int

	lastFinal   string
	lastFinalAt time.Time
	recent      map[string]time.Time
}

// New creates a suppressor with the given windows. Non-positive arguments
// fall back to the defaults.
func New(echoWindow, window time.Duration, maxEntries int) *Suppressor {
	if echoWindow <= 0 {
		echoWindow = DefaultEchoWindow
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Suppressor{
		echoWindow: echoWindow,
		window:     window,
		maxEntries: maxEntries,
		recent:     make(map[string]time.Time),
	}
}

// IsDuplicate reports whether text is a likely duplicate of a recently
// registered final at the given time.
func (s *Suppressor) IsDuplicate(text string, now time.Time) bool {
	if text == s.lastFinal && !s.lastFinalAt.IsZero() && now.Sub(s.lastFinalAt) < s.echoWindow {
		return true
	}
	if at, ok := s.recent[text]; ok && now.Sub(at) < s.window {
		return true
	}
	return false
}

// RegisterFinal records text as seen at the given time. Stale entries are
// evicted lazily once the store exceeds its size bound.
func (s *Suppressor) RegisterFinal(text string, now time.Time) {
	s.lastFinal = text
	s.lastFinalAt = now
	s.recent[text] = now

	if len(s.recent) > s.maxEntries {
		cutoff := now.Add(-s.window)
		for k, v := range s.recent {
			if v.Before(cutoff) {
				delete(s.recent, k)
			}
		}
		// Pathological case: everything is still inside the window. Drop the
		// oldest entries until the bound holds again.
		for len(s.recent) > s.maxEntries {
			var oldestKey string
			var oldest time.Time
			for k, v := range s.recent {
				if oldestKey == "" || v.Before(oldest) {
					oldestKey, oldest = k, v
				}
			}
			delete(s.recent, oldestKey)
		}
	}
}

// Reset clears all registered finals.
func (s *Suppressor) Reset() {
	s.lastFinal = ""
	s.lastFinalAt = time.Time{}
	s.recent = make(map[string]time.Time)
}

// Size returns the number of entries in the rolling store.
func (s *Suppressor) Size() int { return len(s.recent) }
