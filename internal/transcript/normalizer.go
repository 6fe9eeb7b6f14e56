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

// Package transcript cleans raw recognized phrases before parsing.
//
// Continuous recognizers frequently emit the same phrase twice in a single
// final result ("hello hello") when an utterance straddles a result
// boundary, so normalization collapses exact self-repetition in addition to
// the usual case folding and whitespace cleanup.
package transcript

import "strings"

// Normalize lower-cases and trims raw and collapses an exactly repeated
// phrase to a single occurrence. It is deterministic, idempotent and never
// panics.
func Normalize(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return ""
	}
	t = strings.Join(strings.Fields(t), " ")
	return collapseRepeatPhrase(t)
}

// collapseRepeatPhrase reduces "hello hello" to "hello" and the even
// word-count case "the cat the cat" to "the cat". Input is already folded
// and whitespace-normalized.
func collapseRepeatPhrase(t string) string {
	words := strings.Fields(t)
	if len(words) < 2 || len(words)%2 != 0 {
		return t
	}

	half := len(words) / 2
	first := strings.Join(words[:half], " ")
	second := strings.Join(words[half:], " ")
	if first == second {
		return first
	}
	return t
}
