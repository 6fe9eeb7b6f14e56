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

// Package security guards the two places untrusted input reaches the hub:
// session IDs taken from URL paths, and transcript text that ends up in
// log lines.
package security

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidSessionID rejects session IDs that are empty or carry
// characters outside the generated-ID alphabet.
var ErrInvalidSessionID = errors.New("invalid session ID")

// Session IDs are UUIDs (or the CLI's fixed name); anything beyond
// alphanumerics, dash and underscore never appears in a legitimate ID.
// Path separators and dot-dot sequences fail this pattern, so a session
// ID that validates can never traverse the sessions route.
var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateSessionID checks an ID lifted from a request path before it is
// used to look up a session.
func ValidateSessionID(sessionID string) error {
	if !sessionIDPattern.MatchString(sessionID) {
		return ErrInvalidSessionID
	}
	return nil
}

var lineBreaks = strings.NewReplacer("\n", "", "\r", "")

// SanitizeLogInput strips line breaks from user-controlled text, such as
// transcripts, so a spoken or posted phrase cannot forge extra log lines.
// Apply it to every request-derived value before logging.
func SanitizeLogInput(input string) string {
	return lineBreaks.Replace(input)
}
