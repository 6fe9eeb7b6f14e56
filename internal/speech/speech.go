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

// Package speech defines the interfaces to the external recognition and
// synthesis engines. The hub never implements recognition itself; a
// recognizer delivers typed events and the session engine drives it through
// the Recognizer control surface.
package speech

import "go.uber.org/zap"

// EventKind identifies a recognizer event variant.
type EventKind string

const (
	EventStarted           EventKind = "started"
	EventPartialTranscript EventKind = "partial_transcript"
	EventFinalTranscript   EventKind = "final_transcript"
	EventError             EventKind = "error"
	EventEnded             EventKind = "ended"
)

// Event is one recognizer callback, modeled as data so the session engine
// can be driven with synthetic events in tests. Text is set for transcript
// events; Code carries the engine error code for EventError
// (network, no-speech, aborted, not-allowed).
type Event struct {
	Kind EventKind `json:"kind"`
	Text string    `json:"text,omitempty"`
	Code string    `json:"code,omitempty"`
}

// Recognizer is the control surface of a continuous, interim-results
// speech-recognition engine. Implementations deliver Events to the handler
// registered by the session engine. Start and Stop are idempotent: starting
// a running recognizer or stopping a stopped one is a no-op, never an error
// the caller must handle.
type Recognizer interface {
	Start() error
	Stop() error
	SetLanguage(code string)
}

// SpeakOptions configures one synthesis request.
type SpeakOptions struct {
	// Force cancels any in-flight utterance before speaking.
	Force bool
	// Rate is the speech rate multiplier; zero means the engine default 1.0.
	Rate float32
	// Lang is the BCP-47 language code ("en-US", "ar-SA"); empty means the
	// session language.
	Lang string
}

// Speaker is the text-to-speech collaborator. Cancel is best effort:
// cancelling when nothing is speaking is a no-op.
type Speaker interface {
	Speak(text string, opts SpeakOptions) error
	Cancel()
}

// NopRecognizer satisfies Recognizer for sessions fed over the transcript
// API, where the recognizer runs on the client.
type NopRecognizer struct{}

func (NopRecognizer) Start() error         { return nil }
func (NopRecognizer) Stop() error          { return nil }
func (NopRecognizer) SetLanguage(_ string) {}

// LogSpeaker writes announcements to the structured log instead of an audio
// device. Used in server mode, where synthesis happens on the client.
type LogSpeaker struct {
	Logger *zap.SugaredLogger
}

// Speak logs the utterance.
func (s *LogSpeaker) Speak(text string, opts SpeakOptions) error {
	if s.Logger != nil {
		s.Logger.Infow("🔊 speak", "text", text, "force", opts.Force, "lang", opts.Lang)
	}
	return nil
}

// Cancel is a no-op for the log speaker.
func (s *LogSpeaker) Cancel() {}
