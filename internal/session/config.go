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

package session

import "time"

// Config holds the tuning parameters of one voice session. The defaults are
// the canonical parameter set; the historical variants (different duplicate
// windows, backoff constants) are intentionally not preserved.
type Config struct {
	// Language is the active UI language, "en" or "ar". It selects prompt
	// text and the recognizer language code (en-US / ar-SA).
	Language string

	// EchoWindow suppresses an immediate re-delivery of the same final.
	EchoWindow time.Duration
	// DedupWindow absorbs recognizer-restart double-fires.
	DedupWindow time.Duration

	// StartAskDelay is the pause between the session-start announcement and
	// the first question, so the question is not clipped by the
	// announcement utterance.
	StartAskDelay time.Duration
	// NextQuestionDelay is the pause before asking the next question after
	// an answer is recorded.
	NextQuestionDelay time.Duration
	// RepromptDelay is the pause before re-asking the question after
	// unrecognized input.
	RepromptDelay time.Duration
	// CompleteIdleDelay is the pause before a completed session returns to
	// idle and releases the recognizer.
	CompleteIdleDelay time.Duration

	// Recognizer auto-restart backoff.
	RestartBackoffBase   time.Duration
	RestartBackoffFactor float64
	RestartBackoffMax    time.Duration

	// SpeechRate is the TTS rate multiplier.
	SpeechRate float32

	// ConfirmLowConfidence routes ambiguous parses (qualitative words,
	// mishear corrections, fuzzy label matches) through the confirmation
	// sub-dialog instead of recording them directly.
	ConfirmLowConfidence bool
}

// DefaultConfig returns the canonical session parameters.
func DefaultConfig() Config {
	return Config{
		Language:             "en",
		EchoWindow:           2 * time.Second,
		DedupWindow:          5 * time.Second,
		StartAskDelay:        300 * time.Millisecond,
		NextQuestionDelay:    160 * time.Millisecond,
		RepromptDelay:        3 * time.Second,
		CompleteIdleDelay:    3 * time.Second,
		RestartBackoffBase:   400 * time.Millisecond,
		RestartBackoffFactor: 1.6,
		RestartBackoffMax:    4 * time.Second,
		SpeechRate:           1.0,
		ConfirmLowConfidence: true,
	}
}

// RecognizerLanguage returns the BCP-47 code for the configured language.
func (c Config) RecognizerLanguage() string {
	if c.Language == "ar" {
		return "ar-SA"
	}
	return "en-US"
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.EchoWindow <= 0 {
		c.EchoWindow = d.EchoWindow
	}
	if c.DedupWindow <= 0 {
		c.DedupWindow = d.DedupWindow
	}
	if c.StartAskDelay <= 0 {
		c.StartAskDelay = d.StartAskDelay
	}
	if c.NextQuestionDelay <= 0 {
		c.NextQuestionDelay = d.NextQuestionDelay
	}
	if c.RepromptDelay <= 0 {
		c.RepromptDelay = d.RepromptDelay
	}
	if c.CompleteIdleDelay <= 0 {
		c.CompleteIdleDelay = d.CompleteIdleDelay
	}
	if c.RestartBackoffBase <= 0 {
		c.RestartBackoffBase = d.RestartBackoffBase
	}
	if c.RestartBackoffFactor <= 1 {
		c.RestartBackoffFactor = d.RestartBackoffFactor
	}
	if c.RestartBackoffMax <= 0 {
		c.RestartBackoffMax = d.RestartBackoffMax
	}
	if c.SpeechRate <= 0 {
		c.SpeechRate = d.SpeechRate
	}
	return c
}
