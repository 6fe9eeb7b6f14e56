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

// Package parser maps normalized spoken phrases to survey answers and
// navigation commands.
//
// Answer parsing is layered: exact lexical match, then an isolated digit
// regex, then fuzzy/phonetic option matching, then qualitative sentiment.
// The layering maximizes recall against noisy ASR output at the cost of
// occasional false positives, which the session's confirmation sub-dialog
// absorbs for the low-confidence layers.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/voxform/voxform-hub/internal/questions"
)

// AnswerKind identifies the variant of a parsed answer.
type AnswerKind string

const (
	AnswerScore  AnswerKind = "score"
	AnswerYes    AnswerKind = "yes"
	AnswerNo     AnswerKind = "no"
	AnswerChoice AnswerKind = "choice"
)

// Answer is a parsed spoken answer. Value is the 1-based score or option
// position for AnswerScore and AnswerChoice; it is zero for yes/no.
type Answer struct {
	Kind  AnswerKind `json:"kind"`
	Value int        `json:"value,omitempty"`
}

// Parsed couples an answer with its confidence tier. Confident answers
// (explicit digits, number words, primary yes/no sets) are recorded
// directly; the rest go through the confirmation sub-dialog.
type Parsed struct {
	Answer    Answer
	Confident bool
}

// fuzzyLabelThreshold is the minimum Jaro-Winkler similarity for a spoken
// phrase to match an option label.
const fuzzyLabelThreshold = 0.85

var isolatedDigit = regexp.MustCompile(`\b([1-9])\b`)

// ParseAnswer maps a normalized transcript to an answer for the given
// question. It returns false when nothing matches; that is a normal branch,
// not an error.
func ParseAnswer(text string, q *questions.Question) (Parsed, bool) {
	if text == "" || q == nil {
		return Parsed{}, false
	}

	switch q.Type {
	case questions.TypeYesNo:
		return parseYesNo(text)
	case questions.TypeMultipleChoice:
		return parseChoice(text, q)
	default:
		return parseScore(text, 5)
	}
}

// parseScore finds a numeric score in 1..max. Exact lexical match wins, then
// the isolated digit regex, then qualitative sentiment words (rating scale
// only).
func parseScore(text string, max int) (Parsed, bool) {
	t := foldDigits(text)

	if n, ok := lookupNumber(t, max); ok {
		return Parsed{Answer: Answer{Kind: AnswerScore, Value: n}, Confident: true}, true
	}

	if n, ok := findIsolatedDigit(t, max); ok {
		return Parsed{Answer: Answer{Kind: AnswerScore, Value: n}, Confident: true}, true
	}

	if max == 5 {
		for _, entry := range qualitativePhrases {
			if strings.Contains(t, entry.Phrase) {
				return Parsed{Answer: Answer{Kind: AnswerScore, Value: entry.Score}}, true
			}
		}
	}

	return Parsed{}, false
}

// parseYesNo checks the primary yes set before the no set, then the
// failsafe mishear sets at low confidence.
func parseYesNo(text string) (Parsed, bool) {
	tokens := tokenize(text)

	for _, w := range yesWords {
		if containsToken(tokens, w) || strings.Contains(text, w) {
			return Parsed{Answer: Answer{Kind: AnswerYes}, Confident: true}, true
		}
	}
	for _, w := range noWords {
		if containsToken(tokens, w) {
			return Parsed{Answer: Answer{Kind: AnswerNo}, Confident: true}, true
		}
	}
	for _, w := range yesMishears {
		if containsToken(tokens, w) {
			return Parsed{Answer: Answer{Kind: AnswerYes}}, true
		}
	}
	for _, w := range noMishears {
		if containsToken(tokens, w) {
			return Parsed{Answer: Answer{Kind: AnswerNo}}, true
		}
	}
	return Parsed{}, false
}

// parseChoice resolves a multiple-choice answer: number or ordinal up to the
// option count, then spoken option-label matching, then letter choices, then
// fuzzy label similarity as a last resort.
func parseChoice(text string, q *questions.Question) (Parsed, bool) {
	n := len(q.Options)
	t := foldDigits(text)

	if v, ok := lookupNumber(t, n); ok {
		return Parsed{Answer: Answer{Kind: AnswerChoice, Value: v}, Confident: true}, true
	}
	if v, ok := findIsolatedDigit(t, n); ok {
		return Parsed{Answer: Answer{Kind: AnswerChoice, Value: v}, Confident: true}, true
	}

	if v, ok := matchOptionLabel(t, q); ok {
		return Parsed{Answer: Answer{Kind: AnswerChoice, Value: v}, Confident: true}, true
	}

	if v, ok := matchLetter(t, n); ok {
		return Parsed{Answer: Answer{Kind: AnswerChoice, Value: v}, Confident: true}, true
	}

	if v, ok := fuzzyMatchOptionLabel(t, q); ok {
		return Parsed{Answer: Answer{Kind: AnswerChoice, Value: v}}, true
	}

	return Parsed{}, false
}

// lookupNumber checks the whole phrase and then each token against the
// number word table, bounded by max.
func lookupNumber(t string, max int) (int, bool) {
	if n, ok := numberWords[t]; ok && n <= max {
		return n, true
	}
	for _, tok := range tokenize(t) {
		if n, ok := numberWords[tok]; ok && n <= max {
			return n, true
		}
	}
	return 0, false
}

func findIsolatedDigit(t string, max int) (int, bool) {
	for _, m := range isolatedDigit.FindAllStringSubmatch(t, -1) {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= max {
			return n, true
		}
	}
	return 0, false
}

// matchOptionLabel matches the spoken phrase against option labels by prefix
// or substring, in either language.
func matchOptionLabel(t string, q *questions.Question) (int, bool) {
	for i, opt := range q.Options {
		for _, label := range optionLabels(opt) {
			if label == "" {
				continue
			}
			if strings.HasPrefix(label, t) || strings.Contains(t, label) {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// fuzzyMatchOptionLabel picks the option whose label has the highest
// Jaro-Winkler similarity to the phrase, provided it clears the threshold.
func fuzzyMatchOptionLabel(t string, q *questions.Question) (int, bool) {
	best := 0
	bestScore := 0.0
	for i, opt := range q.Options {
		for _, label := range optionLabels(opt) {
			if label == "" {
				continue
			}
			score := matchr.JaroWinkler(t, label, false)
			if score > bestScore {
				best, bestScore = i+1, score
			}
		}
	}
	if bestScore >= fuzzyLabelThreshold {
		return best, true
	}
	return 0, false
}

func matchLetter(t string, max int) (int, bool) {
	for _, tok := range tokenize(t) {
		if n, ok := letterChoices[tok]; ok && n <= max {
			return n, true
		}
	}
	return 0, false
}

func optionLabels(opt questions.Option) []string {
	return []string{strings.ToLower(opt.LabelEN), strings.ToLower(opt.LabelAR)}
}

// tokenize splits on anything that is not a letter or digit, matching how
// the recognizer separates words in both scripts.
func tokenize(t string) []string {
	return strings.FieldsFunc(t, func(r rune) bool {
		return !isLetterOrDigit(r)
	})
}

func isLetterOrDigit(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= 0x0600 && r <= 0x06FF: // Arabic block, includes Arabic-Indic digits
		return true
	}
	return false
}

func containsToken(tokens []string, w string) bool {
	for _, tok := range tokens {
		if tok == w {
			return true
		}
	}
	return false
}
