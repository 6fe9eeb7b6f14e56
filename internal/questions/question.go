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

package questions

import (
	"fmt"
	"strconv"
)

// Type classifies how a question is answered by voice.
type Type string

const (
	TypeRating         Type = "rating"
	TypeYesNo          Type = "yes_no"
	TypeMultipleChoice Type = "multiple_choice"
)

// Option is one selectable answer for a question. Value is the form value
// submitted for the option; it is not guaranteed to equal the option's
// 1-based display position.
type Option struct {
	Value   string `json:"value"`
	LabelEN string `json:"label_en"`
	LabelAR string `json:"label_ar,omitempty"`
}

// Question is a single survey question. Questions are immutable once loaded;
// a session never mutates them.
type Question struct {
	ID       string   `json:"id"`
	TextEN   string   `json:"text_en"`
	TextAR   string   `json:"text_ar,omitempty"`
	Category string   `json:"category,omitempty"`
	Type     Type     `json:"question_type"`
	Weight   float64  `json:"weight,omitempty"`
	Options  []Option `json:"options"`
}

// Text returns the display text for the given language ("ar" falls back to
// English when no Arabic text is set).
func (q *Question) Text(lang string) string {
	if lang == "ar" && q.TextAR != "" {
		return q.TextAR
	}
	return q.TextEN
}

// OptionAt returns the option at the 1-based display position n.
func (q *Question) OptionAt(n int) (Option, bool) {
	if n < 1 || n > len(q.Options) {
		return Option{}, false
	}
	return q.Options[n-1], true
}

// OptionByValue returns the option carrying the given form value.
func (q *Question) OptionByValue(value string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

// MaxScore returns the highest numeric option value the question can
// score, or 0 when no option carries a numeric value.
func (q *Question) MaxScore() int {
	max := 0
	for _, opt := range q.Options {
		if n, err := strconv.Atoi(opt.Value); err == nil && n > max {
			max = n
		}
	}
	return max
}

// Validate performs basic structural validation on the question.
func (q *Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("question id is required")
	}
	if q.TextEN == "" {
		return fmt.Errorf("question %s: english text is required", q.ID)
	}
	switch q.Type {
	case TypeRating, TypeYesNo, TypeMultipleChoice:
	default:
		return fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("question %s: at least one option is required", q.ID)
	}
	return nil
}

// ratingOptions builds the standard 1..5 option row used by rating questions.
func ratingOptions() []Option {
	opts := make([]Option, 0, 5)
	for i := 1; i <= 5; i++ {
		v := fmt.Sprintf("%d", i)
		opts = append(opts, Option{Value: v, LabelEN: v, LabelAR: v})
	}
	return opts
}

// yesNoOptions builds the conventional yes/no option pair. Yes is encoded as
// "1" and no as "0" in the default set; sets loaded from JSON may carry the
// legacy "5"/"1" encoding instead.
func yesNoOptions() []Option {
	return []Option{
		{Value: "1", LabelEN: "Yes", LabelAR: "نعم"},
		{Value: "0", LabelEN: "No", LabelAR: "لا"},
	}
}
