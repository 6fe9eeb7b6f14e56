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

package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// CommandKind identifies a navigation or session command.
type CommandKind string

const (
	CmdRepeat           CommandKind = "repeat"
	CmdUndo             CommandKind = "undo"
	CmdSkip             CommandKind = "skip"
	CmdJump             CommandKind = "jump"
	CmdStop             CommandKind = "stop"
	CmdHelp             CommandKind = "help"
	CmdStatus           CommandKind = "status"
	CmdNextCategory     CommandKind = "next_category"
	CmdPreviousCategory CommandKind = "previous_category"
)

// Command is a parsed navigation command. Index carries the 0-based target
// question index for CmdJump and is zero otherwise.
type Command struct {
	Kind  CommandKind `json:"kind"`
	Index int         `json:"index,omitempty"`
}

var (
	jumpEN = regexp.MustCompile(`change question\s*(\d+)`)
	jumpAR = regexp.MustCompile(`سؤال\s*(\d+)`)
)

// commandWords maps contained keywords to command kinds, checked in order.
// Category navigation comes first so "next category" is not swallowed by the
// "next" → skip rule.
var commandWords = []struct {
	Words []string
	Kind  CommandKind
}{
	{[]string{"next category", "الفئة التالية", "القسم التالي"}, CmdNextCategory},
	{[]string{"previous category", "الفئة السابقة", "القسم السابق"}, CmdPreviousCategory},
	{[]string{"repeat", "again", "أعد", "كرر"}, CmdRepeat},
	{[]string{"undo", "go back", "back", "previous", "تراجع", "رجوع"}, CmdUndo},
	{[]string{"skip", "next", "تخطي", "التالي"}, CmdSkip},
	{[]string{"stop", "exit", "quit", "توقف", "إيقاف", "خروج"}, CmdStop},
	{[]string{"help", "مساعدة"}, CmdHelp},
	{[]string{"status", "progress", "الحالة", "التقدم"}, CmdStatus},
}

// ParseCommand detects a navigation command in a normalized transcript.
// Command detection is language-agnostic and precedes answer detection.
func ParseCommand(text string) (Command, bool) {
	if text == "" {
		return Command{}, false
	}
	t := foldDigits(text)

	// Numeric jump ("change question 3" / "سؤال ٣") before keyword scan so
	// the Arabic form is not misread as a bare answer.
	for _, re := range []*regexp.Regexp{jumpEN, jumpAR} {
		if m := re.FindStringSubmatch(t); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 {
				continue
			}
			return Command{Kind: CmdJump, Index: n - 1}, true
		}
	}

	for _, entry := range commandWords {
		for _, w := range entry.Words {
			if strings.Contains(t, w) {
				return Command{Kind: entry.Kind}, true
			}
		}
	}
	return Command{}, false
}

// wakePhrases begin a session while idle.
var wakePhrases = []string{"start survey", "begin survey", "ابدأ التقييم", "ابدأ"}

// IsWake reports whether the transcript contains a wake phrase.
func IsWake(text string) bool {
	for _, w := range wakePhrases {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
