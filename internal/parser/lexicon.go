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

import "strings"

// Curated English+Arabic lexical tables for short survey answers. The tables
// deliberately include common recognizer mishears ("won", "tree", "fife")
// because callers deal with noisy ASR output, not typed text.

// numberWords maps exact spoken tokens to numbers 1..9. Digits, cardinal and
// ordinal words, homophone mishears, and Arabic forms (Modern Standard plus
// common dialect spellings) all resolve here.
var numberWords = map[string]int{
	// Digits
	"1": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9,

	// English cardinals
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9,

	// English ordinals
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9,

	// Homophone mishears
	"won": 1, "want": 1, "wine": 1,
	"to": 2, "too": 2, "tube": 2,
	"tree": 3, "free": 3,
	"for": 4, "fore": 4, "door": 4,
	"fife": 5, "hive": 5, "dive": 5,
	"ate": 8,

	// Arabic cardinals and ordinals
	"واحد": 1, "اثنان": 2, "اثنين": 2, "ثلاثة": 3, "أربعة": 4, "اربعة": 4, "خمسة": 5,
	"ستة": 6, "سبعة": 7, "ثمانية": 8, "تسعة": 9,
	"الأول": 1, "اول": 1, "الثاني": 2, "الثالث": 3, "الرابع": 4, "الخامس": 5,

	// Arabic dialect spellings
	"وحده": 1, "اتنين": 2, "تلاته": 3, "اربعه": 4, "خمسه": 5,

	// Transliterated English numbers heard by the Arabic recognizer
	"وان": 1, "تو": 2, "فور": 4, "فايف": 5,
}

// qualitativePhrase maps sentiment expressions to a 1..5 score. Ordered
// longest-phrase-first so "not good" wins over "good" and "جيد جداً" over
// "جيد". Matches from this table are low confidence and go through the
// confirmation sub-dialog.
var qualitativePhrases = []struct {
	Phrase string
	Score  int
}{
	// English, multiword first
	{"below average", 2},
	{"pretty good", 4},
	{"very good", 4},
	{"not good", 2},
	{"very bad", 1},
	{"so-so", 3},
	{"excellent", 5}, {"perfect", 5}, {"outstanding", 5}, {"amazing", 5}, {"fantastic", 5},
	{"great", 4}, {"nice", 4}, {"good", 4},
	{"okay", 3}, {"average", 3}, {"fine", 3}, {"medium", 3}, {"neutral", 3},
	{"disappointing", 2}, {"poor", 2}, {"bad", 2},
	{"terrible", 1}, {"awful", 1}, {"horrible", 1}, {"worst", 1},

	// Arabic, multiword first
	{"جيد جداً", 5}, {"مقبول جداً", 4}, {"سيئ جداً", 1}, {"مش كويس", 2}, {"مش حلو", 2}, {"مش بطال", 3},
	{"ممتاز", 5}, {"رائع", 5}, {"عظيم", 5}, {"مدهش", 5},
	{"جيد", 4}, {"كويس", 4}, {"حلو", 4}, {"جميل", 4},
	{"عادي", 3}, {"متوسط", 3}, {"وسط", 3},
	{"ضعيف", 2}, {"مقبول", 2},
	{"فظيع", 1}, {"وحش", 1}, {"مقرف", 1}, {"الأسوأ", 1},
}

// yesWords and noWords are the primary explicit answer sets. The yes family
// is checked before the no family, so overlapping tokens resolve to yes.
var yesWords = []string{"yes", "yeah", "yep", "correct", "true", "right", "affirmative", "نعم", "ايه", "أجل", "اجل"}

var noWords = []string{"no", "nope", "nah", "wrong", "false", "negative", "incorrect", "لا", "كلا"}

// yesMishears and noMishears are failsafe corrections for frequent
// recognizer errors. Matches are low confidence.
var yesMishears = []string{"yeas", "chess", "guess", "jess"}

var noMishears = []string{"know", "noah", "none"}

// letterChoices maps spoken letters a..i to options 1..9.
var letterChoices = map[string]int{
	"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6, "g": 7, "h": 8, "i": 9,
}

// arabicIndicDigits maps Arabic-Indic digit runes to ASCII.
var arabicIndicDigits = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// foldDigits rewrites Arabic-Indic digits to ASCII so a single digit regex
// covers both scripts.
func foldDigits(text string) string {
	return arabicIndicDigits.Replace(text)
}
