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
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Category is a named group of questions navigated as a unit.
type Category struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// Catalog is an immutable, ordered question set.
type Catalog struct {
	questions  []Question
	categories []Category
}

// NewCatalog builds a catalog from the given questions. Questions keep their
// input order; categories are formed in order of first appearance, with
// uncategorized questions grouped under "General".
func NewCatalog(qs []Question) (*Catalog, error) {
	if len(qs) == 0 {
		return nil, fmt.Errorf("catalog requires at least one question")
	}

	for i := range qs {
		q := &qs[i]
		if q.Type == "" {
			q.Type = TypeRating
		}
		if len(q.Options) == 0 {
			switch q.Type {
			case TypeYesNo:
				q.Options = yesNoOptions()
			default:
				q.Options = ratingOptions()
			}
		}
		if q.Weight == 0 {
			q.Weight = 1.0
		}
		if err := q.Validate(); err != nil {
			return nil, err
		}
	}

	var cats []Category
	index := map[string]int{}
	for _, q := range qs {
		name := q.Category
		if name == "" {
			name = "General"
		}
		i, ok := index[name]
		if !ok {
			i = len(cats)
			index[name] = i
			cats = append(cats, Category{Name: name})
		}
		cats[i].Questions = append(cats[i].Questions, q)
	}

	return &Catalog{questions: qs, categories: cats}, nil
}

// LoadFile reads a JSON question set from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question set: %w", err)
	}

	var qs []Question
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("failed to parse question set: %w", err)
	}

	return NewCatalog(qs)
}

// Default returns the built-in fallback question set used when the host does
// not inject one.
func Default() *Catalog {
	c, err := NewCatalog([]Question{
		{ID: "Q1", TextEN: "Greeting professionalism", TextAR: "التحية والاحترافية", Type: TypeRating},
		{ID: "Q2", TextEN: "Wait time satisfaction", TextAR: "الرضا عن وقت الانتظار", Type: TypeRating},
		{ID: "Q3", TextEN: "Resolution effectiveness", TextAR: "فعالية الحل", Type: TypeRating},
		{ID: "Q4", TextEN: "Facility cleanliness", TextAR: "نظافة المرفق", Type: TypeRating},
		{ID: "Q5", TextEN: "Overall experience", TextAR: "التجربة بشكل عام", Type: TypeRating},
	})
	if err != nil {
		// The built-in set is static and always valid.
		panic(err)
	}
	return c
}

// Len returns the number of questions in the catalog.
func (c *Catalog) Len() int { return len(c.questions) }

// Questions returns the ordered question list.
func (c *Catalog) Questions() []Question { return c.questions }

// Categories returns the question groups in order of first appearance.
func (c *Catalog) Categories() []Category { return c.categories }

// At returns the question at the 0-based global index.
func (c *Catalog) At(i int) (*Question, bool) {
	if i < 0 || i >= len(c.questions) {
		return nil, false
	}
	return &c.questions[i], true
}

// ByID returns the question with the given id.
func (c *Catalog) ByID(id string) (*Question, bool) {
	for i := range c.questions {
		if c.questions[i].ID == id {
			return &c.questions[i], true
		}
	}
	return nil, false
}

// WeightedScore computes the overall score for a set of selections as the
// weight-normalized average of each answered question's score fraction
// (selected value over the question's maximum). Questions without a numeric
// selection, and questions whose options carry no numeric values, are left
// out of both sides of the average. Returns false when nothing scores.
func (c *Catalog) WeightedScore(selected map[string]string) (float64, bool) {
	var weighted, totalWeight float64
	for i := range c.questions {
		q := &c.questions[i]
		value, ok := selected[q.ID]
		if !ok {
			continue
		}
		max := q.MaxScore()
		if max <= 0 {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		weighted += q.Weight * float64(n) / float64(max)
		totalWeight += q.Weight
	}
	if totalWeight == 0 {
		return 0, false
	}
	return weighted / totalWeight, true
}

// CategoryOf returns the category containing the question at the global
// index, along with the question's 0-based position inside that category.
func (c *Catalog) CategoryOf(i int) (Category, int, bool) {
	if i < 0 || i >= len(c.questions) {
		return Category{}, 0, false
	}
	id := c.questions[i].ID
	for _, cat := range c.categories {
		for j := range cat.Questions {
			if cat.Questions[j].ID == id {
				return cat, j, true
			}
		}
	}
	return Category{}, 0, false
}
