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

package api

import (
	"encoding/json"
	"net/http"

	"github.com/voxform/voxform-hub/internal/questions"
)

// QuestionsHandler serves the active question catalog
type QuestionsHandler struct {
	catalog *questions.Catalog
}

// NewQuestionsHandler creates a new questions handler
func NewQuestionsHandler(catalog *questions.Catalog) *QuestionsHandler {
	return &QuestionsHandler{catalog: catalog}
}

// QuestionsResponse represents the catalog response
type QuestionsResponse struct {
	Questions  []questions.Question `json:"questions"`
	Categories []questions.Category `json:"categories"`
	Total      int                  `json:"total"`
}

// HandleQuestions handles GET /api/questions
func (h *QuestionsHandler) HandleQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := QuestionsResponse{
		Questions:  h.catalog.Questions(),
		Categories: h.catalog.Categories(),
		Total:      h.catalog.Len(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
