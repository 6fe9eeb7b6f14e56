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
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voxform/voxform-hub/internal/events"
	"github.com/voxform/voxform-hub/internal/logging"
	"github.com/voxform/voxform-hub/internal/storage"
)

// AnswerEventsHandler handles HTTP requests for answer events
type AnswerEventsHandler struct {
	store *storage.AnswerEventsStore
}

// NewAnswerEventsHandler creates a new answer events handler
func NewAnswerEventsHandler(store *storage.AnswerEventsStore) *AnswerEventsHandler {
	return &AnswerEventsHandler{store: store}
}

// ListAnswerEventsResponse represents the response for listing answer events
type ListAnswerEventsResponse struct {
	Events     []*events.AnswerEvent `json:"events"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// HandleAnswerEvents handles GET /api/answer-events
func (h *AnswerEventsHandler) HandleAnswerEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.listAnswerEvents(w, r)
}

// HandleAnswerEventByID handles GET /api/answer-events/{id}
func (h *AnswerEventsHandler) HandleAnswerEventByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Extract UUID from URL path
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/answer-events/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		http.Error(w, "Event ID is required", http.StatusBadRequest)
		return
	}

	uuid := pathParts[0]
	h.getAnswerEventByID(w, r, uuid)
}

// listAnswerEvents handles GET /api/answer-events
func (h *AnswerEventsHandler) listAnswerEvents(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters
	query := r.URL.Query()

	// Pagination
	page := parseIntParam(query.Get("page"), 1)
	pageSize := parseIntParam(query.Get("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100 // Limit maximum page size
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	// Filtering
	options := storage.ListOptions{
		SessionID:  query.Get("session_id"),
		QuestionID: query.Get("question_id"),
		Outcome:    query.Get("outcome"),
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
		SortBy:     query.Get("sort_by"),
		SortOrder:  strings.ToUpper(query.Get("sort_order")),
	}

	// Parse time filters
	if startTimeStr := query.Get("start_time"); startTimeStr != "" {
		if startTime, err := time.Parse(time.RFC3339, startTimeStr); err == nil {
			options.StartTime = &startTime
		}
	}
	if endTimeStr := query.Get("end_time"); endTimeStr != "" {
		if endTime, err := time.Parse(time.RFC3339, endTimeStr); err == nil {
			options.EndTime = &endTime
		}
	}

	// Get total count for pagination
	total, err := h.store.Count(options)
	if err != nil {
		logging.LogError(err, "Failed to count answer events")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Get events
	eventsList, err := h.store.List(options)
	if err != nil {
		logging.LogError(err, "Failed to list answer events")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Build response
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	response := ListAnswerEventsResponse{
		Events:     eventsList,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}

	// Log the API request
	logging.Sugar.Infow("Answer events API request",
		"endpoint", "list",
		"page", page,
		"page_size", pageSize,
		"total_results", total,
		"filters", map[string]interface{}{
			"session_id": options.SessionID,
			"outcome":    options.Outcome,
		},
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// getAnswerEventByID handles GET /api/answer-events/{id}
func (h *AnswerEventsHandler) getAnswerEventByID(w http.ResponseWriter, r *http.Request, uuid string) {
	event, err := h.store.GetByUUID(uuid)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "Answer event not found", http.StatusNotFound)
			return
		}
		logging.LogError(err, "Failed to get answer event",
			zap.String("uuid", uuid),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logging.Sugar.Infow("Answer event retrieved via API",
		"event_uuid", uuid,
		"session_id", event.SessionID,
		"outcome", event.Outcome,
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

// parseIntParam parses integer parameter with default value
func parseIntParam(param string, defaultValue int) int {
	if param == "" {
		return defaultValue
	}

	if value, err := strconv.Atoi(param); err == nil {
		return value
	}

	return defaultValue
}
