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
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/voxform/voxform-hub/internal/events"
	"github.com/voxform/voxform-hub/internal/logging"
	"github.com/voxform/voxform-hub/internal/storage"
)

// latencySampleCap bounds how many latency samples a submission carries;
// only the most recent ones are kept.
const latencySampleCap = 25

// SubmissionPublisher publishes accepted submissions to downstream
// consumers. Implemented by the NATS service.
type SubmissionPublisher interface {
	PublishSubmission(*events.Submission) error
}

// SubmissionsHandler handles HTTP requests for survey submissions
type SubmissionsHandler struct {
	store     *storage.SubmissionsStore
	publisher SubmissionPublisher // optional
}

// NewSubmissionsHandler creates a new submissions handler
func NewSubmissionsHandler(store *storage.SubmissionsStore, publisher SubmissionPublisher) *SubmissionsHandler {
	return &SubmissionsHandler{store: store, publisher: publisher}
}

// SubmitRequest represents the survey submission payload
type SubmitRequest struct {
	Channel       string                   `json:"channel"`
	LocationCode  string                   `json:"location_code"`
	ShopperID     string                   `json:"shopper_id"`
	VisitDatetime string                   `json:"visit_datetime"`
	Scores        []events.SubmissionScore `json:"scores"`
	Latency       []events.LatencySample   `json:"latency_samples,omitempty"`
}

// HandleSubmit handles POST /api/survey/submit
func (h *SubmissionsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	// Validate required fields
	if req.Channel == "" {
		http.Error(w, "channel is required", http.StatusBadRequest)
		return
	}
	if req.LocationCode == "" {
		http.Error(w, "location_code is required", http.StatusBadRequest)
		return
	}
	if len(req.Scores) == 0 {
		http.Error(w, "at least one score is required", http.StatusBadRequest)
		return
	}

	visit, err := time.Parse(time.RFC3339, req.VisitDatetime)
	if err != nil {
		http.Error(w, "visit_datetime must be RFC 3339", http.StatusBadRequest)
		return
	}

	submission := events.NewSubmission(req.Channel, req.LocationCode, req.ShopperID, visit)
	submission.Scores = req.Scores
	submission.Latency = req.Latency

	// Keep only the most recent latency samples
	if len(submission.Latency) > latencySampleCap {
		submission.Latency = submission.Latency[len(submission.Latency)-latencySampleCap:]
	}

	if err := h.store.Insert(submission); err != nil {
		if strings.Contains(err.Error(), "invalid submission") {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logging.LogError(err, "Failed to store submission",
			zap.String("location_code", req.LocationCode),
		)
		http.Error(w, "Failed to store submission", http.StatusInternalServerError)
		return
	}

	// Publishing is best-effort; the submission is already durable
	if h.publisher != nil {
		if err := h.publisher.PublishSubmission(submission); err != nil {
			logging.LogWarn("Failed to publish submission",
				zap.String("submission_uuid", submission.UUID),
				zap.Error(err),
			)
		}
	}

	logging.Sugar.Infow("Submission accepted via API",
		"submission_uuid", submission.UUID,
		"location_code", submission.LocationCode,
		"scores", len(submission.Scores),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(submission)
}

// HandleSubmissions handles GET /api/submissions
func (h *SubmissionsHandler) HandleSubmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := parseIntParam(r.URL.Query().Get("limit"), 50)
	submissions, err := h.store.ListRecent(limit)
	if err != nil {
		logging.LogError(err, "Failed to list submissions")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"submissions": submissions,
		"total":       len(submissions),
	})
}

// HandleSubmissionByID handles GET /api/submissions/{id}
func (h *SubmissionsHandler) HandleSubmissionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/submissions/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		http.Error(w, "Submission ID is required", http.StatusBadRequest)
		return
	}

	submission, err := h.store.GetByUUID(pathParts[0])
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "Submission not found", http.StatusNotFound)
			return
		}
		logging.LogError(err, "Failed to get submission",
			zap.String("uuid", pathParts[0]),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(submission)
}
