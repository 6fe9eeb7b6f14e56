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
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/voxform/voxform-hub/internal/logging"
	"github.com/voxform/voxform-hub/internal/security"
	"github.com/voxform/voxform-hub/internal/session"
	"github.com/voxform/voxform-hub/internal/speech"
)

// SessionsHandler handles HTTP requests for live survey sessions
type SessionsHandler struct {
	manager *session.Manager
}

// NewSessionsHandler creates a new sessions handler
func NewSessionsHandler(manager *session.Manager) *SessionsHandler {
	return &SessionsHandler{manager: manager}
}

// CreateSessionRequest represents the request for creating a session
type CreateSessionRequest struct {
	Language string `json:"language,omitempty"`
}

// TranscriptRequest represents a recognizer event delivered over HTTP.
// Kind defaults to a final transcript when omitted.
type TranscriptRequest struct {
	Kind string `json:"kind,omitempty"`
	Text string `json:"text,omitempty"`
	Code string `json:"code,omitempty"`
}

// HandleSessions handles POST /api/sessions
func (h *SessionsHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.createSession(w, r)
}

// HandleSessionByID routes /api/sessions/{id} and its sub-resources
func (h *SessionsHandler) HandleSessionByID(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		http.Error(w, "Session ID is required", http.StatusBadRequest)
		return
	}

	id := pathParts[0]
	if err := security.ValidateSessionID(id); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sub := ""
	if len(pathParts) > 1 {
		sub = pathParts[1]
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		h.getSession(w, r, id)
	case sub == "" && r.Method == http.MethodDelete:
		h.deleteSession(w, r, id)
	case sub == "start" && r.Method == http.MethodPost:
		h.startSession(w, r, id)
	case sub == "stop" && r.Method == http.MethodPost:
		h.stopSession(w, r, id)
	case sub == "transcripts" && r.Method == http.MethodPost:
		h.postTranscript(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// createSession handles POST /api/sessions
func (h *SessionsHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}

	engine, err := h.manager.Create(req.Language, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logging.LogSessionEvent(engine.ID(), "created",
		zap.String("language", req.Language),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(engine.Snapshot())
}

// getSession handles GET /api/sessions/{id}
func (h *SessionsHandler) getSession(w http.ResponseWriter, r *http.Request, id string) {
	engine, ok := h.manager.Get(id)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(engine.Snapshot())
}

// deleteSession handles DELETE /api/sessions/{id}
func (h *SessionsHandler) deleteSession(w http.ResponseWriter, r *http.Request, id string) {
	if !h.manager.Remove(id) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	logging.LogSessionEvent(id, "removed")
	w.WriteHeader(http.StatusNoContent)
}

// startSession handles POST /api/sessions/{id}/start
func (h *SessionsHandler) startSession(w http.ResponseWriter, r *http.Request, id string) {
	engine, ok := h.manager.Get(id)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	if err := engine.Start(); err != nil {
		logging.LogError(err, "Failed to start session", zap.String("session_id", id))
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	logging.LogSessionEvent(id, "started")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(engine.Snapshot())
}

// stopSession handles POST /api/sessions/{id}/stop
func (h *SessionsHandler) stopSession(w http.ResponseWriter, r *http.Request, id string) {
	engine, ok := h.manager.Get(id)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	engine.Stop()

	logging.LogSessionEvent(id, "stopped")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(engine.Snapshot())
}

// postTranscript handles POST /api/sessions/{id}/transcripts. It feeds a
// recognizer event into the session; external speech frontends deliver
// their transcripts here.
func (h *SessionsHandler) postTranscript(w http.ResponseWriter, r *http.Request, id string) {
	engine, ok := h.manager.Get(id)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	var req TranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	kind, err := eventKind(req.Kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if kind == speech.EventFinalTranscript || kind == speech.EventPartialTranscript {
		if strings.TrimSpace(req.Text) == "" {
			http.Error(w, "text is required for transcript events", http.StatusBadRequest)
			return
		}
	}

	engine.HandleEvent(speech.Event{Kind: kind, Text: req.Text, Code: req.Code})

	logging.Sugar.Debugw("Transcript ingested",
		"session_id", id,
		"kind", kind,
		"text", security.SanitizeLogInput(req.Text),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(engine.Snapshot())
}

// eventKind maps the wire kind to a recognizer event kind
func eventKind(kind string) (speech.EventKind, error) {
	switch kind {
	case "", "final", string(speech.EventFinalTranscript):
		return speech.EventFinalTranscript, nil
	case "partial", string(speech.EventPartialTranscript):
		return speech.EventPartialTranscript, nil
	case string(speech.EventStarted):
		return speech.EventStarted, nil
	case string(speech.EventError):
		return speech.EventError, nil
	case string(speech.EventEnded):
		return speech.EventEnded, nil
	default:
		return "", fmt.Errorf("unknown event kind: %q", kind)
	}
}
