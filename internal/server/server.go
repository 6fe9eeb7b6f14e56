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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/voxform/voxform-hub/internal/api"
	"github.com/voxform/voxform-hub/internal/config"
	"github.com/voxform/voxform-hub/internal/events"
	"github.com/voxform/voxform-hub/internal/logging"
	"github.com/voxform/voxform-hub/internal/messaging"
	"github.com/voxform/voxform-hub/internal/questions"
	"github.com/voxform/voxform-hub/internal/session"
	"github.com/voxform/voxform-hub/internal/storage"
)

// Server is the Voxform hub: HTTP API, session manager, and persistence
type Server struct {
	cfg    *config.Config
	mux    *http.ServeMux
	server *http.Server

	catalog *questions.Catalog
	manager *session.Manager

	db                *storage.Database
	answerEventsStore *storage.AnswerEventsStore
	submissionsStore  *storage.SubmissionsStore

	nats *messaging.NATSService

	// Server context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new hub server from configuration
func New(cfg *config.Config) (*Server, error) {
	mux := http.NewServeMux()

	// Create server context
	ctx, cancel := context.WithCancel(context.Background())

	// Load the question catalog
	catalog, err := loadCatalog(cfg.Questions.Path)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to load question catalog: %w", err)
	}

	// Open storage
	db, err := storage.NewDatabase(storage.DatabaseConfig{Path: cfg.Database.Path})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Server{
		cfg:               cfg,
		mux:               mux,
		catalog:           catalog,
		db:                db,
		answerEventsStore: storage.NewAnswerEventsStore(db),
		submissionsStore:  storage.NewSubmissionsStore(db),
		ctx:               ctx,
		cancel:            cancel,
	}

	s.manager = session.NewManager(catalog, sessionConfig(cfg.Voice))

	// Connect NATS when enabled; the hub works without it
	if cfg.NATS.Enabled {
		s.nats = messaging.NewNATSServiceWithURL(cfg.NATS.URL)
		if err := s.nats.Connect(); err != nil {
			logging.LogWarn("NATS unavailable, continuing without messaging")
			s.nats = nil
		}
	}

	// Set up HTTP server
	s.server = &http.Server{
		Addr:         ":" + strconv.Itoa(s.cfg.Server.Port),
		Handler:      s.mux,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Configure components
	s.configureComponents()

	// Set up routes
	s.routes()

	return s, nil
}

// loadCatalog loads the question set from a file, or the built-in set
// when no path is configured.
func loadCatalog(path string) (*questions.Catalog, error) {
	if path == "" {
		return questions.Default(), nil
	}
	return questions.LoadFile(path)
}

// sessionConfig maps the hub voice settings onto session engine options
func sessionConfig(v config.VoiceConfig) session.Config {
	return session.Config{
		Language:             v.Language,
		EchoWindow:           v.EchoWindow,
		DedupWindow:          v.DedupWindow,
		StartAskDelay:        v.StartAskDelay,
		NextQuestionDelay:    v.NextQuestionDelay,
		RepromptDelay:        v.RepromptDelay,
		CompleteIdleDelay:    v.CompleteIdleDelay,
		RestartBackoffBase:   v.RestartBackoffBase,
		RestartBackoffFactor: v.RestartBackoffFactor,
		RestartBackoffMax:    v.RestartBackoffMax,
		SpeechRate:           v.SpeechRate,
		ConfirmLowConfidence: v.ConfirmLowConfidence,
	}
}

// configureComponents wires session output into persistence and messaging
func (s *Server) configureComponents() {
	// Every processed transcript becomes a durable answer event
	s.manager.OnEvent(func(event *events.AnswerEvent) {
		if err := s.answerEventsStore.Insert(event); err != nil {
			logging.LogError(err, "Failed to persist answer event")
		}
		if s.nats != nil {
			if err := s.nats.PublishAnswerEvent(event); err != nil {
				logging.LogError(err, "Failed to publish answer event")
			}
		}
	})

	// Session debug output goes to the structured log
	s.manager.SetSink(func(tag, line string) {
		logging.Sugar.Debugw("Session trace", "tag", tag, "line", line)
	})

	logging.Sugar.Infow("🔧 Components configured",
		"questions", s.catalog.Len(),
		"db_path", s.cfg.Database.Path,
		"nats_enabled", s.nats != nil)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	logging.Sugar.Infow("🚀 Voxform Hub starting",
		"http_port", s.cfg.Server.Port,
		"language", s.cfg.Voice.Language,
		"questions", s.catalog.Len())

	// Start HTTP server
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	logging.Sugar.Infow("🛑 Shutting down Voxform Hub")

	// Cancel context to stop background services
	s.cancel()

	// Stop all live sessions before the listener goes away
	s.manager.StopAll()

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.nats != nil {
		s.nats.Close()
	}

	if err := s.db.Close(); err != nil {
		logging.LogError(err, "Failed to close database")
	}

	logging.Sugar.Infow("✅ Voxform Hub shut down successfully")
	return nil
}

// Manager exposes the session manager, mainly for tests
func (s *Server) Manager() *session.Manager {
	return s.manager
}

// Handler exposes the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.mux
}

// routes sets up HTTP routing
func (s *Server) routes() {
	// Health check
	s.mux.HandleFunc("/health", s.handleHealth)

	// Question catalog
	questionsHandler := api.NewQuestionsHandler(s.catalog)
	s.mux.HandleFunc("/api/questions", questionsHandler.HandleQuestions)

	// Live sessions
	sessionsHandler := api.NewSessionsHandler(s.manager)
	s.mux.HandleFunc("/api/sessions", sessionsHandler.HandleSessions)
	s.mux.HandleFunc("/api/sessions/", sessionsHandler.HandleSessionByID)

	// Answer event history
	answerEventsHandler := api.NewAnswerEventsHandler(s.answerEventsStore)
	s.mux.HandleFunc("/api/answer-events", answerEventsHandler.HandleAnswerEvents)
	s.mux.HandleFunc("/api/answer-events/", answerEventsHandler.HandleAnswerEventByID)

	// Submissions
	var publisher api.SubmissionPublisher
	if s.nats != nil {
		publisher = s.nats
	}
	submissionsHandler := api.NewSubmissionsHandler(s.submissionsStore, publisher)
	s.mux.HandleFunc("/api/survey/submit", submissionsHandler.HandleSubmit)
	s.mux.HandleFunc("/api/submissions", submissionsHandler.HandleSubmissions)
	s.mux.HandleFunc("/api/submissions/", submissionsHandler.HandleSubmissionByID)

	logging.Sugar.Infow("🌐 HTTP routes configured",
		"submit_endpoint", "/api/survey/submit",
		"sessions_endpoint", "/api/sessions",
		"questions_endpoint", "/api/questions")
}

// handleHealth provides system health information
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":        "ok",
		"timestamp":     time.Now(),
		"questions":     s.catalog.Len(),
		"live_sessions": s.manager.Len(),
		"nats":          s.nats != nil && s.nats.IsConnected(),
	}

	if err := s.db.Ping(); err != nil {
		health["status"] = "degraded"
		health["database_error"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := writeJSON(w, health); err != nil {
		logging.Sugar.Errorw("Failed to write health response", "error", err)
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, data interface{}) error {
	return json.NewEncoder(w).Encode(data)
}

func readJSON(r *http.Request, data interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	defer func() { _ = r.Body.Close() }()

	return json.Unmarshal(body, data)
}
