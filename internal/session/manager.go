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

package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/voxform/voxform-hub/internal/questions"
	"github.com/voxform/voxform-hub/internal/speech"
)

// Manager owns all live sessions, keyed by id. It replaces the module-level
// singleton of earlier flow variants so independent sessions cannot
// cross-contaminate.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Engine

	catalog *questions.Catalog
	cfg     Config
	sink    SinkFunc
	onEvent EventFunc
}

// NewManager creates a manager producing sessions over the given catalog
// with the given base config.
func NewManager(catalog *questions.Catalog, cfg Config) *Manager {
	return &Manager{
		sessions: make(map[string]*Engine),
		catalog:  catalog,
		cfg:      cfg,
	}
}

// SetSink sets the debug sink attached to newly created sessions.
func (m *Manager) SetSink(fn SinkFunc) { m.sink = fn }

// OnEvent sets the answer event observer attached to newly created sessions.
func (m *Manager) OnEvent(fn EventFunc) { m.onEvent = fn }

// Create builds and registers a new session. language overrides the base
// config language when non-empty. Sessions created through the manager use
// the transcript API as their recognizer feed and log announcements instead
// of synthesizing audio.
func (m *Manager) Create(language string, speaker speech.Speaker) (*Engine, error) {
	cfg := m.cfg
	if language != "" {
		if language != "en" && language != "ar" {
			return nil, fmt.Errorf("unsupported language %q", language)
		}
		cfg.Language = language
	}
	if speaker == nil {
		speaker = &speech.LogSpeaker{}
	}

	eng := NewEngine(uuid.NewString(), m.catalog, speaker, speech.NopRecognizer{}, cfg)
	eng.SetSink(m.sink)
	eng.OnEvent(m.onEvent)

	m.mu.Lock()
	m.sessions[eng.ID()] = eng
	m.mu.Unlock()
	return eng, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Engine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eng, ok := m.sessions[id]
	return eng, ok
}

// Remove stops and unregisters a session.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	eng, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		eng.Stop()
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StopAll stops every live session. Used during shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	engines := make([]*Engine, 0, len(m.sessions))
	for _, eng := range m.sessions {
		engines = append(engines, eng)
	}
	m.mu.Unlock()
	for _, eng := range engines {
		eng.Stop()
	}
}
