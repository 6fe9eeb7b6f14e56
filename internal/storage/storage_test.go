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

package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/voxform/voxform-hub/internal/events"
)

func testDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testAnswerEvent(sessionID string) *events.AnswerEvent {
	ev := events.NewAnswerEvent(sessionID, "four")
	ev.Language = "en"
	ev.QuestionID = "Q1"
	ev.Outcome = events.OutcomeRecorded
	ev.AnswerKind = "score"
	ev.Value = 4
	ev.LatencyMs = 1250
	return ev
}

func TestDatabase_Lifecycle(t *testing.T) {
	db := testDatabase(t)

	if err := db.Ping(); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if db.GetPath() == "" {
		t.Error("GetPath() returned empty path")
	}
	if err := db.Vacuum(); err != nil {
		t.Errorf("Vacuum() error = %v", err)
	}
	if err := db.Checkpoint(); err != nil {
		t.Errorf("Checkpoint() error = %v", err)
	}
}

func TestAnswerEventsStore_InsertAndGet(t *testing.T) {
	store := NewAnswerEventsStore(testDatabase(t))

	ev := testAnswerEvent("session-1")
	if err := store.Insert(ev); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := store.GetByUUID(ev.UUID)
	if err != nil {
		t.Fatalf("GetByUUID() error = %v", err)
	}
	if got.SessionID != "session-1" || got.Transcript != "four" {
		t.Errorf("GetByUUID() = %+v, want session-1/four", got)
	}
	if got.Outcome != events.OutcomeRecorded {
		t.Errorf("Outcome = %q, want recorded", got.Outcome)
	}
	if got.Value != 4 || got.LatencyMs != 1250 {
		t.Errorf("Value/LatencyMs = %d/%v, want 4/1250", got.Value, got.LatencyMs)
	}

	if _, err := store.GetByUUID("nonexistent"); err == nil {
		t.Error("GetByUUID(nonexistent) error = nil, want error")
	}
}

func TestAnswerEventsStore_InsertInvalid(t *testing.T) {
	store := NewAnswerEventsStore(testDatabase(t))

	ev := testAnswerEvent("session-1")
	ev.Outcome = ""
	if err := store.Insert(ev); err == nil {
		t.Error("Insert() with missing outcome error = nil, want error")
	}
}

func TestAnswerEventsStore_ListAndCount(t *testing.T) {
	store := NewAnswerEventsStore(testDatabase(t))

	for i := 0; i < 3; i++ {
		ev := testAnswerEvent("session-a")
		ev.Timestamp = time.Date(2025, 6, 1, 12, i, 0, 0, time.UTC)
		if i == 2 {
			ev.Outcome = events.OutcomeUnrecognized
		}
		if err := store.Insert(ev); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	other := testAnswerEvent("session-b")
	if err := store.Insert(other); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	tests := []struct {
		name    string
		options ListOptions
		want    int
	}{
		{
			name:    "All events",
			options: ListOptions{},
			want:    4,
		},
		{
			name:    "Filter by session",
			options: ListOptions{SessionID: "session-a"},
			want:    3,
		},
		{
			name:    "Filter by outcome",
			options: ListOptions{SessionID: "session-a", Outcome: "unrecognized"},
			want:    1,
		},
		{
			name:    "Limit",
			options: ListOptions{SessionID: "session-a", Limit: 2},
			want:    2,
		},
		{
			name:    "Offset",
			options: ListOptions{SessionID: "session-a", Limit: 10, Offset: 2},
			want:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := store.List(tt.options)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(list) != tt.want {
				t.Errorf("List() len = %d, want %d", len(list), tt.want)
			}
		})
	}

	count, err := store.Count(ListOptions{SessionID: "session-a"})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}

	// Default sort is newest first.
	list, err := store.List(ListOptions{SessionID: "session-a"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !list[0].Timestamp.After(list[len(list)-1].Timestamp) {
		t.Error("List() should return newest events first by default")
	}
}

func TestAnswerEventsStore_GetRecentBySession(t *testing.T) {
	store := NewAnswerEventsStore(testDatabase(t))

	for i := 0; i < 5; i++ {
		if err := store.Insert(testAnswerEvent("session-a")); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	recent, err := store.GetRecentBySession("session-a", 2)
	if err != nil {
		t.Fatalf("GetRecentBySession() error = %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("GetRecentBySession() len = %d, want 2", len(recent))
	}
}

func TestAnswerEventsStore_Delete(t *testing.T) {
	store := NewAnswerEventsStore(testDatabase(t))

	ev := testAnswerEvent("session-1")
	if err := store.Insert(ev); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := store.Delete(ev.UUID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.GetByUUID(ev.UUID); err == nil {
		t.Error("GetByUUID() after delete error = nil, want error")
	}
	if err := store.Delete(ev.UUID); err == nil {
		t.Error("Delete() of missing event error = nil, want error")
	}
}

func testSubmission() *events.Submission {
	visit := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	sub := events.NewSubmission("walk-in", "RUH-01", "shopper-7", visit)
	sub.Scores = []events.SubmissionScore{
		{QuestionID: "Q1", Score: 4},
		{QuestionID: "Q2", Score: 5, Comment: "fast service"},
	}
	sub.Latency = []events.LatencySample{
		{QuestionID: "Q1", Milliseconds: 1200},
		{QuestionID: "Q2", Milliseconds: 850.5},
	}
	return sub
}

func TestSubmissionsStore_InsertAndGet(t *testing.T) {
	store := NewSubmissionsStore(testDatabase(t))

	sub := testSubmission()
	if err := store.Insert(sub); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := store.GetByUUID(sub.UUID)
	if err != nil {
		t.Fatalf("GetByUUID() error = %v", err)
	}
	if got.Channel != "walk-in" || got.LocationCode != "RUH-01" || got.ShopperID != "shopper-7" {
		t.Errorf("GetByUUID() = %+v, want walk-in/RUH-01/shopper-7", got)
	}
	if len(got.Scores) != 2 {
		t.Fatalf("Scores len = %d, want 2", len(got.Scores))
	}
	if got.Scores[1].Comment != "fast service" {
		t.Errorf("Scores[1].Comment = %q, want fast service", got.Scores[1].Comment)
	}
	if len(got.Latency) != 2 {
		t.Fatalf("Latency len = %d, want 2", len(got.Latency))
	}
	if got.Latency[1].Milliseconds != 850.5 {
		t.Errorf("Latency[1].Milliseconds = %v, want 850.5", got.Latency[1].Milliseconds)
	}

	if _, err := store.GetByUUID("nonexistent"); err == nil {
		t.Error("GetByUUID(nonexistent) error = nil, want error")
	}
}

func TestSubmissionsStore_InsertInvalid(t *testing.T) {
	store := NewSubmissionsStore(testDatabase(t))

	sub := testSubmission()
	sub.Scores = nil
	if err := store.Insert(sub); err == nil {
		t.Error("Insert() without scores error = nil, want error")
	}
}

func TestSubmissionsStore_ListRecent(t *testing.T) {
	store := NewSubmissionsStore(testDatabase(t))

	for i := 0; i < 3; i++ {
		sub := testSubmission()
		sub.CreatedAt = time.Date(2025, 6, 1, 15, i, 0, 0, time.UTC)
		if err := store.Insert(sub); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	list, err := store.ListRecent(2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListRecent(2) len = %d, want 2", len(list))
	}
	if !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Error("ListRecent() should return newest submissions first")
	}

	// Child rows are not loaded by the list path.
	if len(list[0].Scores) != 0 {
		t.Errorf("ListRecent() loaded %d scores, want 0", len(list[0].Scores))
	}
}

func TestSubmissionsStore_Delete(t *testing.T) {
	store := NewSubmissionsStore(testDatabase(t))

	sub := testSubmission()
	if err := store.Insert(sub); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := store.Delete(sub.UUID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.GetByUUID(sub.UUID); err == nil {
		t.Error("GetByUUID() after delete error = nil, want error")
	}
	if err := store.Delete(sub.UUID); err == nil {
		t.Error("Delete() of missing submission error = nil, want error")
	}
}
