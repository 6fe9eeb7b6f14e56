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

// Package integration contains tests that run against a live Voxform hub.
// They skip when no hub is listening on the test address, so they are safe
// in plain `go test ./...` runs.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"
)

const (
	testHubAddress = "http://localhost:8080"
	testTimeout    = 30 * time.Second
)

// hubClient wraps the hub HTTP API for tests
type hubClient struct {
	base string
	http *http.Client
}

func newHubClient() *hubClient {
	return &hubClient{
		base: testHubAddress,
		http: &http.Client{Timeout: testTimeout},
	}
}

func (c *hubClient) get(t *testing.T, path string, out interface{}) int {
	t.Helper()
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("GET %s: failed to decode response: %v", path, err)
		}
	}
	return resp.StatusCode
}

func (c *hubClient) post(t *testing.T, path string, body, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("POST %s: failed to encode body: %v", path, err)
		}
	}
	resp, err := c.http.Post(c.base+path, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("POST %s: failed to decode response: %v", path, err)
		}
	}
	return resp.StatusCode
}

// requireHub skips the test when no hub is reachable
func requireHub(t *testing.T) *hubClient {
	t.Helper()
	client := newHubClient()
	resp, err := client.http.Get(client.base + "/health")
	if err != nil {
		t.Skipf("Could not connect to hub at %s: %v", testHubAddress, err)
	}
	resp.Body.Close()
	return client
}

func TestHubHealth(t *testing.T) {
	client := requireHub(t)

	var health struct {
		Status    string `json:"status"`
		Questions int    `json:"questions"`
	}
	status := client.get(t, "/health", &health)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from /health, got %d", status)
	}
	if health.Status != "ok" && health.Status != "degraded" {
		t.Errorf("Unexpected health status: %q", health.Status)
	}
	if health.Questions == 0 {
		t.Error("Hub reports an empty question set")
	}
}

func TestQuestionCatalog(t *testing.T) {
	client := requireHub(t)

	var catalog struct {
		Questions []struct {
			ID     string `json:"id"`
			TextEN string `json:"text_en"`
		} `json:"questions"`
		Total int `json:"total"`
	}
	status := client.get(t, "/api/questions", &catalog)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from /api/questions, got %d", status)
	}
	if catalog.Total == 0 || len(catalog.Questions) == 0 {
		t.Fatal("Hub returned an empty question catalog")
	}
	for _, q := range catalog.Questions {
		if q.ID == "" {
			t.Error("Question with empty ID in catalog")
		}
	}
}

type snapshot struct {
	ID            string            `json:"id"`
	State         string            `json:"state"`
	QuestionIndex int               `json:"question_index"`
	QuestionCount int               `json:"question_count"`
	Answered      int               `json:"answered"`
	Selections    map[string]string `json:"selections"`
}

func TestSessionFlow(t *testing.T) {
	client := requireHub(t)

	// Create a session
	var snap snapshot
	status := client.post(t, "/api/sessions", map[string]string{"language": "en"}, &snap)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201 creating session, got %d", status)
	}
	if snap.ID == "" {
		t.Fatal("Created session has no ID")
	}
	id := snap.ID
	defer func() {
		req, _ := http.NewRequest(http.MethodDelete, client.base+"/api/sessions/"+id, nil)
		resp, err := client.http.Do(req)
		if err == nil {
			resp.Body.Close()
		}
	}()

	// Start it
	status = client.post(t, "/api/sessions/"+id+"/start", nil, &snap)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 starting session, got %d", status)
	}
	if snap.State != "awaiting_answer" {
		t.Fatalf("Expected awaiting_answer after start, got %q", snap.State)
	}

	// Answer every question with a confident score
	for i := 0; i < snap.QuestionCount; i++ {
		status = client.post(t, "/api/sessions/"+id+"/transcripts",
			map[string]string{"text": fmt.Sprintf("%d", (i%5)+1)}, &snap)
		if status != http.StatusAccepted {
			t.Fatalf("Expected 202 posting transcript %d, got %d", i, status)
		}
		// Duplicate suppression would swallow back-to-back identical
		// scores, so the loop varies them
	}

	if snap.Answered != snap.QuestionCount {
		t.Errorf("Expected %d answers recorded, got %d", snap.QuestionCount, snap.Answered)
	}
}

func TestSessionTranscriptValidation(t *testing.T) {
	client := requireHub(t)

	var snap snapshot
	status := client.post(t, "/api/sessions", nil, &snap)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201 creating session, got %d", status)
	}
	defer func() {
		req, _ := http.NewRequest(http.MethodDelete, client.base+"/api/sessions/"+snap.ID, nil)
		resp, err := client.http.Do(req)
		if err == nil {
			resp.Body.Close()
		}
	}()

	status = client.post(t, "/api/sessions/"+snap.ID+"/transcripts",
		map[string]string{"kind": "bogus"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown event kind, got %d", status)
	}

	status = client.post(t, "/api/sessions/missing-session/transcripts",
		map[string]string{"text": "5"}, nil)
	if status != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", status)
	}
}

func TestSubmissionFlow(t *testing.T) {
	client := requireHub(t)

	submission := map[string]interface{}{
		"channel":        "integration-test",
		"location_code":  "TEST-01",
		"shopper_id":     "integration-shopper",
		"visit_datetime": time.Now().UTC().Format(time.RFC3339),
		"scores": []map[string]interface{}{
			{"question_id": "Q1", "score": 5},
			{"question_id": "Q2", "score": 4},
		},
		"latency_samples": []map[string]interface{}{
			{"question_id": "Q1", "ms": 1200.0},
		},
	}

	var created struct {
		UUID string `json:"uuid"`
	}
	status := client.post(t, "/api/survey/submit", submission, &created)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201 submitting survey, got %d", status)
	}
	if created.UUID == "" {
		t.Fatal("Submission response has no UUID")
	}

	var detail struct {
		UUID   string `json:"uuid"`
		Scores []struct {
			QuestionID string `json:"question_id"`
			Score      int    `json:"score"`
		} `json:"scores"`
	}
	status = client.get(t, "/api/submissions/"+created.UUID, &detail)
	if status != http.StatusOK {
		t.Fatalf("Expected 200 fetching submission, got %d", status)
	}
	if len(detail.Scores) != 2 {
		t.Errorf("Expected 2 scores on stored submission, got %d", len(detail.Scores))
	}
}
