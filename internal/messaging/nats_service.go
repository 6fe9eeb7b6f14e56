package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/voxform/voxform-hub/internal/events"
)

// NATSService handles NATS messaging for the Voxform system
type NATSService struct {
	conn *nats.Conn
	url  string
}

// SessionLifecycleEvent announces session state transitions to interested
// consumers (dashboards, kiosk supervisors).
type SessionLifecycleEvent struct {
	SessionID string `json:"session_id"`
	Stage     string `json:"stage"` // "created", "started", "completed", "stopped"
	Language  string `json:"language,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// NATS subjects for different event types
const (
	SubjectAnswerEvents = "voxform.survey.answers"
	SubjectSessions     = "voxform.survey.sessions"
	SubjectSubmissions  = "voxform.survey.submissions"
)

// NewNATSService creates a new NATS service instance
func NewNATSService() (*NATSService, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	return &NATSService{
		url: natsURL,
	}, nil
}

// NewNATSServiceWithURL creates a NATS service pointed at a specific server
func NewNATSServiceWithURL(url string) *NATSService {
	return &NATSService{url: url}
}

// Connect establishes connection to NATS server
func (ns *NATSService) Connect() error {
	log.Printf("🔌 Connecting to NATS at %s", ns.url)

	// Connection options with retry logic
	opts := []nats.Option{
		nats.Name("voxform-hub"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1), // Retry indefinitely
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("⚠️  NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("🔄 NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("🔌 NATS connection closed")
		}),
	}

	conn, err := nats.Connect(ns.url, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	ns.conn = conn
	log.Printf("✅ Connected to NATS server at %s", conn.ConnectedUrl())
	return nil
}

// PublishAnswerEvent publishes a processed answer event
func (ns *NATSService) PublishAnswerEvent(event *events.AnswerEvent) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal answer event: %w", err)
	}

	subject := SubjectAnswerEvents
	if err := ns.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	log.Printf("📤 Published answer event to NATS - Outcome: %s, Session: %s",
		event.Outcome, event.SessionID)
	return nil
}

// PublishSessionEvent publishes a session lifecycle event
func (ns *NATSService) PublishSessionEvent(event *SessionLifecycleEvent) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}

	// Stage-specific subject so consumers can filter by transition
	subject := fmt.Sprintf("%s.%s", SubjectSessions, event.Stage)
	if err := ns.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	log.Printf("📤 Published session event to NATS - Session: %s, Stage: %s",
		event.SessionID, event.Stage)
	return nil
}

// PublishSubmission publishes a completed survey submission
func (ns *NATSService) PublishSubmission(submission *events.Submission) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	if err := ns.conn.Publish(SubjectSubmissions, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", SubjectSubmissions, err)
	}

	log.Printf("📤 Published submission to NATS - Location: %s, Scores: %d",
		submission.LocationCode, len(submission.Scores))
	return nil
}

// SubscribeToAnswerEvents subscribes to processed answer events
func (ns *NATSService) SubscribeToAnswerEvents(handler func(*events.AnswerEvent)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	return ns.conn.Subscribe(SubjectAnswerEvents, func(msg *nats.Msg) {
		var event events.AnswerEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("❌ Error unmarshaling answer event: %v", err)
			return
		}

		log.Printf("📥 Received answer event from NATS - Outcome: %s, Session: %s",
			event.Outcome, event.SessionID)
		handler(&event)
	})
}

// SubscribeToSessionEvents subscribes to session lifecycle events for a
// stage ("created", "completed", ...) or all stages with "*".
func (ns *NATSService) SubscribeToSessionEvents(stage string, handler func(*SessionLifecycleEvent)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	subject := fmt.Sprintf("%s.%s", SubjectSessions, stage)
	return ns.conn.Subscribe(subject, func(msg *nats.Msg) {
		var event SessionLifecycleEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("❌ Error unmarshaling session event: %v", err)
			return
		}

		log.Printf("📥 Received session event from NATS - Session: %s, Stage: %s",
			event.SessionID, event.Stage)
		handler(&event)
	})
}

// SubscribeToSubmissions subscribes to completed survey submissions
func (ns *NATSService) SubscribeToSubmissions(handler func(*events.Submission)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	return ns.conn.Subscribe(SubjectSubmissions, func(msg *nats.Msg) {
		var submission events.Submission
		if err := json.Unmarshal(msg.Data, &submission); err != nil {
			log.Printf("❌ Error unmarshaling submission: %v", err)
			return
		}

		log.Printf("📥 Received submission from NATS - Location: %s, Scores: %d",
			submission.LocationCode, len(submission.Scores))
		handler(&submission)
	})
}

// Close closes the NATS connection
func (ns *NATSService) Close() {
	if ns.conn != nil {
		ns.conn.Close()
		log.Println("🔌 NATS connection closed")
	}
}

// IsConnected returns true if connected to NATS
func (ns *NATSService) IsConnected() bool {
	return ns.conn != nil && ns.conn.IsConnected()
}

// GetStats returns connection statistics
func (ns *NATSService) GetStats() nats.Statistics {
	if ns.conn != nil {
		return ns.conn.Stats()
	}
	return nats.Statistics{}
}
