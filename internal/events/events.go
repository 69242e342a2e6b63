package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of notification events
type EventType string

const (
	// Attempt events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptCompleted EventType = "attempt.completed"
	EventAttemptExpired   EventType = "attempt.expired"

	// Grading events
	EventGradingCompleted EventType = "grading.completed"
)

// NotificationEvent is the base event structure for all notification events
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewNotificationEvent builds an event envelope with a fresh ID.
func NewNotificationEvent(eventType EventType, data interface{}) *NotificationEvent {
	return &NotificationEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "exam-service",
		Version:   "1.0",
		Data:      data,
	}
}

// Attempt notification event payloads

type AttemptStartedEvent struct {
	AttemptID     uint      `json:"attempt_id"`
	TestID        uint      `json:"test_id"`
	TestTitle     string    `json:"test_title"`
	StudentID     string    `json:"student_id"`
	AttemptNumber int       `json:"attempt_number"`
	StartedAt     time.Time `json:"started_at"`
	Duration      int       `json:"duration"` // minutes
}

type AttemptCompletedEvent struct {
	AttemptID   uint      `json:"attempt_id"`
	TestID      uint      `json:"test_id"`
	TestTitle   string    `json:"test_title"`
	StudentID   string    `json:"student_id"`
	CompletedAt time.Time `json:"completed_at"`
	Score       float64   `json:"score"`
	Expired     bool      `json:"expired"` // completion was forced by the time box
}

type GradingCompletedEvent struct {
	AttemptID uint    `json:"attempt_id"`
	TestID    uint    `json:"test_id"`
	StudentID string  `json:"student_id"`
	AIService string  `json:"ai_service"`
	Graded    int     `json:"graded"`
	Total     int     `json:"total"`
	AIScore   float64 `json:"ai_score"`
}
