package events

import (
	"time"

	"github.com/darsni/backend/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUnitCompleted   EventType = "unit_completed"
	EventCourseCompleted EventType = "course_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Role      domain.Role `json:"role"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UnitCompletedPayload payload.
type UnitCompletedPayload struct {
	CourseID  string `json:"course_id"`
	Unit      int    `json:"unit"`
	QuizScore *int   `json:"quiz_score,omitempty"`
}

// CourseCompletedPayload payload.
type CourseCompletedPayload struct {
	CourseID string `json:"course_id"`
	Units    int    `json:"units"`
}
