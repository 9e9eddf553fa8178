package events

import (
	"time"

	"github.com/spec-kit/aftercare-bot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventQuestionSubmitted  EventType = "question_submitted"
	EventAppointmentCreated EventType = "appointment_created"
	EventBroadcastFinished  EventType = "broadcast_finished"
	EventAdminRosterChanged EventType = "admin_roster_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    int64       `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// QuestionSubmittedPayload payload.
type QuestionSubmittedPayload struct {
	UserName string `json:"user_name"`
	Text     string `json:"text"`
	Pending  int    `json:"pending"`
}

// AppointmentCreatedPayload payload.
type AppointmentCreatedPayload struct {
	AppointmentID string                 `json:"appointment_id"`
	UserName      string                 `json:"user_name"`
	Contact       string                 `json:"contact"`
	Kind          domain.AppointmentKind `json:"kind"`
	Date          string                 `json:"date"`
	Time          string                 `json:"time"`
	Comment       string                 `json:"comment,omitempty"`
}

// BroadcastFinishedPayload payload.
type BroadcastFinishedPayload struct {
	RunID     string        `json:"run_id"`
	Total     int           `json:"total"`
	Success   int           `json:"success"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
	Cancelled bool          `json:"cancelled"`
}

// AdminRosterChangedPayload payload.
type AdminRosterChangedPayload struct {
	ActorID  int64  `json:"actor_id"`
	TargetID int64  `json:"target_id"`
	Change   string `json:"change"`
}
