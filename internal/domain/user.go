package domain

import (
	"errors"
	"strconv"
	"time"
)

// ErrRecipientBlocked marks a send failure caused by the recipient having
// blocked the bot. The broadcast engine prunes such records.
var ErrRecipientBlocked = errors.New("recipient blocked the bot")

// QuestionStatus represents the lifecycle of a submitted question.
type QuestionStatus string

const (
	QuestionStatusPending  QuestionStatus = "pending"
	QuestionStatusAnswered QuestionStatus = "answered"
)

// Question is one user-submitted question embedded in the user record.
// Append-only from the user side; the answer fields are reserved for the
// admin answer flow.
type Question struct {
	Text        string         `json:"text"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Status      QuestionStatus `json:"status"`
	AnswerText  string         `json:"answer_text,omitempty"`
	AnsweredAt  *time.Time     `json:"answered_at,omitempty"`
}

// AdminPermissions holds the independently togglable admin capabilities.
type AdminPermissions struct {
	FullAccess      bool `json:"full_access"`
	ManageUsers     bool `json:"manage_users"`
	ManageQuestions bool `json:"manage_questions"`
	ManageSettings  bool `json:"manage_settings"`
	SendBroadcasts  bool `json:"send_broadcasts"`
	ViewAnalytics   bool `json:"view_analytics"`
}

// FullPermissions returns the permission set granted to the main admin.
func FullPermissions() AdminPermissions {
	return AdminPermissions{
		FullAccess:      true,
		ManageUsers:     true,
		ManageQuestions: true,
		ManageSettings:  true,
		SendBroadcasts:  true,
		ViewAnalytics:   true,
	}
}

// DefaultPermissions returns the limited set assigned to a newly added admin.
func DefaultPermissions() AdminPermissions {
	return AdminPermissions{
		ManageQuestions: true,
		ViewAnalytics:   true,
	}
}

// AppointmentDraft accumulates wizard input. It must be cleared on
// completion or cancellation; it is non-nil only during appointment stages.
type AppointmentDraft struct {
	Kind    AppointmentKind `json:"kind"`
	Date    string          `json:"date,omitempty"`
	Time    string          `json:"time,omitempty"`
	Comment string          `json:"comment,omitempty"`
}

// User is the per-platform-user record, created on first contact.
type User struct {
	ID               int64
	Username         string
	FirstName        string
	LastName         string
	TattooDate       *time.Time
	Stage            Stage
	Questions        []Question
	IsAdmin          bool
	Permissions      AdminPermissions
	AppointmentDraft *AppointmentDraft
	LastActive       time.Time
	CreatedAt        time.Time
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	}
	return "id" + strconv.FormatInt(u.ID, 10)
}

// PendingQuestions counts questions still awaiting an answer.
func (u *User) PendingQuestions() int {
	n := 0
	for _, q := range u.Questions {
		if q.Status == QuestionStatusPending {
			n++
		}
	}
	return n
}
