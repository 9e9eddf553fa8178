package domain

import "time"

// AppointmentKind distinguishes consultations from tattoo sessions.
type AppointmentKind string

const (
	AppointmentConsultation AppointmentKind = "consultation"
	AppointmentTattoo       AppointmentKind = "tattoo"
)

// AppointmentStatus enumerates booking lifecycle states.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is created only on wizard completion, never from a partial draft.
type Appointment struct {
	ID        string
	UserID    int64
	UserName  string
	Contact   string
	Kind      AppointmentKind
	Date      string
	Time      string
	Comment   string
	Status    AppointmentStatus
	CreatedAt time.Time
}
