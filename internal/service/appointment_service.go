package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/domain"
	"github.com/spec-kit/aftercare-bot/internal/events"
	"github.com/spec-kit/aftercare-bot/internal/repository"
	"github.com/spec-kit/aftercare-bot/pkg/util"
)

const (
	appointmentDateLayout = "02.01.2006"
	appointmentTimeLayout = "15:04"
)

// AppointmentService drives the 4-step booking wizard. Malformed input
// re-prompts the same step without advancing the stage or touching the
// draft; a missing draft at the final step aborts the wizard.
type AppointmentService struct {
	users        repository.UserRepository
	appointments repository.AppointmentRepository
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// NewAppointmentService constructs the service.
func NewAppointmentService(users repository.UserRepository, appointments repository.AppointmentRepository, dispatcher events.Dispatcher, logger *zap.Logger) *AppointmentService {
	return &AppointmentService{
		users:        users,
		appointments: appointments,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// Begin opens a fresh draft and moves to the date step.
func (s *AppointmentService) Begin(ctx context.Context, user *domain.User, kind domain.AppointmentKind) error {
	user.AppointmentDraft = &domain.AppointmentDraft{Kind: kind}
	user.Stage = domain.StageAwaitingAppointmentDate
	return s.users.Update(ctx, user)
}

// SubmitDate validates DD.MM.YYYY input and advances to the time step.
func (s *AppointmentService) SubmitDate(ctx context.Context, user *domain.User, text string) error {
	text = strings.TrimSpace(text)
	if _, err := time.Parse(appointmentDateLayout, text); err != nil {
		return util.NewValidationError("date must be in DD.MM.YYYY format", nil)
	}
	if user.AppointmentDraft == nil {
		return s.abortCorrupted(ctx, user)
	}
	user.AppointmentDraft.Date = text
	user.Stage = domain.StageAwaitingAppointmentTime
	return s.users.Update(ctx, user)
}

// SubmitTime validates HH:MM input and advances to the comment step.
func (s *AppointmentService) SubmitTime(ctx context.Context, user *domain.User, text string) error {
	text = strings.TrimSpace(text)
	if _, err := time.Parse(appointmentTimeLayout, text); err != nil {
		return util.NewValidationError("time must be in HH:MM format", nil)
	}
	if user.AppointmentDraft == nil {
		return s.abortCorrupted(ctx, user)
	}
	user.AppointmentDraft.Time = text
	user.Stage = domain.StageAwaitingAppointmentComment
	return s.users.Update(ctx, user)
}

// SubmitComment stores the free-text comment ("-" clears it) and advances to
// the contact step.
func (s *AppointmentService) SubmitComment(ctx context.Context, user *domain.User, text string) error {
	if user.AppointmentDraft == nil {
		return s.abortCorrupted(ctx, user)
	}
	text = strings.TrimSpace(text)
	if text == "-" {
		text = ""
	}
	user.AppointmentDraft.Comment = text
	user.Stage = domain.StageAwaitingAppointmentContact
	return s.users.Update(ctx, user)
}

// SubmitContact finalizes the wizard: creates the appointment record, clears
// the draft and returns the user to the main menu. A partial appointment is
// never saved.
func (s *AppointmentService) SubmitContact(ctx context.Context, user *domain.User, contact string) (*domain.Appointment, error) {
	draft := user.AppointmentDraft
	if draft == nil || draft.Date == "" || draft.Time == "" {
		return nil, s.abortCorrupted(ctx, user)
	}
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return nil, util.NewValidationError("contact is required", nil)
	}

	appointment := &domain.Appointment{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		UserName: user.DisplayName(),
		Contact:  contact,
		Kind:     draft.Kind,
		Date:     draft.Date,
		Time:     draft.Time,
		Comment:  draft.Comment,
		Status:   domain.AppointmentStatusPending,
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, err
	}

	user.AppointmentDraft = nil
	user.Stage = domain.StageMainMenu
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventAppointmentCreated,
			UserID:    user.ID,
			Timestamp: time.Now(),
			Payload: events.AppointmentCreatedPayload{
				AppointmentID: appointment.ID,
				UserName:      appointment.UserName,
				Contact:       appointment.Contact,
				Kind:          appointment.Kind,
				Date:          appointment.Date,
				Time:          appointment.Time,
				Comment:       appointment.Comment,
			},
		})
	}
	return appointment, nil
}

// Pending lists the newest bookings still waiting for a decision.
func (s *AppointmentService) Pending(ctx context.Context, limit int) ([]domain.Appointment, error) {
	return s.appointments.ListByStatus(ctx, domain.AppointmentStatusPending, limit)
}

// SetStatus moves a booking to a new status and returns the updated record.
func (s *AppointmentService) SetStatus(ctx context.Context, id string, status domain.AppointmentStatus) (*domain.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("appointment", map[string]any{"id": id})
		}
		return nil, err
	}
	if err := s.appointments.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	appointment.Status = status
	return appointment, nil
}

// Cancel clears the draft at any step and returns to the main menu.
func (s *AppointmentService) Cancel(ctx context.Context, user *domain.User) error {
	user.AppointmentDraft = nil
	user.Stage = domain.StageMainMenu
	return s.users.Update(ctx, user)
}

// abortCorrupted resets wizard state when the draft is missing mid-flow.
func (s *AppointmentService) abortCorrupted(ctx context.Context, user *domain.User) error {
	s.logger.Warn("appointment draft missing, aborting wizard", zap.Int64("user_id", user.ID))
	user.AppointmentDraft = nil
	user.Stage = domain.StageMainMenu
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	return util.NewConflict("appointment draft lost, wizard restarted", nil)
}
