package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/appstate"
	"github.com/spec-kit/aftercare-bot/internal/events"
)

// NotificationService forwards domain events to the main admin chat,
// honoring the runtime notification settings.
type NotificationService struct {
	dispatcher  events.Dispatcher
	sender      Sender
	state       *appstate.State
	mainAdminID int64
	logger      *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sender Sender, state *appstate.State, mainAdminID int64, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher:  dispatcher,
		sender:      sender,
		state:       state,
		mainAdminID: mainAdminID,
		logger:      logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventQuestionSubmitted, n.handleQuestionSubmitted)
	n.dispatcher.Subscribe(events.EventAppointmentCreated, n.handleAppointmentCreated)
	n.dispatcher.Subscribe(events.EventBroadcastFinished, n.handleBroadcastFinished)
}

func (n *NotificationService) handleQuestionSubmitted(ctx context.Context, event events.Event) error {
	settings := n.state.Settings.Notifications()
	if !settings.Enabled || !settings.NotifyOnQuestion {
		return nil
	}
	payload, ok := event.Payload.(events.QuestionSubmittedPayload)
	if !ok {
		return nil
	}
	n.notify(ctx, fmt.Sprintf(
		"❓ <b>Новый вопрос</b>\n\nОт: %s (ID %d)\n\n%s\n\nОжидают ответа: %d",
		payload.UserName, event.UserID, payload.Text, payload.Pending))
	return nil
}

func (n *NotificationService) handleAppointmentCreated(ctx context.Context, event events.Event) error {
	settings := n.state.Settings.Notifications()
	if !settings.Enabled || !settings.NotifyOnAppointment {
		return nil
	}
	payload, ok := event.Payload.(events.AppointmentCreatedPayload)
	if !ok {
		return nil
	}
	comment := payload.Comment
	if comment == "" {
		comment = "—"
	}
	n.notify(ctx, fmt.Sprintf(
		"📅 <b>Новая запись</b>\n\nКлиент: %s\nТип: %s\nДата: %s в %s\nКонтакт: %s\nКомментарий: %s",
		payload.UserName, payload.Kind, payload.Date, payload.Time, payload.Contact, comment))
	return nil
}

func (n *NotificationService) handleBroadcastFinished(ctx context.Context, event events.Event) error {
	if !n.state.Settings.Notifications().Enabled {
		return nil
	}
	payload, ok := event.Payload.(events.BroadcastFinishedPayload)
	if !ok {
		return nil
	}
	// The triggering admin already sees the status message; only tell the
	// main admin about runs started by somebody else.
	if event.UserID == n.mainAdminID {
		return nil
	}
	n.notify(ctx, fmt.Sprintf(
		"📨 Рассылка завершена (admin %d): %d/%d доставлено, %d ошибок",
		event.UserID, payload.Success, payload.Total, payload.Failed))
	return nil
}

func (n *NotificationService) notify(ctx context.Context, text string) {
	if _, err := n.sender.SendMessage(ctx, n.mainAdminID, text); err != nil {
		n.logger.Warn("admin notification failed", zap.Error(err))
	}
}
