package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/domain"
	"github.com/spec-kit/aftercare-bot/internal/events"
	"github.com/spec-kit/aftercare-bot/internal/repository"
)

// QuestionService handles the user question queue. Submission is append-only;
// the admin answer flow is a feature boundary and no handler drives it yet.
type QuestionService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewQuestionService constructs the service.
func NewQuestionService(users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *QuestionService {
	return &QuestionService{users: users, dispatcher: dispatcher, logger: logger}
}

// Submit appends a pending question and returns the user to the main menu.
func (s *QuestionService) Submit(ctx context.Context, user *domain.User, text string) error {
	user.Questions = append(user.Questions, domain.Question{
		Text:        text,
		SubmittedAt: time.Now(),
		Status:      domain.QuestionStatusPending,
	})
	user.Stage = domain.StageMainMenu
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventQuestionSubmitted,
			UserID:    user.ID,
			Timestamp: time.Now(),
			Payload: events.QuestionSubmittedPayload{
				UserName: user.DisplayName(),
				Text:     text,
				Pending:  user.PendingQuestions(),
			},
		})
	}
	return nil
}
