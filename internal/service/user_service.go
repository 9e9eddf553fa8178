package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/domain"
	"github.com/spec-kit/aftercare-bot/internal/repository"
)

// UserService maintains user records and the entry middleware behavior:
// create on first contact, refresh the profile and last-active timestamp.
type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Profile carries the platform identity fields of an inbound update.
type Profile struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// EnsureUser loads the record for the sender, creating it on first contact.
// Profile fields are refreshed when the platform reports new values.
func (s *UserService) EnsureUser(ctx context.Context, p Profile) (*domain.User, bool, error) {
	user, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, err
		}
		user = &domain.User{
			ID:        p.ID,
			Username:  p.Username,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Stage:     domain.StageStart,
			Questions: []domain.Question{},
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, false, err
		}
		s.logger.Info("user created", zap.Int64("user_id", p.ID))
		return user, true, nil
	}

	if p.Username != user.Username || p.FirstName != user.FirstName || p.LastName != user.LastName {
		user.Username = p.Username
		user.FirstName = p.FirstName
		user.LastName = p.LastName
		if err := s.users.Update(ctx, user); err != nil {
			return nil, false, err
		}
		return user, false, nil
	}
	if err := s.users.TouchLastActive(ctx, p.ID); err != nil {
		s.logger.Warn("touch last active", zap.Int64("user_id", p.ID), zap.Error(err))
	}
	return user, false, nil
}

const usersPageSize = 10

// ListPage returns one page of the user roster, newest first, and reports
// whether another page exists.
func (s *UserService) ListPage(ctx context.Context, page int) ([]domain.User, bool, error) {
	if page < 0 {
		page = 0
	}
	users, err := s.users.List(ctx, usersPageSize+1, page*usersPageSize)
	if err != nil {
		return nil, false, err
	}
	hasNext := len(users) > usersPageSize
	if hasNext {
		users = users[:usersPageSize]
	}
	return users, hasNext, nil
}

// SetStage persists a stage transition.
func (s *UserService) SetStage(ctx context.Context, user *domain.User, stage domain.Stage) error {
	user.Stage = stage
	return s.users.Update(ctx, user)
}

// BeginDateCapture moves a freshly onboarded user into tattoo-date capture.
func (s *UserService) BeginDateCapture(ctx context.Context, user *domain.User) error {
	return s.SetStage(ctx, user, domain.StageAwaitingTattooDate)
}

// SetTattooDate stores the tattoo date and returns the user to the main menu.
func (s *UserService) SetTattooDate(ctx context.Context, user *domain.User, date time.Time) error {
	user.TattooDate = &date
	user.Stage = domain.StageMainMenu
	return s.users.Update(ctx, user)
}
