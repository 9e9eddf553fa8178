package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/config"
	"github.com/spec-kit/aftercare-bot/internal/domain"
	"github.com/spec-kit/aftercare-bot/internal/repository"
)

const backupTokenScope = "backup"

// BackupService builds the JSON data export offered in the admin panel and
// issues the short-lived signed tokens that gate its HTTP download.
type BackupService struct {
	users        repository.UserRepository
	appointments repository.AppointmentRepository
	logger       *zap.Logger
	secret       []byte
	ttl          time.Duration
}

// NewBackupService constructs the service.
func NewBackupService(users repository.UserRepository, appointments repository.AppointmentRepository, cfg config.ExportConfig, logger *zap.Logger) *BackupService {
	return &BackupService{
		users:        users,
		appointments: appointments,
		logger:       logger,
		secret:       []byte(cfg.TokenSecret),
		ttl:          cfg.TokenTTL(),
	}
}

type backupDocument struct {
	ExportedAt   time.Time            `json:"exported_at"`
	Users        []domain.User        `json:"users"`
	Appointments []domain.Appointment `json:"appointments"`
}

// Build marshals all users and appointments into one JSON document.
func (s *BackupService) Build(ctx context.Context) ([]byte, error) {
	users, err := s.users.ListByAudience(ctx, domain.AudienceAll)
	if err != nil {
		return nil, err
	}
	appointments, err := s.appointments.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	doc := backupDocument{
		ExportedAt:   time.Now().UTC(),
		Users:        users,
		Appointments: appointments,
	}
	return json.MarshalIndent(doc, "", "  ")
}

type backupClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// IssueToken signs a download token valid for the configured TTL.
func (s *BackupService) IssueToken(adminID int64) (string, error) {
	now := time.Now()
	claims := &backupClaims{
		Scope: backupTokenScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(adminID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken checks signature, expiry and scope of a download token.
func (s *BackupService) ValidateToken(tokenStr string) error {
	parsed, err := jwt.ParseWithClaims(tokenStr, &backupClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return err
	}
	claims, ok := parsed.Claims.(*backupClaims)
	if !ok || !parsed.Valid || claims.Scope != backupTokenScope {
		return errors.New("invalid token claims")
	}
	return nil
}
