package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/config"
	"github.com/spec-kit/aftercare-bot/internal/domain"
)

func newBackupFixture(secret string) (*BackupService, *fakeUserRepo, *fakeAppointmentRepo) {
	users := newFakeUserRepo()
	appointments := newFakeAppointmentRepo()
	svc := NewBackupService(users, appointments, config.ExportConfig{
		TokenSecret:     secret,
		TokenTTLMinutes: 5,
	}, zap.NewNop())
	return svc, users, appointments
}

func TestBackupTokenRoundTrip(t *testing.T) {
	svc, _, _ := newBackupFixture("test-secret")

	token, err := svc.IssueToken(100)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := svc.ValidateToken(token); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestBackupTokenRejectsWrongSecret(t *testing.T) {
	issuer, _, _ := newBackupFixture("secret-a")
	verifier, _, _ := newBackupFixture("secret-b")

	token, err := issuer.IssueToken(100)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := verifier.ValidateToken(token); err == nil {
		t.Fatalf("token signed with a different secret was accepted")
	}
}

func TestBackupTokenRejectsGarbage(t *testing.T) {
	svc, _, _ := newBackupFixture("test-secret")
	if err := svc.ValidateToken("not-a-token"); err == nil {
		t.Fatalf("garbage token was accepted")
	}
}

func TestBackupDocumentContainsAllData(t *testing.T) {
	svc, users, appointments := newBackupFixture("test-secret")
	date := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	users.put(domain.User{ID: 1, FirstName: "Иван", TattooDate: &date, Stage: domain.StageMainMenu})
	users.put(domain.User{ID: 2, FirstName: "Аня", Stage: domain.StageMainMenu})
	if err := appointments.Create(context.Background(), &domain.Appointment{
		ID:     "a1",
		UserID: 1,
		Kind:   domain.AppointmentTattoo,
		Date:   "12.10.2026",
		Time:   "14:30",
		Status: domain.AppointmentStatusPending,
	}); err != nil {
		t.Fatalf("seed appointment: %v", err)
	}

	data, err := svc.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var doc struct {
		ExportedAt   time.Time            `json:"exported_at"`
		Users        []domain.User        `json:"users"`
		Appointments []domain.Appointment `json:"appointments"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Users) != 2 {
		t.Fatalf("users = %d, want 2", len(doc.Users))
	}
	if len(doc.Appointments) != 1 {
		t.Fatalf("appointments = %d, want 1", len(doc.Appointments))
	}
	if doc.ExportedAt.IsZero() {
		t.Fatalf("export timestamp missing")
	}
}
