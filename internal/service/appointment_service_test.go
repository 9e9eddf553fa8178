package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/domain"
	"github.com/spec-kit/aftercare-bot/pkg/util"
)

func TestSubmitContactWithoutDraftAbortsWizard(t *testing.T) {
	users := newFakeUserRepo()
	users.put(domain.User{ID: 1, Stage: domain.StageAwaitingAppointmentContact})
	svc := NewAppointmentService(users, newFakeAppointmentRepo(), nil, zap.NewNop())

	user, _ := users.GetByID(context.Background(), 1)
	_, err := svc.SubmitContact(context.Background(), user, "+79991234567")
	if !util.IsCode(err, "CONFLICT") {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
	stored, _ := users.get(1)
	if stored.Stage != domain.StageMainMenu {
		t.Fatalf("wizard not reset: stage = %s", stored.Stage)
	}
}

func TestSubmitContactRequiresNonEmptyContact(t *testing.T) {
	users := newFakeUserRepo()
	users.put(domain.User{
		ID:    1,
		Stage: domain.StageAwaitingAppointmentContact,
		AppointmentDraft: &domain.AppointmentDraft{
			Kind: domain.AppointmentConsultation,
			Date: "12.10.2026",
			Time: "14:30",
		},
	})
	repo := newFakeAppointmentRepo()
	svc := NewAppointmentService(users, repo, nil, zap.NewNop())

	user, _ := users.GetByID(context.Background(), 1)
	_, err := svc.SubmitContact(context.Background(), user, "   ")
	if !util.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
	all, _ := repo.ListAll(context.Background())
	if len(all) != 0 {
		t.Fatalf("partial appointment persisted")
	}
	// The draft survives so the user can retry.
	stored, _ := users.get(1)
	if stored.AppointmentDraft == nil {
		t.Fatalf("draft cleared by validation failure")
	}
}

func TestSetStatusUpdatesRecord(t *testing.T) {
	repo := newFakeAppointmentRepo()
	if err := repo.Create(context.Background(), &domain.Appointment{
		ID:     "a1",
		UserID: 1,
		Status: domain.AppointmentStatusPending,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewAppointmentService(newFakeUserRepo(), repo, nil, zap.NewNop())

	updated, err := svc.SetStatus(context.Background(), "a1", domain.AppointmentStatusConfirmed)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != domain.AppointmentStatusConfirmed {
		t.Fatalf("returned status = %s", updated.Status)
	}
	stored, _ := repo.GetByID(context.Background(), "a1")
	if stored.Status != domain.AppointmentStatusConfirmed {
		t.Fatalf("stored status = %s", stored.Status)
	}
}

func TestSetStatusUnknownID(t *testing.T) {
	svc := NewAppointmentService(newFakeUserRepo(), newFakeAppointmentRepo(), nil, zap.NewNop())
	_, err := svc.SetStatus(context.Background(), "missing", domain.AppointmentStatusConfirmed)
	if !util.IsCode(err, "NOT_FOUND") {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}
