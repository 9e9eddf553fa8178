package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/appstate"
	"github.com/spec-kit/aftercare-bot/internal/config"
	"github.com/spec-kit/aftercare-bot/internal/domain"
)

type conversationFixture struct {
	conv         *Conversation
	users        *fakeUserRepo
	appointments *fakeAppointmentRepo
	sender       *fakeSender
	state        *appstate.State
}

func newConversationFixture() *conversationFixture {
	userRepo := newFakeUserRepo()
	appointmentRepo := newFakeAppointmentRepo()
	sender := newFakeSender()
	logger := zap.NewNop()
	state := appstate.New(appstate.Options{MainAdminID: testAdminID, MaxAdmins: 10})

	userService := NewUserService(userRepo, logger)
	accessService := NewAccessService(userRepo, state, logger)
	conv := NewConversation(ConversationDependencies{
		Users:        userService,
		Questions:    NewQuestionService(userRepo, nil, logger),
		Appointments: NewAppointmentService(userRepo, appointmentRepo, nil, logger),
		Broadcasts: NewBroadcastService(BroadcastDependencies{
			UserRepo: userRepo,
			State:    state,
			Sender:   sender,
			Logger:   logger,
			Config:   config.BroadcastConfig{ProgressEvery: 100},
		}),
		Access: accessService,
		State:  state,
		Sender: sender,
		Logger: logger,
	})
	return &conversationFixture{
		conv:         conv,
		users:        userRepo,
		appointments: appointmentRepo,
		sender:       sender,
		state:        state,
	}
}

func (f *conversationFixture) user(t *testing.T, id int64, stage domain.Stage) *domain.User {
	t.Helper()
	f.users.put(domain.User{ID: id, FirstName: "Тест", Stage: stage})
	u, err := f.users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestTattooDateCapture(t *testing.T) {
	f := newConversationFixture()
	user := f.user(t, 1, domain.StageAwaitingTattooDate)

	if err := f.conv.HandleText(context.Background(), user, "05.09.2026"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	stored, _ := f.users.get(1)
	if stored.TattooDate == nil || stored.TattooDate.Format("02.01.2006") != "05.09.2026" {
		t.Fatalf("tattoo date not stored: %+v", stored.TattooDate)
	}
	if stored.Stage != domain.StageMainMenu {
		t.Fatalf("stage = %s, want main_menu", stored.Stage)
	}
}

func TestTattooDateRelativePreset(t *testing.T) {
	f := newConversationFixture()
	user := f.user(t, 1, domain.StageAwaitingTattooDate)

	if err := f.conv.HandleText(context.Background(), user, "вчера"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	stored, _ := f.users.get(1)
	want := time.Now().AddDate(0, 0, -1).Format("02.01.2006")
	if stored.TattooDate == nil || stored.TattooDate.Format("02.01.2006") != want {
		t.Fatalf("tattoo date = %v, want %s", stored.TattooDate, want)
	}
}

func TestTattooDateInvalidInputKeepsStage(t *testing.T) {
	f := newConversationFixture()
	user := f.user(t, 1, domain.StageAwaitingTattooDate)

	if err := f.conv.HandleText(context.Background(), user, "позавчера утром"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	stored, _ := f.users.get(1)
	if stored.Stage != domain.StageAwaitingTattooDate {
		t.Fatalf("stage advanced on invalid input: %s", stored.Stage)
	}
	if stored.TattooDate != nil {
		t.Fatalf("tattoo date set from invalid input")
	}
}

func TestQuestionSubmission(t *testing.T) {
	f := newConversationFixture()
	user := f.user(t, 1, domain.StageAwaitingQuestion)

	if err := f.conv.HandleText(context.Background(), user, "Можно ли в баню?"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	stored, _ := f.users.get(1)
	if len(stored.Questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(stored.Questions))
	}
	q := stored.Questions[0]
	if q.Text != "Можно ли в баню?" || q.Status != domain.QuestionStatusPending {
		t.Fatalf("unexpected question: %+v", q)
	}
	if stored.Stage != domain.StageMainMenu {
		t.Fatalf("stage = %s, want main_menu", stored.Stage)
	}
}

func TestAppointmentWizardFullFlow(t *testing.T) {
	f := newConversationFixture()
	user := f.user(t, 1, domain.StageMainMenu)
	ctx := context.Background()

	appointmentService := NewAppointmentService(f.users, f.appointments, nil, zap.NewNop())
	if err := appointmentService.Begin(ctx, user, domain.AppointmentTattoo); err != nil {
		t.Fatalf("begin: %v", err)
	}

	steps := []string{"12.10.2026", "14:30", "рукав, вторая сессия", "+79991234567"}
	for _, input := range steps {
		if err := f.conv.HandleText(ctx, user, input); err != nil {
			t.Fatalf("step %q: %v", input, err)
		}
	}

	stored, _ := f.users.get(1)
	if stored.Stage != domain.StageMainMenu {
		t.Fatalf("stage = %s, want main_menu", stored.Stage)
	}
	if stored.AppointmentDraft != nil {
		t.Fatalf("draft not cleared after completion")
	}

	all, _ := f.appointments.ListAll(ctx)
	if len(all) != 1 {
		t.Fatalf("appointments = %d, want 1", len(all))
	}
	a := all[0]
	if a.Date != "12.10.2026" || a.Time != "14:30" || a.Contact != "+79991234567" {
		t.Fatalf("unexpected appointment: %+v", a)
	}
	if a.Kind != domain.AppointmentTattoo || a.Status != domain.AppointmentStatusPending {
		t.Fatalf("unexpected kind/status: %s/%s", a.Kind, a.Status)
	}
}

func TestAppointmentWizardInvalidStepReprompts(t *testing.T) {
	f := newConversationFixture()
	user := f.user(t, 1, domain.StageMainMenu)
	ctx := context.Background()

	appointmentService := NewAppointmentService(f.users, f.appointments, nil, zap.NewNop())
	if err := appointmentService.Begin(ctx, user, domain.AppointmentConsultation); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := f.conv.HandleText(ctx, user, "в следующий вторник"); err != nil {
		t.Fatalf("handle: %v", err)
	}

	stored, _ := f.users.get(1)
	if stored.Stage != domain.StageAwaitingAppointmentDate {
		t.Fatalf("stage advanced past invalid date: %s", stored.Stage)
	}
	if stored.AppointmentDraft == nil || stored.AppointmentDraft.Date != "" {
		t.Fatalf("draft mutated by invalid input: %+v", stored.AppointmentDraft)
	}
}

func TestAppointmentWizardCancelClearsDraft(t *testing.T) {
	f := newConversationFixture()
	user := f.user(t, 1, domain.StageMainMenu)
	ctx := context.Background()

	appointmentService := NewAppointmentService(f.users, f.appointments, nil, zap.NewNop())
	if err := appointmentService.Begin(ctx, user, domain.AppointmentTattoo); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := f.conv.HandleText(ctx, user, "12.10.2026"); err != nil {
		t.Fatalf("date step: %v", err)
	}
	if err := f.conv.HandleText(ctx, user, "Отмена"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	stored, _ := f.users.get(1)
	if stored.Stage != domain.StageMainMenu {
		t.Fatalf("stage = %s, want main_menu", stored.Stage)
	}
	if stored.AppointmentDraft != nil {
		t.Fatalf("draft survived cancellation")
	}
	all, _ := f.appointments.ListAll(ctx)
	if len(all) != 0 {
		t.Fatalf("partial appointment persisted: %d records", len(all))
	}
}

func TestCancelKeywordLeavesAwaitingStage(t *testing.T) {
	f := newConversationFixture()
	user := f.user(t, 1, domain.StageAwaitingQuestion)

	if err := f.conv.HandleText(context.Background(), user, "отмена"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	stored, _ := f.users.get(1)
	if stored.Stage != domain.StageMainMenu {
		t.Fatalf("stage = %s, want main_menu", stored.Stage)
	}
	if len(stored.Questions) != 0 {
		t.Fatalf("cancel keyword recorded as a question")
	}
}

func TestUnrecognizedTextGetsHelpReply(t *testing.T) {
	f := newConversationFixture()
	user := f.user(t, 1, domain.StageMainMenu)

	if err := f.conv.HandleText(context.Background(), user, "просто текст"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.sender.sentTo(1)) != 1 {
		t.Fatalf("expected exactly one help reply, got %d", len(f.sender.sentTo(1)))
	}
	stored, _ := f.users.get(1)
	if stored.Stage != domain.StageMainMenu {
		t.Fatalf("stage changed by unrecognized text: %s", stored.Stage)
	}
}

func TestBroadcastStageHandsOffToEngine(t *testing.T) {
	f := newConversationFixture()
	f.users.put(domain.User{ID: 2, Stage: domain.StageMainMenu})
	admin := f.user(t, testAdminID, domain.StageAwaitingBroadcastText)

	if err := f.conv.HandleText(context.Background(), admin, "важное объявление"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	f.conv.broadcasts.Wait()

	stored, _ := f.users.get(testAdminID)
	if stored.Stage != domain.StageMainMenu {
		t.Fatalf("stage = %s, want main_menu", stored.Stage)
	}
	if got := f.sender.sentTo(2); len(got) != 1 || got[0] != "важное объявление" {
		t.Fatalf("recipient got %v", got)
	}
}
