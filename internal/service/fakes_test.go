package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/aftercare-bot/internal/domain"
	"github.com/spec-kit/aftercare-bot/internal/repository"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (f *fakeUserRepo) put(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.LastActive.IsZero() {
		u.LastActive = time.Now()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	clone := u
	f.users[u.ID] = &clone
}

func (f *fakeUserRepo) get(id int64) (domain.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, false
	}
	return *u, true
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	user.LastActive = time.Now()
	user.CreatedAt = time.Now()
	f.put(*user)
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.LastActive = time.Now()
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, ok := f.get(id)
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) all() []domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users := f.all()
	if offset >= len(users) {
		return nil, nil
	}
	users = users[offset:]
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (f *fakeUserRepo) ListByAudience(ctx context.Context, audience domain.Audience) ([]domain.User, error) {
	var out []domain.User
	weekAgo := time.Now().AddDate(0, 0, -7)
	for _, u := range f.all() {
		switch audience {
		case domain.AudienceWithDate:
			if u.TattooDate == nil {
				continue
			}
		case domain.AudienceWithQuestions:
			if len(u.Questions) == 0 {
				continue
			}
		case domain.AudienceActiveWeek:
			if u.LastActive.Before(weekAgo) {
				continue
			}
		}
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserRepo) ListAdmins(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.all() {
		if u.IsAdmin {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) CountAll(ctx context.Context) (int, error) {
	return len(f.all()), nil
}

func (f *fakeUserRepo) Stats(ctx context.Context) (*repository.UserStats, error) {
	stats := &repository.UserStats{}
	weekAgo := time.Now().AddDate(0, 0, -7)
	dayAgo := time.Now().AddDate(0, 0, -1)
	for _, u := range f.all() {
		stats.Total++
		if u.TattooDate != nil {
			stats.WithTattooDate++
		}
		if len(u.Questions) > 0 {
			stats.WithQuestions++
		}
		if u.LastActive.After(weekAgo) {
			stats.ActiveWeek++
		}
		if u.LastActive.After(dayAgo) {
			stats.ActiveToday++
		}
		if u.IsAdmin {
			stats.Admins++
		}
		if u.CreatedAt.After(weekAgo) {
			stats.NewThisWeek++
		}
	}
	return stats, nil
}

func (f *fakeUserRepo) RegistrationsByDay(ctx context.Context, days int) ([]repository.DayCount, error) {
	return nil, nil
}

func (f *fakeUserRepo) TouchLastActive(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.LastActive = time.Now()
	}
	return nil
}

type fakeAppointmentRepo struct {
	mu    sync.Mutex
	items map[string]*domain.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{items: make(map[string]*domain.Appointment)}
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, a *domain.Appointment) error {
	a.CreatedAt = time.Now()
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *a
	f.items[a.ID] = &clone
	return nil
}

func (f *fakeAppointmentRepo) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *a
	return &clone, nil
}

func (f *fakeAppointmentRepo) list() []domain.Appointment {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Appointment, 0, len(f.items))
	for _, a := range f.items {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (f *fakeAppointmentRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range f.list() {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListByStatus(ctx context.Context, status domain.AppointmentStatus, limit int) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range f.list() {
		if a.Status == status {
			out = append(out, a)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListAll(ctx context.Context) ([]domain.Appointment, error) {
	return f.list(), nil
}

func (f *fakeAppointmentRepo) UpdateStatus(ctx context.Context, id string, status domain.AppointmentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.Status = status
	return nil
}

func (f *fakeAppointmentRepo) CountByStatus(ctx context.Context) (map[domain.AppointmentStatus]int, error) {
	out := make(map[domain.AppointmentStatus]int)
	for _, a := range f.list() {
		out[a.Status]++
	}
	return out, nil
}

type sentMessage struct {
	ChatID int64
	Text   string
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	edits   []sentMessage
	blocked map[int64]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{blocked: make(map[int64]bool)}
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blocked[chatID] {
		return 0, domain.ErrRecipientBlocked
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return len(f.sent), nil
}

func (f *fakeSender) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeSender) sentTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) lastTo(chatID int64) string {
	msgs := f.sentTo(chatID)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}
