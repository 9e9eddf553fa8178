package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/domain"
	"github.com/spec-kit/aftercare-bot/internal/repository"
)

const chartBarWidth = 12

// AnalyticsService renders read-only aggregation reports for the admin
// panel. Pure projection over repository aggregates.
type AnalyticsService struct {
	users        repository.UserRepository
	appointments repository.AppointmentRepository
	logger       *zap.Logger
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(users repository.UserRepository, appointments repository.AppointmentRepository, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{users: users, appointments: appointments, logger: logger}
}

// Overview renders the headline user statistics.
func (s *AnalyticsService) Overview(ctx context.Context) (string, error) {
	stats, err := s.users.Stats(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("📊 <b>Статистика</b>\n\n")
	fmt.Fprintf(&b, "👥 Всего пользователей: %d\n", stats.Total)
	fmt.Fprintf(&b, "🗓 С датой тату: %d %s\n", stats.WithTattooDate, bar(stats.WithTattooDate, stats.Total))
	fmt.Fprintf(&b, "❓ С вопросами: %d %s\n", stats.WithQuestions, bar(stats.WithQuestions, stats.Total))
	fmt.Fprintf(&b, "🔥 Активны за 7 дней: %d %s\n", stats.ActiveWeek, bar(stats.ActiveWeek, stats.Total))
	fmt.Fprintf(&b, "⚡ Активны сегодня: %d\n", stats.ActiveToday)
	fmt.Fprintf(&b, "🆕 Новых за неделю: %d\n", stats.NewThisWeek)
	fmt.Fprintf(&b, "🛡 Администраторов: %d\n", stats.Admins)
	return b.String(), nil
}

// RegistrationsChart renders per-day registrations over the period as an
// ASCII bar chart.
func (s *AnalyticsService) RegistrationsChart(ctx context.Context, days int) (string, error) {
	buckets, err := s.users.RegistrationsByDay(ctx, days)
	if err != nil {
		return "", err
	}
	if len(buckets) == 0 {
		return fmt.Sprintf("📈 Регистрации за %d дн.: данных нет", days), nil
	}

	max := 0
	for _, bucket := range buckets {
		if bucket.Count > max {
			max = bucket.Count
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📈 <b>Регистрации за %d дн.</b>\n\n", days)
	for _, bucket := range buckets {
		fmt.Fprintf(&b, "%s %s %d\n", bucket.Day.Format("02.01"), bar(bucket.Count, max), bucket.Count)
	}
	return b.String(), nil
}

// AppointmentSummary renders booking counts grouped by status.
func (s *AnalyticsService) AppointmentSummary(ctx context.Context) (string, error) {
	counts, err := s.appointments.CountByStatus(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("📅 <b>Записи</b>\n\n")
	fmt.Fprintf(&b, "⏳ Ожидают: %d\n", counts[domain.AppointmentStatusPending])
	fmt.Fprintf(&b, "✅ Подтверждены: %d\n", counts[domain.AppointmentStatusConfirmed])
	fmt.Fprintf(&b, "❌ Отменены: %d\n", counts[domain.AppointmentStatusCancelled])
	return b.String(), nil
}

// bar renders a fixed-width filled/empty ASCII bar proportional to value/max.
func bar(value, max int) string {
	if max <= 0 {
		max = 1
	}
	filled := value * chartBarWidth / max
	if filled > chartBarWidth {
		filled = chartBarWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", chartBarWidth-filled)
}
