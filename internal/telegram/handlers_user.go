package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/domain"
	"github.com/spec-kit/aftercare-bot/internal/service"
)

func (r *Router) handleCommand(ctx context.Context, user *domain.User, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		r.cmdStart(ctx, user)
	case "help":
		r.send(ctx, user.ID, helpText)
	case "setdate":
		if err := r.users.SetStage(ctx, user, domain.StageAwaitingTattooDate); err != nil {
			r.fail(ctx, user.ID, "setdate", err)
			return
		}
		r.sendWithKeyboard(ctx, user.ID, setDatePrompt, datePresetKeyboard())
	case "myquestions":
		r.cmdMyQuestions(ctx, user)
	case "stats":
		if !r.access.HasPermission(user.ID, service.PermViewAnalytics) {
			r.send(ctx, user.ID, accessDeniedText)
			return
		}
		overview, err := r.analytics.Overview(ctx)
		if err != nil {
			r.fail(ctx, user.ID, "stats", err)
			return
		}
		r.send(ctx, user.ID, overview)
	case "admin":
		if !r.access.IsAdmin(user.ID) {
			r.send(ctx, user.ID, accessDeniedText)
			return
		}
		r.sendWithKeyboard(ctx, user.ID, "🛠 <b>Панель администратора</b>", adminPanelKeyboard())
	case "users":
		if !r.access.HasPermission(user.ID, service.PermManageUsers) {
			r.send(ctx, user.ID, accessDeniedText)
			return
		}
		r.showUsersPage(ctx, user, 0, 0)
	case "broadcast":
		if !r.access.HasPermission(user.ID, service.PermSendBroadcasts) {
			r.send(ctx, user.ID, accessDeniedText)
			return
		}
		r.showBroadcastMenu(ctx, user, 0)
	case "debug":
		if !r.access.IsAdmin(user.ID) {
			r.send(ctx, user.ID, accessDeniedText)
			return
		}
		r.cmdDebug(ctx, user)
	case "debuguser":
		r.cmdDebugUser(ctx, user)
	case "debugusers":
		if !r.access.IsAdmin(user.ID) {
			r.send(ctx, user.ID, accessDeniedText)
			return
		}
		r.cmdDebugUsers(ctx, user)
	default:
		r.send(ctx, user.ID, "🤔 Неизвестная команда. Справка: /help")
	}
}

// cmdStart welcomes a new user and immediately moves them into tattoo-date
// capture; returning users get the main menu.
func (r *Router) cmdStart(ctx context.Context, user *domain.User) {
	if user.Stage == domain.StageStart {
		r.sendWithKeyboard(ctx, user.ID, welcomeText, datePresetKeyboard())
		if err := r.users.BeginDateCapture(ctx, user); err != nil {
			r.fail(ctx, user.ID, "start", err)
		}
		return
	}
	if err := r.users.SetStage(ctx, user, domain.StageMainMenu); err != nil {
		r.fail(ctx, user.ID, "start", err)
		return
	}
	r.sendWithKeyboard(ctx, user.ID, welcomeBackText, mainMenuKeyboard(r.access.IsAdmin(user.ID)))
}

func (r *Router) cmdMyQuestions(ctx context.Context, user *domain.User) {
	if len(user.Questions) == 0 {
		r.send(ctx, user.ID, "У вас пока нет вопросов. Задать первый можно через меню.")
		return
	}
	var b strings.Builder
	b.WriteString("📋 <b>Ваши вопросы</b>\n\n")
	for i, q := range user.Questions {
		status := "⏳ ожидает ответа"
		if q.Status == domain.QuestionStatusAnswered {
			status = "✅ отвечен"
		}
		fmt.Fprintf(&b, "%d. %s\n   %s · %s\n", i+1, q.Text, q.SubmittedAt.Format("02.01.2006"), status)
		if q.AnswerText != "" {
			fmt.Fprintf(&b, "   💬 %s\n", q.AnswerText)
		}
	}
	r.send(ctx, user.ID, b.String())
}

func (r *Router) cmdDebug(ctx context.Context, user *domain.User) {
	snap := r.state.Broadcast.Snapshot()
	updates, errs := r.metrics.Snapshot()
	var updateTotal, errTotal int64
	for _, v := range updates {
		updateTotal += v
	}
	for _, v := range errs {
		errTotal += v
	}
	r.send(ctx, user.ID, fmt.Sprintf(
		"🔧 <b>Отладка</b>\n\nАптайм: %s\nОбновлений: %d (ошибок: %d)\nСистемный лог: %d записей\nЛог действий: %d записей\nРассылка активна: %t",
		time.Since(r.state.StartedAt).Round(time.Second),
		updateTotal, errTotal,
		r.state.SystemLog.Len(), r.state.ActionLog.Len(),
		snap.Active))
}

func (r *Router) cmdDebugUser(ctx context.Context, user *domain.User) {
	tattooDate := "не указана"
	if user.TattooDate != nil {
		tattooDate = user.TattooDate.Format("02.01.2006")
	}
	r.send(ctx, user.ID, fmt.Sprintf(
		"🔧 <b>Ваша запись</b>\n\nID: %d\nСтадия: %s\nДата тату: %s\nВопросов: %d\nАдминистратор: %t\nСоздана: %s",
		user.ID, user.Stage, tattooDate, len(user.Questions), user.IsAdmin,
		user.CreatedAt.Format("02.01.2006 15:04")))
}

func (r *Router) cmdDebugUsers(ctx context.Context, user *domain.User) {
	overview, err := r.analytics.Overview(ctx)
	if err != nil {
		r.fail(ctx, user.ID, "debugusers", err)
		return
	}
	r.send(ctx, user.ID, overview)
}

func (r *Router) handleCallback(ctx context.Context, user *domain.User, cb *tgbotapi.CallbackQuery) {
	r.metrics.RecordUpdate("callback")
	if err := r.bot.AnswerCallback(ctx, cb.ID, ""); err != nil {
		r.logger.Debug("callback answer failed", zap.Error(err))
	}

	if r.handleUserCallback(ctx, user, cb) {
		return
	}
	if r.handleAdminCallback(ctx, user, cb) {
		return
	}
	r.send(ctx, user.ID, unknownCallbackText)
}

// handleUserCallback serves the public menu surface. Returns false when the
// payload belongs to the admin surface.
func (r *Router) handleUserCallback(ctx context.Context, user *domain.User, cb *tgbotapi.CallbackQuery) bool {
	switch cb.Data {
	case cbMainMenu:
		if err := r.users.SetStage(ctx, user, domain.StageMainMenu); err != nil {
			r.fail(ctx, user.ID, "main_menu", err)
			return true
		}
		r.sendWithKeyboard(ctx, user.ID, "Главное меню:", mainMenuKeyboard(r.access.IsAdmin(user.ID)))
	case cbCareDay1:
		r.sendWithKeyboard(ctx, user.ID, careDay1Text, backToMenuKeyboard())
	case cbCareWeek1:
		r.sendWithKeyboard(ctx, user.ID, careWeek1Text, backToMenuKeyboard())
	case cbCareLongTerm:
		r.sendWithKeyboard(ctx, user.ID, careLongTermText, backToMenuKeyboard())
	case cbFAQ:
		r.sendWithKeyboard(ctx, user.ID, faqText, backToMenuKeyboard())
	case cbAskQuestion:
		if err := r.users.SetStage(ctx, user, domain.StageAwaitingQuestion); err != nil {
			r.fail(ctx, user.ID, "ask_question", err)
			return true
		}
		r.send(ctx, user.ID, askQuestionPrompt)
	case cbSetDate:
		if err := r.users.SetStage(ctx, user, domain.StageAwaitingTattooDate); err != nil {
			r.fail(ctx, user.ID, "set_date", err)
			return true
		}
		r.sendWithKeyboard(ctx, user.ID, setDatePrompt, datePresetKeyboard())
	case cbDateToday:
		r.applyDatePreset(ctx, user, 0)
	case cbDateYesterday:
		r.applyDatePreset(ctx, user, -1)
	case cbBook:
		r.sendWithKeyboard(ctx, user.ID, bookKindPrompt, bookKindKeyboard())
	default:
		if kind, ok := strings.CutPrefix(cb.Data, cbBookKind); ok {
			r.beginBooking(ctx, user, domain.AppointmentKind(kind))
			return true
		}
		return false
	}
	return true
}

func (r *Router) applyDatePreset(ctx context.Context, user *domain.User, dayOffset int) {
	now := time.Now()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, dayOffset)
	if err := r.users.SetTattooDate(ctx, user, date); err != nil {
		r.fail(ctx, user.ID, "date_preset", err)
		return
	}
	r.sendWithKeyboard(ctx, user.ID,
		"✅ Дата сеанса сохранена: "+date.Format("02.01.2006"),
		mainMenuKeyboard(r.access.IsAdmin(user.ID)))
}

func (r *Router) beginBooking(ctx context.Context, user *domain.User, kind domain.AppointmentKind) {
	if kind != domain.AppointmentConsultation && kind != domain.AppointmentTattoo {
		r.send(ctx, user.ID, unknownCallbackText)
		return
	}
	if err := r.appointments.Begin(ctx, user, kind); err != nil {
		r.fail(ctx, user.ID, "book", err)
		return
	}
	r.send(ctx, user.ID, bookDatePrompt)
}

func (r *Router) send(ctx context.Context, chatID int64, text string) {
	if _, err := r.bot.SendMessage(ctx, chatID, text); err != nil {
		r.logger.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) sendWithKeyboard(ctx context.Context, chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if _, err := r.bot.SendMessageWithKeyboard(ctx, chatID, text, kb); err != nil {
		r.logger.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// fail logs an operation error and degrades to a generic reply.
func (r *Router) fail(ctx context.Context, chatID int64, op string, err error) {
	r.metrics.RecordError(op, "INTERNAL_ERROR")
	r.logger.Error("handler failed", zap.String("op", op), zap.Error(err))
	r.state.LogSystem("handler_error", op+" failed")
	r.send(ctx, chatID, genericErrorText)
}
