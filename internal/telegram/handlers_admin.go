package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/appstate"
	"github.com/spec-kit/aftercare-bot/internal/domain"
	"github.com/spec-kit/aftercare-bot/internal/service"
	"github.com/spec-kit/aftercare-bot/pkg/util"
)

const pendingAppointmentsLimit = 10

// handleAdminCallback serves the admin panel surface. Returns false when the
// payload is not an admin callback at all; unauthorized presses are consumed
// with a denial reply.
func (r *Router) handleAdminCallback(ctx context.Context, user *domain.User, cb *tgbotapi.CallbackQuery) bool {
	data := cb.Data
	if !strings.HasPrefix(data, "admin_") && !strings.HasPrefix(data, "chart_") {
		return false
	}
	if !r.access.IsAdmin(user.ID) {
		r.send(ctx, user.ID, accessDeniedText)
		return true
	}

	messageID := 0
	if cb.Message != nil {
		messageID = cb.Message.MessageID
	}

	switch data {
	case cbAdminPanel:
		r.editOrSend(ctx, user.ID, messageID, "🛠 <b>Панель администратора</b>", adminPanelKeyboard())
	case cbAdminBroadcast:
		if !r.requirePerm(ctx, user, service.PermSendBroadcasts) {
			return true
		}
		r.showBroadcastMenu(ctx, user, messageID)
	case cbAdminCancelBcast:
		if !r.requirePerm(ctx, user, service.PermSendBroadcasts) {
			return true
		}
		if r.broadcasts.Cancel(user.ID) {
			r.send(ctx, user.ID, "⏹ Рассылка будет остановлена после текущей отправки.")
		} else {
			r.send(ctx, user.ID, "ℹ️ Активной рассылки нет.")
		}
	case cbAdminAnalytics:
		if !r.requirePerm(ctx, user, service.PermViewAnalytics) {
			return true
		}
		r.showAnalytics(ctx, user, messageID)
	case cbAdminLogs:
		r.showLog(ctx, user, messageID, "📋 <b>Системный лог</b>", r.state.SystemLog)
	case cbAdminActionLog:
		r.showLog(ctx, user, messageID, "🗂 <b>Лог действий</b>", r.state.ActionLog)
	case cbAdminAccess:
		if !r.requirePerm(ctx, user, service.PermFullAccess) {
			return true
		}
		r.showAccess(ctx, user, messageID)
	case cbAdminAccessAdd:
		if !r.requirePerm(ctx, user, service.PermFullAccess) {
			return true
		}
		if err := r.users.SetStage(ctx, user, domain.StageAwaitingAdminID); err != nil {
			r.fail(ctx, user.ID, "access_add", err)
			return true
		}
		r.send(ctx, user.ID, "🔢 Отправьте Telegram ID нового администратора. Он должен хотя бы раз написать боту.\n\nДля отмены отправьте «отмена».")
	case cbAdminTemplates:
		if !r.requirePerm(ctx, user, service.PermManageSettings) {
			return true
		}
		r.showTemplates(ctx, user, messageID)
	case cbAdminTemplateAdd:
		if !r.requirePerm(ctx, user, service.PermManageSettings) {
			return true
		}
		if err := r.users.SetStage(ctx, user, domain.StageAwaitingTemplate); err != nil {
			r.fail(ctx, user.ID, "template_add", err)
			return true
		}
		r.send(ctx, user.ID, "📝 Отправьте шаблон одним сообщением:\n\nЗаголовок: ...\nКатегория: ...\nТеги: ...\nТекст: ...\n\nДля отмены отправьте «отмена».")
	case cbAdminCategoryAdd:
		if !r.requirePerm(ctx, user, service.PermManageSettings) {
			return true
		}
		if err := r.users.SetStage(ctx, user, domain.StageAwaitingCategoryAdd); err != nil {
			r.fail(ctx, user.ID, "category_add", err)
			return true
		}
		r.send(ctx, user.ID, "✍️ Отправьте название новой категории.\n\nДля отмены отправьте «отмена».")
	case cbAdminSettings:
		if !r.requirePerm(ctx, user, service.PermManageSettings) {
			return true
		}
		r.showSettings(ctx, user, messageID)
	case cbToggleNotify:
		if !r.requirePerm(ctx, user, service.PermManageSettings) {
			return true
		}
		n := r.state.Settings.Notifications()
		n.Enabled = !n.Enabled
		r.state.Settings.UpdateNotifications(n)
		r.state.LogAction("settings_changed", fmt.Sprintf("admin %d set notifications enabled=%t", user.ID, n.Enabled))
		r.showSettings(ctx, user, messageID)
	case cbToggleQuiet:
		if !r.requirePerm(ctx, user, service.PermManageSettings) {
			return true
		}
		n := r.state.Settings.Notifications()
		n.QuietMode = !n.QuietMode
		r.state.Settings.UpdateNotifications(n)
		r.state.LogAction("settings_changed", fmt.Sprintf("admin %d set quiet mode=%t", user.ID, n.QuietMode))
		r.showSettings(ctx, user, messageID)
	case cbAdminBackup:
		if !r.requirePerm(ctx, user, service.PermFullAccess) {
			return true
		}
		r.sendBackup(ctx, user)
	case cbAdminAppointments:
		if !r.requirePerm(ctx, user, service.PermManageQuestions) {
			return true
		}
		r.showAppointments(ctx, user, messageID)
	default:
		return r.handleAdminPrefixed(ctx, user, cb, messageID)
	}
	return true
}

func (r *Router) handleAdminPrefixed(ctx context.Context, user *domain.User, cb *tgbotapi.CallbackQuery, messageID int) bool {
	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbAdminUsersPage):
		if !r.requirePerm(ctx, user, service.PermManageUsers) {
			return true
		}
		page, err := strconv.Atoi(strings.TrimPrefix(data, cbAdminUsersPage))
		if err != nil || page < 0 {
			page = 0
		}
		r.showUsersPage(ctx, user, page, messageID)
	case strings.HasPrefix(data, cbChartUsers):
		if !r.requirePerm(ctx, user, service.PermViewAnalytics) {
			return true
		}
		days, err := strconv.Atoi(strings.TrimPrefix(data, cbChartUsers))
		if err != nil || days <= 0 {
			days = 7
		}
		chart, err := r.analytics.RegistrationsChart(ctx, days)
		if err != nil {
			r.fail(ctx, user.ID, "chart", err)
			return true
		}
		r.editOrSend(ctx, user.ID, messageID, chart, analyticsKeyboard())
	case strings.HasPrefix(data, cbAdminAccessRemove):
		r.accessMutation(ctx, user, messageID, data, cbAdminAccessRemove, func(targetID int64) error {
			return r.access.Remove(ctx, user.ID, targetID)
		})
	case strings.HasPrefix(data, cbAdminAccessGrant):
		r.accessMutation(ctx, user, messageID, data, cbAdminAccessGrant, func(targetID int64) error {
			return r.access.GrantAll(ctx, user.ID, targetID)
		})
	case strings.HasPrefix(data, cbAdminAccessRevoke):
		r.accessMutation(ctx, user, messageID, data, cbAdminAccessRevoke, func(targetID int64) error {
			return r.access.RevokeAll(ctx, user.ID, targetID)
		})
	case strings.HasPrefix(data, cbAdminAccessToggle):
		r.togglePermission(ctx, user, messageID, strings.TrimPrefix(data, cbAdminAccessToggle))
	case strings.HasPrefix(data, cbApptConfirm):
		r.decideAppointment(ctx, user, messageID, strings.TrimPrefix(data, cbApptConfirm), domain.AppointmentStatusConfirmed)
	case strings.HasPrefix(data, cbApptDecline):
		r.decideAppointment(ctx, user, messageID, strings.TrimPrefix(data, cbApptDecline), domain.AppointmentStatusCancelled)
	case strings.HasPrefix(data, cbAdminBroadcastTo):
		if !r.requirePerm(ctx, user, service.PermSendBroadcasts) {
			return true
		}
		r.beginBroadcastCapture(ctx, user, domain.Audience(strings.TrimPrefix(data, cbAdminBroadcastTo)))
	default:
		return false
	}
	return true
}

// requirePerm consumes the press with a denial reply when the capability is
// missing.
func (r *Router) requirePerm(ctx context.Context, user *domain.User, perm string) bool {
	if r.access.HasPermission(user.ID, perm) {
		return true
	}
	r.send(ctx, user.ID, accessDeniedText)
	return false
}

func (r *Router) showBroadcastMenu(ctx context.Context, user *domain.User, messageID int) {
	snap := r.state.Broadcast.Snapshot()
	if snap.Active {
		done := snap.Success + snap.Failed
		text := fmt.Sprintf("📨 <b>Рассылка выполняется</b>\n\nОтправлено %d из %d (ошибок: %d).", done, snap.Total, snap.Failed)
		r.editOrSend(ctx, user.ID, messageID, text, broadcastMenuKeyboard(true))
		return
	}
	r.editOrSend(ctx, user.ID, messageID, "📨 <b>Рассылка</b>\n\nВыберите аудиторию:", broadcastMenuKeyboard(false))
}

func (r *Router) beginBroadcastCapture(ctx context.Context, user *domain.User, audience domain.Audience) {
	stage, ok := broadcastStageFor(audience)
	if !ok {
		r.send(ctx, user.ID, unknownCallbackText)
		return
	}
	if err := r.users.SetStage(ctx, user, stage); err != nil {
		r.fail(ctx, user.ID, "broadcast_capture", err)
		return
	}
	r.send(ctx, user.ID, fmt.Sprintf("✍️ Аудитория: <b>%s</b>. Отправьте текст рассылки одним сообщением.\n\nДля отмены отправьте «отмена».", audience.Title()))
}

func broadcastStageFor(audience domain.Audience) (domain.Stage, bool) {
	switch audience {
	case domain.AudienceAll:
		return domain.StageAwaitingBroadcastText, true
	case domain.AudienceWithDate:
		return domain.StageAwaitingBroadcastTattooText, true
	case domain.AudienceWithQuestions:
		return domain.StageAwaitingBroadcastQuestionsText, true
	case domain.AudienceActiveWeek:
		return domain.StageAwaitingBroadcastActiveText, true
	}
	return "", false
}

func (r *Router) showUsersPage(ctx context.Context, user *domain.User, page, messageID int) {
	users, hasNext, err := r.users.ListPage(ctx, page)
	if err != nil {
		r.fail(ctx, user.ID, "users_page", err)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 <b>Пользователи</b> — страница %d\n\n", page+1)
	if len(users) == 0 {
		b.WriteString("На этой странице пусто.")
	}
	for _, u := range users {
		tattooDate := "—"
		if u.TattooDate != nil {
			tattooDate = u.TattooDate.Format("02.01.2006")
		}
		marker := ""
		if u.IsAdmin {
			marker = " 🛡"
		}
		fmt.Fprintf(&b, "• %s%s (ID %d)\n  🗓 %s · ❓ %d · был(а) %s\n",
			u.DisplayName(), marker, u.ID, tattooDate, len(u.Questions),
			u.LastActive.Format("02.01 15:04"))
	}
	r.editOrSend(ctx, user.ID, messageID, b.String(), usersPageKeyboard(page, hasNext))
}

func (r *Router) showAnalytics(ctx context.Context, user *domain.User, messageID int) {
	overview, err := r.analytics.Overview(ctx)
	if err != nil {
		r.fail(ctx, user.ID, "analytics", err)
		return
	}
	appointments, err := r.analytics.AppointmentSummary(ctx)
	if err != nil {
		r.fail(ctx, user.ID, "analytics", err)
		return
	}
	r.editOrSend(ctx, user.ID, messageID, overview+"\n"+appointments, analyticsKeyboard())
}

func (r *Router) showLog(ctx context.Context, user *domain.User, messageID int, header string, log *appstate.RingLog) {
	entries := log.Tail(15)
	var b strings.Builder
	b.WriteString(header + "\n\n")
	if len(entries) == 0 {
		b.WriteString("Записей пока нет.")
	}
	for _, entry := range entries {
		fmt.Fprintf(&b, "<code>%s</code> [%s] %s\n",
			entry.Timestamp.Format("02.01 15:04:05"), entry.Type, entry.Message)
	}
	r.editOrSend(ctx, user.ID, messageID, b.String(), logsKeyboard())
}

func (r *Router) showAccess(ctx context.Context, user *domain.User, messageID int) {
	roster := r.state.Access.List()
	mainID := r.state.Access.MainAdminID()

	var b strings.Builder
	fmt.Fprintf(&b, "🛡 <b>Администраторы</b> (%d из %d)\n\n", len(roster), r.state.Access.MaxAdmins())
	for _, entry := range roster {
		label := permissionSummary(entry.Permissions)
		if entry.ID == mainID {
			label = "главный администратор"
		}
		fmt.Fprintf(&b, "• %s (ID %d) — %s\n", entry.Name, entry.ID, label)
	}
	r.editOrSend(ctx, user.ID, messageID, b.String(), accessKeyboard(roster, mainID))
}

func permissionSummary(p domain.AdminPermissions) string {
	if p.FullAccess {
		return "полный доступ"
	}
	var parts []string
	if p.ManageUsers {
		parts = append(parts, "пользователи")
	}
	if p.ManageQuestions {
		parts = append(parts, "вопросы")
	}
	if p.ManageSettings {
		parts = append(parts, "настройки")
	}
	if p.SendBroadcasts {
		parts = append(parts, "рассылки")
	}
	if p.ViewAnalytics {
		parts = append(parts, "аналитика")
	}
	if len(parts) == 0 {
		return "без прав"
	}
	return strings.Join(parts, ", ")
}

// accessMutation parses the target id, applies the roster change and
// re-renders the access view.
func (r *Router) accessMutation(ctx context.Context, user *domain.User, messageID int, data, prefix string, apply func(int64) error) {
	targetID, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil {
		r.send(ctx, user.ID, unknownCallbackText)
		return
	}
	if err := apply(targetID); err != nil {
		r.replyAccessError(ctx, user.ID, err)
		return
	}
	r.showAccess(ctx, user, messageID)
}

func (r *Router) togglePermission(ctx context.Context, user *domain.User, messageID int, payload string) {
	parts := strings.SplitN(payload, "_", 2)
	if len(parts) != 2 {
		r.send(ctx, user.ID, unknownCallbackText)
		return
	}
	targetID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		r.send(ctx, user.ID, unknownCallbackText)
		return
	}
	if _, err := r.access.TogglePermission(ctx, user.ID, targetID, parts[1]); err != nil {
		r.replyAccessError(ctx, user.ID, err)
		return
	}
	r.showAccess(ctx, user, messageID)
}

func (r *Router) replyAccessError(ctx context.Context, chatID int64, err error) {
	switch {
	case util.IsCode(err, "FORBIDDEN"):
		r.send(ctx, chatID, "⛔ "+util.ToDomainError(err).Message)
	case util.IsCode(err, "NOT_FOUND"):
		r.send(ctx, chatID, "🔍 Администратор не найден, возможно он уже удалён.")
	case util.IsCode(err, "CONFLICT"):
		r.send(ctx, chatID, "⚠️ "+util.ToDomainError(err).Message)
	default:
		r.fail(ctx, chatID, "access", err)
	}
}

func (r *Router) showTemplates(ctx context.Context, user *domain.User, messageID int) {
	templates := r.state.Templates.List()
	categories := r.state.Categories.List()

	var b strings.Builder
	b.WriteString("📝 <b>Шаблоны ответов</b>\n\n")
	if len(templates) == 0 {
		b.WriteString("Шаблонов пока нет.\n")
	}
	for i, t := range templates {
		fmt.Fprintf(&b, "%d. <b>%s</b>", i+1, t.Title)
		if t.Category != "" {
			fmt.Fprintf(&b, " [%s]", t.Category)
		}
		if len(t.Tags) > 0 {
			fmt.Fprintf(&b, " #%s", strings.Join(t.Tags, " #"))
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "   %s\n", t.Text)
	}
	fmt.Fprintf(&b, "\n🗂 Категории: %s", strings.Join(categories, ", "))
	r.editOrSend(ctx, user.ID, messageID, b.String(), templatesKeyboard())
}

func (r *Router) showSettings(ctx context.Context, user *domain.User, messageID int) {
	n := r.state.Settings.Notifications()
	w := r.state.Settings.Worktime()
	text := fmt.Sprintf(
		"⚙️ <b>Настройки</b>\n\n🔔 Уведомления: %s\n🌙 Тихий режим: %s\n🕐 Часы работы студии: %02d:00–%02d:00",
		onOff(n.Enabled), onOff(n.QuietMode), w.OpenHour, w.CloseHour)
	r.editOrSend(ctx, user.ID, messageID, text, settingsKeyboard(n))
}

func onOff(v bool) string {
	if v {
		return "вкл"
	}
	return "выкл"
}

func (r *Router) sendBackup(ctx context.Context, user *domain.User) {
	data, err := r.backup.Build(ctx)
	if err != nil {
		r.fail(ctx, user.ID, "backup", err)
		return
	}
	name := "backup-" + time.Now().Format("2006-01-02") + ".json"
	if err := r.bot.SendDocument(ctx, user.ID, name, data, "💾 Резервная копия данных"); err != nil {
		r.fail(ctx, user.ID, "backup", err)
		return
	}
	r.state.LogAction("backup_exported", fmt.Sprintf("admin %d exported a backup", user.ID))

	token, err := r.backup.IssueToken(user.ID)
	if err != nil {
		r.logger.Warn("backup token issue failed", zap.Error(err))
		return
	}
	r.send(ctx, user.ID, "🔑 Токен для скачивания по HTTP (<code>GET /export/backup?token=…</code>):\n\n<code>"+token+"</code>")
}

func (r *Router) showAppointments(ctx context.Context, user *domain.User, messageID int) {
	pending, err := r.appointments.Pending(ctx, pendingAppointmentsLimit)
	if err != nil {
		r.fail(ctx, user.ID, "appointments", err)
		return
	}

	var b strings.Builder
	b.WriteString("📅 <b>Заявки на запись</b>\n\n")
	if len(pending) == 0 {
		b.WriteString("Новых заявок нет.")
	}
	for _, a := range pending {
		kind := "консультация"
		if a.Kind == domain.AppointmentTattoo {
			kind = "сеанс тату"
		}
		fmt.Fprintf(&b, "• %s %s — %s\n  %s, 📞 %s\n", a.Date, a.Time, kind, a.UserName, a.Contact)
		if a.Comment != "" {
			fmt.Fprintf(&b, "  💬 %s\n", a.Comment)
		}
	}
	r.editOrSend(ctx, user.ID, messageID, b.String(), appointmentsKeyboard(pending))
}

// decideAppointment confirms or declines a booking and notifies its owner.
func (r *Router) decideAppointment(ctx context.Context, user *domain.User, messageID int, id string, status domain.AppointmentStatus) {
	if !r.requirePerm(ctx, user, service.PermManageQuestions) {
		return
	}
	appointment, err := r.appointments.SetStatus(ctx, id, status)
	if err != nil {
		if util.IsCode(err, "NOT_FOUND") {
			r.send(ctx, user.ID, "🔍 Заявка не найдена, возможно она уже обработана.")
			return
		}
		r.fail(ctx, user.ID, "appointment_status", err)
		return
	}

	if status == domain.AppointmentStatusConfirmed {
		r.send(ctx, appointment.UserID, "✅ Ваша запись на "+appointment.Date+" в "+appointment.Time+" подтверждена!")
		r.state.LogAction("appointment_confirmed", fmt.Sprintf("admin %d confirmed appointment %s", user.ID, id))
	} else {
		r.send(ctx, appointment.UserID, "😔 К сожалению, запись на "+appointment.Date+" в "+appointment.Time+" отклонена. Свяжитесь с мастером для выбора другого времени.")
		r.state.LogAction("appointment_declined", fmt.Sprintf("admin %d declined appointment %s", user.ID, id))
	}
	r.showAppointments(ctx, user, messageID)
}

// editOrSend rewrites the panel message in place when possible, otherwise
// sends a fresh one.
func (r *Router) editOrSend(ctx context.Context, chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if messageID == 0 {
		r.sendWithKeyboard(ctx, chatID, text, kb)
		return
	}
	if err := r.bot.EditMessageWithKeyboard(ctx, chatID, messageID, text, kb); err != nil {
		r.logger.Debug("edit failed, sending fresh message", zap.Error(err))
		r.sendWithKeyboard(ctx, chatID, text, kb)
	}
}
