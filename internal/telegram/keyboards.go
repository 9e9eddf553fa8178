package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/spec-kit/aftercare-bot/internal/appstate"
	"github.com/spec-kit/aftercare-bot/internal/domain"
)

// Callback payload identifiers. Parametrized payloads embed the parameter
// after the prefix, e.g. admin_users_page_2.
const (
	cbCareDay1     = "care_day1"
	cbCareWeek1    = "care_week1"
	cbCareLongTerm = "care_longterm"
	cbFAQ          = "faq"
	cbAskQuestion  = "ask_question"
	cbBook         = "book"
	cbBookKind     = "book_kind_" // + consultation|tattoo
	cbMainMenu     = "main_menu"
	cbSetDate      = "set_date"
	cbDateToday    = "date_today"
	cbDateYesterday = "date_yesterday"

	cbAdminPanel       = "admin_panel"
	cbAdminUsersPage   = "admin_users_page_" // + page number
	cbAdminBroadcast   = "admin_broadcast"
	cbAdminBroadcastTo = "admin_broadcast_" // + audience
	cbAdminCancelBcast = "admin_broadcast_cancel"
	cbAdminAnalytics   = "admin_analytics"
	cbChartUsers       = "chart_users_" // + period days
	cbAdminLogs        = "admin_logs"
	cbAdminActionLog   = "admin_actionlog"
	cbAdminAccess      = "admin_access"
	cbAdminAccessAdd   = "admin_access_add"
	cbAdminAccessRemove = "admin_access_remove_" // + admin id
	cbAdminAccessToggle = "admin_access_toggle_" // + id_perm
	cbAdminAccessGrant  = "admin_access_grantall_"  // + admin id
	cbAdminAccessRevoke = "admin_access_revokeall_" // + admin id
	cbAdminTemplates   = "admin_templates"
	cbAdminTemplateAdd = "admin_template_add"
	cbAdminCategoryAdd = "admin_category_add"
	cbAdminSettings    = "admin_settings"
	cbToggleNotify     = "admin_settings_notify"
	cbToggleQuiet      = "admin_settings_quiet"
	cbAdminBackup      = "admin_backup"
	cbAdminAppointments = "admin_appointments"
	cbApptConfirm       = "admin_appt_confirm_" // + appointment id
	cbApptDecline       = "admin_appt_decline_" // + appointment id
)

func mainMenuKeyboard(isAdmin bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("🩹 Первые 24 часа", cbCareDay1),
			tgbotapi.NewInlineKeyboardButtonData("🧴 Первая неделя", cbCareWeek1),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("☀️ Долгосрочный уход", cbCareLongTerm),
			tgbotapi.NewInlineKeyboardButtonData("❓ Частые вопросы", cbFAQ),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("✍️ Задать вопрос", cbAskQuestion),
			tgbotapi.NewInlineKeyboardButtonData("📅 Записаться", cbBook),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("🗓 Изменить дату тату", cbSetDate),
		},
	}
	if isAdmin {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🛠 Панель администратора", cbAdminPanel),
		})
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func datePresetKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Сегодня", cbDateToday),
			tgbotapi.NewInlineKeyboardButtonData("Вчера", cbDateYesterday),
		),
	)
}

func backToMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ В меню", cbMainMenu),
		),
	)
}

func bookKindKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Консультация", cbBookKind+string(domain.AppointmentConsultation)),
			tgbotapi.NewInlineKeyboardButtonData("🖋 Сеанс тату", cbBookKind+string(domain.AppointmentTattoo)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ В меню", cbMainMenu),
		),
	)
}

func adminPanelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Пользователи", cbAdminUsersPage+"0"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Аналитика", cbAdminAnalytics),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📨 Рассылка", cbAdminBroadcast),
			tgbotapi.NewInlineKeyboardButtonData("📅 Записи", cbAdminAppointments),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛡 Доступы", cbAdminAccess),
			tgbotapi.NewInlineKeyboardButtonData("📝 Шаблоны", cbAdminTemplates),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Логи", cbAdminLogs),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Настройки", cbAdminSettings),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 Резервная копия", cbAdminBackup),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ В меню", cbMainMenu),
		),
	)
}

func broadcastMenuKeyboard(active bool) tgbotapi.InlineKeyboardMarkup {
	if active {
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⏹ Остановить рассылку", cbAdminCancelBcast),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbAdminPanel),
			),
		)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Всем", cbAdminBroadcastTo+string(domain.AudienceAll)),
			tgbotapi.NewInlineKeyboardButtonData("С датой тату", cbAdminBroadcastTo+string(domain.AudienceWithDate)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("С вопросами", cbAdminBroadcastTo+string(domain.AudienceWithQuestions)),
			tgbotapi.NewInlineKeyboardButtonData("Активным за 7 дн.", cbAdminBroadcastTo+string(domain.AudienceActiveWeek)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbAdminPanel),
		),
	)
}

func usersPageKeyboard(page int, hasNext bool) tgbotapi.InlineKeyboardMarkup {
	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", cbAdminUsersPage+strconv.Itoa(page-1)))
	}
	if hasNext {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", cbAdminUsersPage+strconv.Itoa(page+1)))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbAdminPanel),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func analyticsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("7 дней", cbChartUsers+"7"),
			tgbotapi.NewInlineKeyboardButtonData("30 дней", cbChartUsers+"30"),
			tgbotapi.NewInlineKeyboardButtonData("90 дней", cbChartUsers+"90"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbAdminPanel),
		),
	)
}

func accessKeyboard(roster []appstate.AdminEntry, mainAdminID int64) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, entry := range roster {
		if entry.ID == mainAdminID {
			continue
		}
		id := strconv.FormatInt(entry.ID, 10)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("❌ %s", entry.Name), cbAdminAccessRemove+id),
			tgbotapi.NewInlineKeyboardButtonData("✅ Все права", cbAdminAccessGrant+id),
			tgbotapi.NewInlineKeyboardButtonData("🚫 Без прав", cbAdminAccessRevoke+id),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить администратора", cbAdminAccessAdd),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbAdminPanel),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func templatesKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Новый шаблон", cbAdminTemplateAdd),
			tgbotapi.NewInlineKeyboardButtonData("➕ Новая категория", cbAdminCategoryAdd),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbAdminPanel),
		),
	)
}

func appointmentsKeyboard(pending []domain.Appointment) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, a := range pending {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ "+a.Date+" "+a.Time, cbApptConfirm+a.ID),
			tgbotapi.NewInlineKeyboardButtonData("❌", cbApptDecline+a.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbAdminPanel),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func logsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Системный лог", cbAdminLogs),
			tgbotapi.NewInlineKeyboardButtonData("🗂 Лог действий", cbAdminActionLog),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbAdminPanel),
		),
	)
}

func settingsKeyboard(n appstate.NotificationSettings) tgbotapi.InlineKeyboardMarkup {
	notifyLabel := "🔔 Уведомления: вкл"
	if !n.Enabled {
		notifyLabel = "🔕 Уведомления: выкл"
	}
	quietLabel := "🌙 Тихий режим: выкл"
	if n.QuietMode {
		quietLabel = "🌙 Тихий режим: вкл"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(notifyLabel, cbToggleNotify),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(quietLabel, cbToggleQuiet),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbAdminPanel),
		),
	)
}
