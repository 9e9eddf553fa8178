package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/appstate"
	"github.com/spec-kit/aftercare-bot/internal/domain"
	"github.com/spec-kit/aftercare-bot/pkg/util"
)

const cancelKeyword = "отмена"

const tattooDateLayout = "02.01.2006"

// Conversation interprets plain-text messages against the sender's stage.
// Each recognized awaiting stage maps to exactly one handler; anything else
// falls through to the generic help reply.
type Conversation struct {
	users        *UserService
	questions    *QuestionService
	appointments *AppointmentService
	broadcasts   *BroadcastService
	access       *AccessService
	state        *appstate.State
	sender       Sender
	logger       *zap.Logger
}

// ConversationDependencies bundles inputs for the conversation service.
type ConversationDependencies struct {
	Users        *UserService
	Questions    *QuestionService
	Appointments *AppointmentService
	Broadcasts   *BroadcastService
	Access       *AccessService
	State        *appstate.State
	Sender       Sender
	Logger       *zap.Logger
}

// NewConversation constructs the state machine.
func NewConversation(deps ConversationDependencies) *Conversation {
	return &Conversation{
		users:        deps.Users,
		questions:    deps.Questions,
		appointments: deps.Appointments,
		broadcasts:   deps.Broadcasts,
		access:       deps.Access,
		state:        deps.State,
		sender:       deps.Sender,
		logger:       deps.Logger,
	}
}

type textHandler func(ctx context.Context, user *domain.User, text string) error

// handlerFor is the explicit transition table: stage -> handler. Stages not
// listed here treat text as unrecognized free input.
func (c *Conversation) handlerFor(stage domain.Stage) textHandler {
	switch stage {
	case domain.StageAwaitingTattooDate:
		return c.handleTattooDate
	case domain.StageAwaitingQuestion:
		return c.handleQuestion
	case domain.StageAwaitingBroadcastText:
		return c.broadcastHandler(domain.AudienceAll)
	case domain.StageAwaitingBroadcastTattooText:
		return c.broadcastHandler(domain.AudienceWithDate)
	case domain.StageAwaitingBroadcastQuestionsText:
		return c.broadcastHandler(domain.AudienceWithQuestions)
	case domain.StageAwaitingBroadcastActiveText:
		return c.broadcastHandler(domain.AudienceActiveWeek)
	case domain.StageAwaitingAdminID:
		return c.handleAdminID
	case domain.StageAwaitingTemplate:
		return c.handleTemplate
	case domain.StageAwaitingCategoryAdd:
		return c.handleCategoryAdd
	case domain.StageAwaitingAppointmentDate:
		return c.wizardStep(c.appointments.SubmitDate, "🕐 Теперь укажите время в формате ЧЧ:ММ, например 14:30.")
	case domain.StageAwaitingAppointmentTime:
		return c.wizardStep(c.appointments.SubmitTime, "💬 Добавьте комментарий к записи или отправьте «-», чтобы пропустить.")
	case domain.StageAwaitingAppointmentComment:
		return c.wizardStep(c.appointments.SubmitComment, "📞 Оставьте контакт для связи (телефон или @username).")
	case domain.StageAwaitingAppointmentContact:
		return c.handleAppointmentContact
	}
	return nil
}

// HandleText routes one plain-text message. Side effects are at most one
// user-record write and at most one reply; broadcast stages additionally
// hand off to the broadcast engine.
func (c *Conversation) HandleText(ctx context.Context, user *domain.User, text string) error {
	trimmed := strings.TrimSpace(text)

	if user.Stage.IsAwaiting() && strings.EqualFold(trimmed, cancelKeyword) {
		return c.handleCancel(ctx, user)
	}

	handler := c.handlerFor(user.Stage)
	if handler == nil {
		c.reply(ctx, user.ID, "🤔 Я не понял сообщение. Откройте меню командой /start или задайте вопрос через «Задать вопрос».")
		return nil
	}
	return handler(ctx, user, trimmed)
}

func (c *Conversation) handleCancel(ctx context.Context, user *domain.User) error {
	if user.Stage.IsAppointment() {
		if err := c.appointments.Cancel(ctx, user); err != nil {
			return err
		}
	} else {
		if err := c.users.SetStage(ctx, user, domain.StageMainMenu); err != nil {
			return err
		}
	}
	c.reply(ctx, user.ID, "❎ Действие отменено. Вы в главном меню.")
	return nil
}

func (c *Conversation) handleTattooDate(ctx context.Context, user *domain.User, text string) error {
	date, ok := parseTattooDate(text)
	if !ok {
		c.reply(ctx, user.ID, "📅 Не удалось распознать дату. Отправьте её в формате ДД.ММ.ГГГГ, либо напишите «сегодня» или «вчера».")
		return nil
	}
	if err := c.users.SetTattooDate(ctx, user, date); err != nil {
		return err
	}
	c.reply(ctx, user.ID, "✅ Дата сеанса сохранена: "+date.Format(tattooDateLayout)+". Теперь я буду подсказывать уход по дням заживления.")
	return nil
}

func (c *Conversation) handleQuestion(ctx context.Context, user *domain.User, text string) error {
	if text == "" {
		c.reply(ctx, user.ID, "✍️ Напишите вопрос текстом или отправьте «отмена».")
		return nil
	}
	if err := c.questions.Submit(ctx, user, text); err != nil {
		return err
	}
	c.reply(ctx, user.ID, "📨 Вопрос принят! Мастер ответит в ближайшее время. Посмотреть свои вопросы: /myquestions")
	return nil
}

func (c *Conversation) broadcastHandler(audience domain.Audience) textHandler {
	return func(ctx context.Context, user *domain.User, text string) error {
		if text == "" {
			c.reply(ctx, user.ID, "✍️ Отправьте текст рассылки или «отмена».")
			return nil
		}
		if err := c.users.SetStage(ctx, user, domain.StageMainMenu); err != nil {
			return err
		}
		err := c.broadcasts.Start(ctx, user.ID, audience, text)
		switch {
		case err == nil:
			// Progress is reported by the engine's status message.
		case util.IsCode(err, "CONFLICT"):
			c.reply(ctx, user.ID, "⚠️ Рассылка уже выполняется. Дождитесь её завершения или остановите текущую.")
		case util.IsCode(err, "VALIDATION_FAILED"):
			// Empty audience: diagnostic already sent by the engine.
		default:
			return err
		}
		return nil
	}
}

func (c *Conversation) handleAdminID(ctx context.Context, user *domain.User, text string) error {
	targetID, err := strconv.ParseInt(text, 10, 64)
	if err != nil || targetID <= 0 {
		c.reply(ctx, user.ID, "🔢 Нужен числовой Telegram ID пользователя. Попробуйте ещё раз или отправьте «отмена».")
		return nil
	}
	if err := c.users.SetStage(ctx, user, domain.StageMainMenu); err != nil {
		return err
	}
	entry, err := c.access.Add(ctx, user.ID, targetID)
	switch {
	case err == nil:
		c.reply(ctx, user.ID, "✅ Администратор добавлен: "+entry.Name+" (ID "+strconv.FormatInt(entry.ID, 10)+"). Выданы базовые права.")
	case util.IsCode(err, "NOT_FOUND"):
		c.reply(ctx, user.ID, "🔍 Пользователь с таким ID не найден. Он должен сначала написать боту.")
	case util.IsCode(err, "CONFLICT"):
		c.reply(ctx, user.ID, "⚠️ "+util.ToDomainError(err).Message)
	case util.IsCode(err, "FORBIDDEN"):
		c.reply(ctx, user.ID, "⛔ Недостаточно прав для управления администраторами.")
	default:
		return err
	}
	return nil
}

func (c *Conversation) handleTemplate(ctx context.Context, user *domain.User, text string) error {
	template, err := appstate.ParseTemplate(text)
	if err != nil {
		// Re-prompt without leaving the stage.
		c.reply(ctx, user.ID, "📝 Шаблон должен содержать минимум «Заголовок:» и «Текст:». Пример:\n\nЗаголовок: Уход в первый день\nКатегория: Уход после сеанса\nТеги: уход, день1\nТекст: Промойте тату тёплой водой...")
		return nil
	}
	if err := c.users.SetStage(ctx, user, domain.StageMainMenu); err != nil {
		return err
	}
	c.state.Templates.Add(template)
	c.state.LogAction("template_added", "admin "+strconv.FormatInt(user.ID, 10)+" added template "+template.Title)
	c.reply(ctx, user.ID, "✅ Шаблон «"+template.Title+"» сохранён.")
	return nil
}

func (c *Conversation) handleCategoryAdd(ctx context.Context, user *domain.User, text string) error {
	switch err := c.state.Categories.Add(text); err {
	case nil:
		if err := c.users.SetStage(ctx, user, domain.StageMainMenu); err != nil {
			return err
		}
		c.reply(ctx, user.ID, "✅ Категория «"+strings.TrimSpace(text)+"» добавлена.")
	case appstate.ErrEmptyCategory:
		c.reply(ctx, user.ID, "✍️ Название категории не может быть пустым. Попробуйте ещё раз или отправьте «отмена».")
	case appstate.ErrDuplicateCategory:
		c.reply(ctx, user.ID, "⚠️ Такая категория уже есть. Введите другое название или отправьте «отмена».")
	default:
		return err
	}
	return nil
}

// wizardStep wraps an appointment submit method: validation errors re-prompt
// the same step, success advances and sends the next prompt.
func (c *Conversation) wizardStep(submit func(context.Context, *domain.User, string) error, nextPrompt string) textHandler {
	return func(ctx context.Context, user *domain.User, text string) error {
		err := submit(ctx, user, text)
		switch {
		case err == nil:
			c.reply(ctx, user.ID, nextPrompt)
		case util.IsCode(err, "VALIDATION_FAILED"):
			c.reply(ctx, user.ID, "⚠️ "+wizardFormatHint(user.Stage))
		case util.IsCode(err, "CONFLICT"):
			c.reply(ctx, user.ID, "❌ Данные записи потерялись, начните запись заново через меню.")
		default:
			return err
		}
		return nil
	}
}

func (c *Conversation) handleAppointmentContact(ctx context.Context, user *domain.User, text string) error {
	appointment, err := c.appointments.SubmitContact(ctx, user, text)
	switch {
	case err == nil:
		c.reply(ctx, user.ID,
			"🎉 Запись оформлена!\n\n📅 "+appointment.Date+" в "+appointment.Time+
				"\n📞 Контакт: "+appointment.Contact+
				"\n\nМастер свяжется с вами для подтверждения.")
	case util.IsCode(err, "VALIDATION_FAILED"):
		c.reply(ctx, user.ID, "📞 Контакт не может быть пустым. Укажите телефон или @username.")
	case util.IsCode(err, "CONFLICT"):
		c.reply(ctx, user.ID, "❌ Данные записи потерялись, начните запись заново через меню.")
	default:
		return err
	}
	return nil
}

func wizardFormatHint(stage domain.Stage) string {
	switch stage {
	case domain.StageAwaitingAppointmentDate:
		return "Дата должна быть в формате ДД.ММ.ГГГГ, например 05.09.2026."
	case domain.StageAwaitingAppointmentTime:
		return "Время должно быть в формате ЧЧ:ММ, например 14:30."
	}
	return "Проверьте формат и попробуйте ещё раз."
}

// reply sends a response best-effort; a failed reply never fails the update.
func (c *Conversation) reply(ctx context.Context, chatID int64, text string) {
	if _, err := c.sender.SendMessage(ctx, chatID, text); err != nil {
		c.logger.Warn("reply failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// parseTattooDate accepts DD.MM.YYYY plus the relative presets offered as
// quick-reply buttons during onboarding.
func parseTattooDate(text string) (time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch text {
	case "сегодня":
		return today, true
	case "вчера":
		return today.AddDate(0, 0, -1), true
	case "неделю назад":
		return today.AddDate(0, 0, -7), true
	}
	date, err := time.Parse(tattooDateLayout, text)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
