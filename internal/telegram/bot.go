package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/domain"
)

// Bot wraps the Telegram client. It implements service.Sender so the
// engine and state machine never touch the API types directly.
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

// New authorizes the bot with the platform.
func New(token string, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	logger.Info("telegram bot authorized", zap.String("username", api.Self.UserName))
	return &Bot{api: api, logger: logger}, nil
}

// Username returns the authorized bot account name.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// UpdatesChan opens the long-polling update channel.
func (b *Bot) UpdatesChan(timeoutSeconds int) tgbotapi.UpdatesChannel {
	cfg := tgbotapi.NewUpdate(0)
	if timeoutSeconds > 0 {
		cfg.Timeout = timeoutSeconds
	}
	return b.api.GetUpdatesChan(cfg)
}

// SendMessage delivers HTML-formatted text and returns the message id.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, mapSendError(err)
	}
	return sent.MessageID, nil
}

// SendMessageWithKeyboard delivers text with an inline keyboard attached.
func (b *Bot) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, mapSendError(err)
	}
	return sent.MessageID, nil
}

// EditMessage rewrites a previously sent message in place.
func (b *Bot) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(edit)
	return mapSendError(err)
}

// EditMessageWithKeyboard rewrites a message and its inline keyboard.
func (b *Bot) EditMessageWithKeyboard(ctx context.Context, chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(edit)
	return mapSendError(err)
}

// AnswerCallback acknowledges a button press.
func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	_, err := b.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// SendDocument uploads an in-memory file to the chat.
func (b *Bot) SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	_, err := b.api.Send(doc)
	return mapSendError(err)
}

// mapSendError normalizes the platform "bot was blocked" failure so the
// broadcast engine can prune the record.
func mapSendError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 403 || strings.Contains(apiErr.Message, "blocked") {
			return domain.ErrRecipientBlocked
		}
	}
	return err
}
