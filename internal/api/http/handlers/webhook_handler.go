package handlers

import (
	"context"
	"encoding/json"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/aftercare-bot/internal/telegram"
	"github.com/spec-kit/aftercare-bot/pkg/util"
)

// WebhookHandler feeds platform webhook deliveries into the same update
// pipeline the long-polling loop uses.
type WebhookHandler struct {
	router *telegram.Router
	logger *zap.Logger
}

// NewWebhookHandler returns a new handler instance.
func NewWebhookHandler(router *telegram.Router, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{router: router, logger: logger}
}

// Receive accepts one update. The update is processed asynchronously so the
// platform gets its 200 before any slow handler work.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		h.logger.Warn("malformed webhook payload", zap.Error(err))
		return util.NewValidationError("malformed update payload", nil)
	}
	go h.router.HandleUpdate(context.Background(), update)
	return c.SendStatus(fiber.StatusOK)
}
