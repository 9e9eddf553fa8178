package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aftercare-bot/internal/service"
	"github.com/spec-kit/aftercare-bot/pkg/util"
)

// ExportHandler serves the token-gated backup download.
type ExportHandler struct {
	backup *service.BackupService
}

// NewExportHandler returns a new handler instance.
func NewExportHandler(backup *service.BackupService) *ExportHandler {
	return &ExportHandler{backup: backup}
}

// Download streams the JSON backup document. The token is issued from the
// admin panel and expires after a short TTL.
func (h *ExportHandler) Download(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return util.NewUnauthorized("token is required")
	}
	if err := h.backup.ValidateToken(token); err != nil {
		return util.NewUnauthorized("invalid or expired token")
	}

	data, err := h.backup.Build(c.UserContext())
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition,
		`attachment; filename="backup-`+time.Now().Format("2006-01-02")+`.json"`)
	return c.Send(data)
}
