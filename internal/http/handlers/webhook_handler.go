package handlers

import (
	"database/sql"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "screenfix/internal/log"
	"screenfix/internal/repos"
	"screenfix/internal/validate"
)

type WebhookHandler struct {
	Orders   *repos.OrderRepo
	Notifier Notifier
}

type crmWebhookRequest struct {
	TaskID  string `json:"task_id"`
	Comment string `json:"comment"`
}

var reTag = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return strings.TrimSpace(reTag.ReplaceAllString(s, ""))
}

// Receive routes an inbound CRM comment back to the owning customer. The
// remote task reference on orders/items is the join key; an unknown
// reference is acknowledged and dropped so the CRM does not retry forever.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var req crmWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad request body"})
	}
	taskRef, ok := validate.ID(req.TaskID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad task_id"})
	}

	comment := stripTags(req.Comment)
	if comment == "" {
		applog.Info(c, "webhook.empty_comment", map[string]any{"task_ref": taskRef})
		return c.JSON(fiber.Map{"status": "skipped"})
	}

	chatID, err := h.Orders.CustomerChatByRemoteRef(taskRef)
	if err == sql.ErrNoRows {
		applog.Warn(c, "webhook.unknown_ref", map[string]any{"task_ref": taskRef})
		return c.JSON(fiber.Map{"status": "skipped"})
	}
	if err != nil {
		applog.Error(c, "webhook.lookup", err, map[string]any{"task_ref": taskRef})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup failed"})
	}

	if err := h.Notifier.Notify(chatID, comment); err != nil {
		applog.Error(c, "webhook.notify", err, map[string]any{"chat_id": chatID, "task_ref": taskRef})
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "delivery failed"})
	}
	applog.Info(c, "webhook.relayed", map[string]any{"chat_id": chatID, "task_ref": taskRef})
	return c.JSON(fiber.Map{"status": "success"})
}
