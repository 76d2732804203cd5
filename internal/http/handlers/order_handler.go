package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "screenfix/internal/log"
	"screenfix/internal/repos"
	"screenfix/internal/services"
)

type OrderHandler struct {
	Orders    *services.OrderService
	Customers *repos.CustomerRepo
}

// History lists the customer's orders with current status and composition.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	id := chatIdentity{ChatID: int64(c.QueryInt("chat_id"))}
	customerID, err := resolveCustomer(c, h.Customers, id)
	if err != nil {
		return err
	}
	views, err := h.Orders.History(customerID)
	if err != nil {
		applog.Error(c, "orders.history", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load orders"})
	}
	return c.JSON(fiber.Map{"orders": views})
}

// Unsynced exposes the reconciliation work queue to operators.
func (h *OrderHandler) Unsynced(c *fiber.Ctx) error {
	items, err := h.Orders.UnsyncedItems(c.QueryInt("limit", 100))
	if err != nil {
		applog.Error(c, "orders.unsynced", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load work queue"})
	}
	return c.JSON(fiber.Map{"items": items})
}
