package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "screenfix/internal/log"
	"screenfix/internal/repos"
	"screenfix/internal/services"
)

type CheckoutHandler struct {
	Checkout  *services.CheckoutService
	Customers *repos.CustomerRepo
}

// Start begins the checkout dialog for the customer's cart.
func (h *CheckoutHandler) Start(c *fiber.Ctx) error {
	var id chatIdentity
	if err := c.BodyParser(&id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad request body"})
	}
	customerID, err := resolveCustomer(c, h.Customers, id)
	if err != nil {
		return err
	}
	step, err := h.Checkout.Checkout(c.Context(), customerID)
	if err != nil {
		applog.Error(c, "checkout.start", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not start checkout"})
	}
	return c.JSON(step)
}

type phoneConfirmRequest struct {
	chatIdentity
	Confirm bool `json:"confirm"`
}

// ConfirmPhone handles the Yes/No answer about the stored phone number.
func (h *CheckoutHandler) ConfirmPhone(c *fiber.Ctx) error {
	var req phoneConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad request body"})
	}
	customerID, err := resolveCustomer(c, h.Customers, req.chatIdentity)
	if err != nil {
		return err
	}
	step, err := h.Checkout.ConfirmPhone(c.Context(), customerID, req.Confirm)
	if err == services.ErrNoOpenDialog {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no checkout in progress"})
	}
	if err != nil {
		applog.Error(c, "checkout.confirm_phone", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not place order, please retry"})
	}
	return c.JSON(step)
}

type phoneSubmitRequest struct {
	chatIdentity
	Phone string `json:"phone"`
}

// SubmitPhone handles manual phone entry; a malformed number yields a
// need_phone re-prompt rather than an error.
func (h *CheckoutHandler) SubmitPhone(c *fiber.Ctx) error {
	var req phoneSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad request body"})
	}
	customerID, err := resolveCustomer(c, h.Customers, req.chatIdentity)
	if err != nil {
		return err
	}
	step, err := h.Checkout.SubmitPhone(c.Context(), customerID, req.Phone)
	if err == services.ErrNoOpenDialog {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no checkout in progress"})
	}
	if err != nil {
		applog.Error(c, "checkout.submit_phone", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not place order, please retry"})
	}
	return c.JSON(step)
}
