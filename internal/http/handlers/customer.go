package handlers

import (
	"github.com/gofiber/fiber/v2"

	"screenfix/internal/domain"
	"screenfix/internal/repos"
)

// chatIdentity is the front-end transport's view of the customer, carried on
// every event body.
type chatIdentity struct {
	ChatID    int64  `json:"chat_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// resolveCustomer upserts the chat identity and returns the local customer
// id, stashing it in locals for the logger.
func resolveCustomer(c *fiber.Ctx, customers *repos.CustomerRepo, id chatIdentity) (int64, error) {
	if id.ChatID == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "missing chat_id")
	}
	customerID, err := customers.Upsert(domain.Customer{
		ChatID:    id.ChatID,
		Username:  id.Username,
		FirstName: id.FirstName,
		LastName:  id.LastName,
	})
	if err != nil {
		return 0, err
	}
	c.Locals("customer_id", customerID)
	return customerID, nil
}
