package handlers

import (
	"github.com/gofiber/fiber/v2"

	"screenfix/internal/domain"
	applog "screenfix/internal/log"
	"screenfix/internal/repos"
	"screenfix/internal/services"
)

type CartHandler struct {
	Cart      *services.CartService
	Assembly  *services.AssemblyService
	Customers *repos.CustomerRepo
}

type addItemRequest struct {
	chatIdentity
	ProductID        int64  `json:"product_id"`
	ProductName      string `json:"product_name"`
	TaskRef          int64  `json:"task_ref"`
	Operation        int    `json:"operation"`
	Quantity         int    `json:"quantity"`
	Price            int64  `json:"price"`
	TouchOrBacklight bool   `json:"touch_or_backlight"`
	PhotosJSON       string `json:"photos_json"`
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad request body"})
	}
	customerID, err := resolveCustomer(c, h.Customers, req.chatIdentity)
	if err != nil {
		return err
	}

	res, err := h.Cart.Add(c.Context(), domain.CartItem{
		CustomerID:       customerID,
		ProductID:        req.ProductID,
		ProductName:      req.ProductName,
		TaskRef:          req.TaskRef,
		Operation:        req.Operation,
		Quantity:         req.Quantity,
		Price:            req.Price,
		TouchOrBacklight: req.TouchOrBacklight,
		PhotosJSON:       req.PhotosJSON,
	})
	if err == services.ErrUnknownOperation {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown operation"})
	}
	if err != nil {
		applog.Error(c, "cart.add", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not add to cart"})
	}
	applog.Info(c, "cart.add", map[string]any{"item_id": res.ItemID, "operation": req.Operation})
	return c.JSON(res)
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	var id chatIdentity
	if err := c.BodyParser(&id); err != nil && c.QueryInt("chat_id") == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad request body"})
	}
	if id.ChatID == 0 {
		id.ChatID = int64(c.QueryInt("chat_id"))
	}
	customerID, err := resolveCustomer(c, h.Customers, id)
	if err != nil {
		return err
	}
	view, err := h.Cart.View(customerID)
	if err != nil {
		applog.Error(c, "cart.view", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load cart"})
	}
	return c.JSON(view)
}

type quantityRequest struct {
	chatIdentity
	ProductID int64 `json:"product_id"`
	Operation int   `json:"operation"`
}

func (h *CartHandler) Increment(c *fiber.Ctx) error { return h.changeQuantity(c, true) }
func (h *CartHandler) Decrement(c *fiber.Ctx) error { return h.changeQuantity(c, false) }

func (h *CartHandler) changeQuantity(c *fiber.Ctx, up bool) error {
	var req quantityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad request body"})
	}
	customerID, err := resolveCustomer(c, h.Customers, req.chatIdentity)
	if err != nil {
		return err
	}

	var touched bool
	if up {
		touched, err = h.Cart.IncrementQuantity(customerID, req.ProductID, req.Operation)
	} else {
		touched, err = h.Cart.DecrementQuantity(customerID, req.ProductID, req.Operation)
	}
	if err != nil {
		applog.Error(c, "cart.quantity", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not change quantity"})
	}
	if !touched {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "item not in cart"})
	}
	view, err := h.Cart.View(customerID)
	if err != nil {
		applog.Error(c, "cart.view", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load cart"})
	}
	return c.JSON(view)
}

type assemblyRequest struct {
	chatIdentity
	Confirm bool `json:"confirm"`
}

// AnswerAssembly closes the add-on confirmation sub-dialog.
func (h *CartHandler) AnswerAssembly(c *fiber.Ctx) error {
	var req assemblyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad request body"})
	}
	customerID, err := resolveCustomer(c, h.Customers, req.chatIdentity)
	if err != nil {
		return err
	}
	ans, err := h.Assembly.Answer(customerID, req.Confirm)
	if err == services.ErrNoOpenDialog {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no confirmation pending"})
	}
	if err != nil {
		applog.Error(c, "cart.assembly", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not record answer"})
	}
	applog.Info(c, "cart.assembly", map[string]any{"item_id": ans.CartItemID, "confirmed": ans.Confirmed})
	return c.JSON(ans)
}
