package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"screenfix/internal/config"
	"screenfix/internal/crm"
	"screenfix/internal/http/handlers"
	applog "screenfix/internal/log"
	"screenfix/internal/repos"
)

// chatLogNotifier is the default outbound delivery: it only logs. A real
// deployment swaps in the conversational transport's sender.
type chatLogNotifier struct{}

func (chatLogNotifier) Notify(chatID int64, text string) error {
	log.Printf("[notify] chat=%d %q", chatID, text)
	return nil
}

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	crmClient := crm.New(cfg.CRMBaseURL, cfg.CRMToken)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			if code >= fiber.StatusInternalServerError {
				applog.Error(c, "server.error", err, nil)
				return c.Status(code).JSON(fiber.Map{"error": "something went wrong, please try again"})
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, crmClient, crmClient, chatLogNotifier{})

	api := app.Group("/api/v1")

	// Cart & add-on dialog
	api.Get("/cart", deps.CartHandler.View)
	api.Post("/cart", deps.CartHandler.Add)
	api.Post("/cart/increment", deps.CartHandler.Increment)
	api.Post("/cart/decrement", deps.CartHandler.Decrement)
	api.Post("/cart/assembly", deps.CartHandler.AnswerAssembly)

	// Checkout turns
	api.Post("/checkout", deps.CheckoutHandler.Start)
	api.Post("/checkout/phone/confirm", deps.CheckoutHandler.ConfirmPhone)
	api.Post("/checkout/phone", deps.CheckoutHandler.SubmitPhone)

	// Orders
	api.Get("/orders", deps.OrderHandler.History)
	api.Get("/orders/unsynced", deps.OrderHandler.Unsynced)

	// Inbound CRM comments (throttled separately)
	app.Post("/crm/webhook", limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
	}), deps.WebhookHandler.Receive)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
