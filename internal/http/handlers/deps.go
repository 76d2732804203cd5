package handlers

import (
	"github.com/jmoiron/sqlx"

	"screenfix/internal/config"
	"screenfix/internal/dialog"
	"screenfix/internal/repos"
	"screenfix/internal/services"
)

// Notifier delivers a text back to a customer's chat. The conversational
// transport implements it; the core only routes.
type Notifier interface {
	Notify(chatID int64, text string) error
}

type Deps struct {
	CartHandler     *CartHandler
	CheckoutHandler *CheckoutHandler
	OrderHandler    *OrderHandler
	WebhookHandler  *WebhookHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, crm services.SyncClient, catalog services.CatalogClient, notifier Notifier) *Deps {
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	customerRepo := repos.NewCustomerRepo(db)
	dialogs := dialog.NewStore(0)

	catalogSvc := services.NewCatalogService(catalog)
	cartSvc := services.NewCartService(cartRepo, catalogSvc, dialogs)
	assemblySvc := services.NewAssemblyService(cartRepo, dialogs)
	checkoutSvc := services.NewCheckoutService(cartRepo, orderRepo, customerRepo, dialogs, crm, cfg.SyncWorkers)
	orderSvc := services.NewOrderService(orderRepo)

	return &Deps{
		CartHandler:     &CartHandler{Cart: cartSvc, Assembly: assemblySvc, Customers: customerRepo},
		CheckoutHandler: &CheckoutHandler{Checkout: checkoutSvc, Customers: customerRepo},
		OrderHandler:    &OrderHandler{Orders: orderSvc, Customers: customerRepo},
		WebhookHandler:  &WebhookHandler{Orders: orderRepo, Notifier: notifier},
	}
}
