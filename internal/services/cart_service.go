package services

import (
	"context"
	"errors"
	"fmt"

	"screenfix/internal/dialog"
	"screenfix/internal/domain"
	applog "screenfix/internal/log"
	"screenfix/internal/repos"
)

var ErrUnknownOperation = errors.New("unknown operation kind")

type CartService struct {
	Carts   *repos.CartRepo
	Catalog *CatalogService
	Dialogs *dialog.Store
}

func NewCartService(carts *repos.CartRepo, catalog *CatalogService, dialogs *dialog.Store) *CartService {
	return &CartService{Carts: carts, Catalog: catalog, Dialogs: dialogs}
}

// AssemblyOffer is the opened add-on sub-dialog: the customer is being asked
// whether to bundle disassembly/assembly for Price.
type AssemblyOffer struct {
	CartItemID int64 `json:"cart_item_id"`
	Price      int64 `json:"price"`
}

type AddResult struct {
	ItemID int64          `json:"item_id"`
	Offer  *AssemblyOffer `json:"assembly_offer,omitempty"`
}

// Add stages a line and, for operation kinds that support the add-on, opens
// the assembly confirmation sub-dialog. A failed add-on price lookup defaults
// the offer to 0 and is logged; it never blocks cart insertion.
func (s *CartService) Add(ctx context.Context, item domain.CartItem) (AddResult, error) {
	op := domain.Operation(item.Operation)
	if !op.Valid() {
		return AddResult{}, ErrUnknownOperation
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	itemID, err := s.Carts.Add(item)
	if err != nil {
		return AddResult{}, fmt.Errorf("add cart item: %w", err)
	}
	res := AddResult{ItemID: itemID}

	if !op.SupportsAssembly() {
		return res, nil
	}

	price, err := s.Catalog.AssemblyPrice(ctx, item.ProductID)
	if err != nil {
		applog.Warn(nil, "cart.assembly_price.unresolved", map[string]any{
			"customer_id": item.CustomerID, "product_id": item.ProductID, "err": err.Error(),
		})
		price = 0
	}
	s.Dialogs.Put(item.CustomerID, domain.DialogState{
		Step:          domain.StepConfirmAssembly,
		CartItemID:    itemID,
		AssemblyPrice: price,
	})
	res.Offer = &AssemblyOffer{CartItemID: itemID, Price: price}
	return res, nil
}

func (s *CartService) IncrementQuantity(customerID, productID int64, operation int) (bool, error) {
	return s.Carts.IncrementQuantity(customerID, productID, operation)
}

func (s *CartService) DecrementQuantity(customerID, productID int64, operation int) (bool, error) {
	return s.Carts.DecrementQuantity(customerID, productID, operation)
}

type CartView struct {
	Items []domain.CartItem `json:"items"`
	Total int64             `json:"total"`
}

func (s *CartService) View(customerID int64) (CartView, error) {
	items, err := s.Carts.FindAll(customerID)
	if err != nil {
		return CartView{}, err
	}
	var total int64
	for _, it := range items {
		total += it.Subtotal()
	}
	return CartView{Items: items, Total: total}, nil
}

func (s *CartService) Remove(id, customerID int64) error {
	return s.Carts.Remove(id, customerID)
}
