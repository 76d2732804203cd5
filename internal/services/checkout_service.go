package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"screenfix/internal/dialog"
	"screenfix/internal/domain"
	applog "screenfix/internal/log"
	"screenfix/internal/repos"
	"screenfix/internal/validate"
)

var (
	ErrCartEmpty       = errors.New("cart is empty")
	ErrCustomerUnknown = errors.New("customer not found")
)

// SyncClient is the slice of the CRM surface the orchestrator drives during
// remote synchronization. Every call is at-most-one-attempt.
type SyncClient interface {
	CreateOrder(ctx context.Context, description string, localOrderID int64) (int64, error)
	CreateReGluingLine(ctx context.Context, orderRef, cardRef, price, itemID int64, touchOrBacklight int) (int64, error)
	CreateAssemblyLine(ctx context.Context, orderRef, cardRef, price, itemID int64) (int64, error)
	CreateRefurbishedLine(ctx context.Context, orderRef, stockRef, price, itemID int64) (int64, error)
	CreateSparePartLine(ctx context.Context, orderRef, partRef, price int64, quantity int, itemID int64) (int64, error)
	CreateBackCoverLine(ctx context.Context, orderRef, coverRef, price, itemID int64) (int64, error)
	CreateBuybackLine(ctx context.Context, orderRef, cardRef, price int64, quantity int, itemID int64, touchOrBacklight int) (int64, error)
	AddChatComment(ctx context.Context, chatRef int64, text string) error
}

// CheckoutService is the top-level checkout state machine: it resolves the
// contact phone, materializes the cart into an order and drives per-line
// synchronization with the CRM. All collaborators arrive by injection; there
// is no ambient state beyond the dialog store the caller owns.
type CheckoutService struct {
	Carts     *repos.CartRepo
	Orders    *repos.OrderRepo
	Customers *repos.CustomerRepo
	Dialogs   *dialog.Store
	CRM       SyncClient
	Workers   int // bound on concurrent remote line creations
}

func NewCheckoutService(carts *repos.CartRepo, orders *repos.OrderRepo, customers *repos.CustomerRepo, dialogs *dialog.Store, crm SyncClient, workers int) *CheckoutService {
	if workers <= 0 {
		workers = 4
	}
	return &CheckoutService{Carts: carts, Orders: orders, Customers: customers, Dialogs: dialogs, CRM: crm, Workers: workers}
}

type StepKind string

const (
	StepEmptyCart    StepKind = "empty_cart"
	StepConfirmPhone StepKind = "confirm_phone" // ask Yes/No about the stored number
	StepNeedPhone    StepKind = "need_phone"    // prompt for manual entry
	StepPlaced       StepKind = "placed"
)

// Step is what the orchestrator hands back to the front end after each turn.
type Step struct {
	Kind    StepKind `json:"kind"`
	Phone   string   `json:"phone,omitempty"`
	Receipt *Receipt `json:"receipt,omitempty"`
}

// Receipt reports the final order composition and the cross-system
// references, including any per-line synchronization gaps.
type Receipt struct {
	OrderID     int64    `json:"order_id"`
	RemoteRef   int64    `json:"remote_ref,omitempty"`
	Total       int64    `json:"total"`
	Status      string   `json:"status"`
	Phone       string   `json:"phone"`
	Composition string   `json:"composition"`
	SyncErrors  []string `json:"sync_errors,omitempty"`
}

// Checkout starts the flow. With a non-empty cart it either asks to reuse the
// stored phone or prompts for manual entry; the chosen step is persisted as
// dialog state for the next turn.
func (s *CheckoutService) Checkout(ctx context.Context, customerID int64) (Step, error) {
	items, err := s.Carts.FindAll(customerID)
	if err != nil {
		return Step{}, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return Step{Kind: StepEmptyCart}, nil
	}

	cust, err := s.Customers.FindByID(customerID)
	if err != nil {
		return Step{}, fmt.Errorf("load customer: %w", err)
	}
	if cust == nil {
		return Step{}, ErrCustomerUnknown
	}

	if cust.Phone != "" {
		s.Dialogs.Put(customerID, domain.DialogState{Step: domain.StepConfirmPhone, Phone: cust.Phone})
		return Step{Kind: StepConfirmPhone, Phone: cust.Phone}, nil
	}
	s.Dialogs.Put(customerID, domain.DialogState{Step: domain.StepAwaitPhone})
	return Step{Kind: StepNeedPhone}, nil
}

// ConfirmPhone handles the Yes/No answer about the stored number. Yes places
// the order; No switches to manual entry.
func (s *CheckoutService) ConfirmPhone(ctx context.Context, customerID int64, confirm bool) (Step, error) {
	state := s.Dialogs.Get(customerID)
	if state.Step != domain.StepConfirmPhone {
		return Step{}, ErrNoOpenDialog
	}
	if !confirm {
		s.Dialogs.Put(customerID, domain.DialogState{Step: domain.StepAwaitPhone})
		return Step{Kind: StepNeedPhone}, nil
	}
	s.Dialogs.Clear(customerID)
	return s.place(ctx, customerID, state.Phone)
}

// SubmitPhone handles manual entry. A malformed number re-prompts instead of
// erroring; a valid one is persisted on the profile and the order is placed.
func (s *CheckoutService) SubmitPhone(ctx context.Context, customerID int64, raw string) (Step, error) {
	state := s.Dialogs.Get(customerID)
	if state.Step != domain.StepAwaitPhone {
		return Step{}, ErrNoOpenDialog
	}
	phone, ok := validate.Phone(raw)
	if !ok {
		return Step{Kind: StepNeedPhone}, nil
	}
	if err := s.Customers.SetPhone(customerID, phone); err != nil {
		return Step{}, fmt.Errorf("save phone: %w", err)
	}
	s.Dialogs.Clear(customerID)
	return s.place(ctx, customerID, phone)
}

// place materializes the cart into an order and synchronizes it with the CRM.
// Local failures abort before any remote call and leave the cart untouched;
// remote failures are per-line and never roll local state back.
func (s *CheckoutService) place(ctx context.Context, customerID int64, phone string) (Step, error) {
	items, err := s.Carts.FindAll(customerID)
	if err != nil {
		return Step{}, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return Step{Kind: StepEmptyCart}, nil
	}

	orderID, err := s.Orders.Create(customerID)
	if err != nil {
		return Step{}, fmt.Errorf("create order: %w", err)
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	var total int64
	for _, ci := range items {
		oi := domain.OrderItem{
			OrderID:          orderID,
			ProductID:        ci.ProductID,
			ProductName:      ci.ProductName,
			TaskRef:          ci.TaskRef,
			Operation:        ci.Operation,
			Quantity:         ci.Quantity,
			Price:            ci.Price,
			AssemblyRequired: ci.AssemblyRequired,
			AssemblyPrice:    ci.AssemblyPrice,
			TouchOrBacklight: ci.TouchOrBacklight,
			PhotosJSON:       ci.PhotosJSON,
			SyncStatus:       string(domain.SyncPending),
		}
		itemID, err := s.Orders.InsertItem(oi)
		if err != nil {
			return Step{}, fmt.Errorf("create order item: %w", err)
		}
		oi.ID = itemID
		orderItems = append(orderItems, oi)
		total += ci.Subtotal()
	}

	// The total is written exactly once, before any remote call.
	if err := s.Orders.UpdateTotal(orderID, total); err != nil {
		return Step{}, fmt.Errorf("write order total: %w", err)
	}
	if err := s.Orders.AppendStatus(orderID, domain.StatusPending, "Order created"); err != nil {
		return Step{}, fmt.Errorf("append order status: %w", err)
	}

	// Order and items are durable now; the staging lines can go. Remote sync
	// failures past this point must not lose the customer's data.
	if err := s.Carts.Clear(customerID); err != nil {
		applog.Error(nil, "checkout.cart_clear", err, map[string]any{"customer_id": customerID, "order_id": orderID})
	}

	composition := composeByOperation(orderItems)
	receipt := &Receipt{
		OrderID:     orderID,
		Total:       total,
		Status:      string(domain.StatusPending),
		Phone:       phone,
		Composition: composition,
	}

	s.sync(ctx, receipt, orderItems, phone)

	// Best-effort echo into the customer's CRM chat, when one exists.
	if cust, err := s.Customers.FindByID(customerID); err == nil && cust != nil && cust.ChatCRMRef != 0 {
		text := fmt.Sprintf("Order #%d placed, total %d.\n%s", orderID, total, composition)
		if err := s.CRM.AddChatComment(ctx, cust.ChatCRMRef, text); err != nil {
			applog.Warn(nil, "checkout.chat_echo", map[string]any{"order_id": orderID, "err": err.Error()})
		}
	}

	applog.Audit(nil, "checkout.placed", map[string]any{
		"customer_id": customerID, "order_id": orderID, "total": total,
		"remote_ref": receipt.RemoteRef, "sync_errors": len(receipt.SyncErrors),
	})
	return Step{Kind: StepPlaced, Receipt: receipt}, nil
}

// sync creates the remote order and then fans line creation out over a
// bounded pool. One line's failure is recorded and reported but never stops
// the others; the CRM has no compensating transaction, so the design accepts
// an eventually-fully-referenced remote state.
func (s *CheckoutService) sync(ctx context.Context, receipt *Receipt, items []domain.OrderItem, phone string) {
	description := fmt.Sprintf("Order #%d\nStatus: %s\nTotal: %d\nComposition:\n%s\nPhone: %s",
		receipt.OrderID, receipt.Status, receipt.Total, receipt.Composition, phone)

	remoteRef, err := s.CRM.CreateOrder(ctx, description, receipt.OrderID)
	if err != nil {
		applog.Error(nil, "checkout.sync.order", err, map[string]any{"order_id": receipt.OrderID})
		receipt.SyncErrors = append(receipt.SyncErrors, fmt.Sprintf("remote order not created: %v", err))
		return
	}
	receipt.RemoteRef = remoteRef
	if err := s.Orders.SetRemoteRef(receipt.OrderID, remoteRef); err != nil {
		applog.Error(nil, "checkout.sync.order_ref", err, map[string]any{"order_id": receipt.OrderID})
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for _, item := range items {
		item := item
		g.Go(func() error {
			lineRef, err := s.createLine(gctx, remoteRef, item)
			if err != nil {
				applog.Error(nil, "checkout.sync.line", err, map[string]any{
					"order_id": receipt.OrderID, "item_id": item.ID, "operation": item.Operation,
				})
				if serr := s.Orders.SetItemSync(item.ID, 0, domain.SyncFailed); serr != nil {
					applog.Error(nil, "checkout.sync.line_status", serr, map[string]any{"item_id": item.ID})
				}
				mu.Lock()
				receipt.SyncErrors = append(receipt.SyncErrors,
					fmt.Sprintf("%s (%s): %v", item.ProductName, domain.Operation(item.Operation), err))
				mu.Unlock()
				return nil
			}
			if serr := s.Orders.SetItemSync(item.ID, lineRef, domain.SyncDone); serr != nil {
				applog.Error(nil, "checkout.sync.line_status", serr, map[string]any{"item_id": item.ID})
			}
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(receipt.SyncErrors)
}

// createLine dispatches to the operation-specific remote creation call. The
// enum is closed and matched exhaustively; only a value decoded from storage
// that is out of range takes the placeholder branch.
func (s *CheckoutService) createLine(ctx context.Context, orderRef int64, item domain.OrderItem) (int64, error) {
	price := item.Price
	if item.AssemblyRequired {
		price += item.AssemblyPrice
	}
	touchOrBacklight := 1
	if item.TouchOrBacklight {
		touchOrBacklight = 2
	}

	switch domain.Operation(item.Operation) {
	case domain.OpReGluing, domain.OpReGluingBacklight:
		return s.CRM.CreateReGluingLine(ctx, orderRef, item.TaskRef, price, item.ID, touchOrBacklight)
	case domain.OpAssembly:
		return s.CRM.CreateAssemblyLine(ctx, orderRef, item.TaskRef, price, item.ID)
	case domain.OpRefurbished:
		return s.CRM.CreateRefurbishedLine(ctx, orderRef, item.TaskRef, price, item.ID)
	case domain.OpSparePart:
		return s.CRM.CreateSparePartLine(ctx, orderRef, item.TaskRef, price, item.Quantity, item.ID)
	case domain.OpBackCover:
		return s.CRM.CreateBackCoverLine(ctx, orderRef, item.TaskRef, price, item.ID)
	case domain.OpBuyback:
		return s.CRM.CreateBuybackLine(ctx, orderRef, item.TaskRef, price, item.Quantity, item.ID, touchOrBacklight)
	}
	return 0, fmt.Errorf("unknown-operation-%d: no remote line shape", item.Operation)
}

// composeByOperation builds the human-readable composition grouped by
// operation kind, preserving first-seen group order.
func composeByOperation(items []domain.OrderItem) string {
	var (
		order  []domain.Operation
		groups = map[domain.Operation][]string{}
	)
	for _, item := range items {
		op := domain.Operation(item.Operation)
		if _, ok := groups[op]; !ok {
			order = append(order, op)
		}
		line := fmt.Sprintf("  - %s x%d, %d", item.ProductName, item.Quantity, item.Price)
		if item.AssemblyRequired {
			line += fmt.Sprintf(" (+ assembly %d)", item.AssemblyPrice)
		}
		line += ": " + op.Describe()
		groups[op] = append(groups[op], line)
	}

	var b strings.Builder
	for i, op := range order {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(op.String() + ":\n")
		b.WriteString(strings.Join(groups[op], "\n"))
	}
	return b.String()
}
