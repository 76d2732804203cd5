package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"

	"screenfix/internal/config"
	"screenfix/internal/crm"
	"screenfix/internal/http/handlers"
	"screenfix/internal/repos"
)

// stubCRM satisfies both the sync and catalog surfaces with canned data.
type stubCRM struct {
	nextRef atomic.Int64

	mu       sync.Mutex
	notified []string
}

func (s *stubCRM) ref() int64 { return 9000 + s.nextRef.Add(1) }

func (s *stubCRM) CreateOrder(context.Context, string, int64) (int64, error) { return s.ref(), nil }
func (s *stubCRM) CreateReGluingLine(_ context.Context, _, _, _, _ int64, _ int) (int64, error) {
	return s.ref(), nil
}
func (s *stubCRM) CreateAssemblyLine(context.Context, int64, int64, int64, int64) (int64, error) {
	return s.ref(), nil
}
func (s *stubCRM) CreateRefurbishedLine(context.Context, int64, int64, int64, int64) (int64, error) {
	return s.ref(), nil
}
func (s *stubCRM) CreateSparePartLine(_ context.Context, _, _, _ int64, _ int, _ int64) (int64, error) {
	return s.ref(), nil
}
func (s *stubCRM) CreateBackCoverLine(context.Context, int64, int64, int64, int64) (int64, error) {
	return s.ref(), nil
}
func (s *stubCRM) CreateBuybackLine(_ context.Context, _, _, _ int64, _ int, _ int64, _ int) (int64, error) {
	return s.ref(), nil
}
func (s *stubCRM) AddChatComment(context.Context, int64, string) error { return nil }

func (s *stubCRM) TaskList(context.Context, int64, int64, string) ([]crm.Task, error) {
	return nil, nil
}
func (s *stubCRM) DirectoryEntries(context.Context, int64, int64) ([]crm.DirectoryEntry, error) {
	var price crm.FieldData
	price.Field.ID = crm.FieldEntryPrices
	price.Value = json.RawMessage(`{"id":77,"value":"prices"}`)
	var name crm.FieldData
	name.Field.ID = crm.FieldEntryName
	name.Value = json.RawMessage(`"iPhone 12"`)
	return []crm.DirectoryEntry{{Key: 2, CustomFieldData: []crm.FieldData{name, price}}}, nil
}
func (s *stubCRM) PriceListEntry(context.Context, int64) (*crm.DirectoryEntry, error) {
	var fd crm.FieldData
	fd.Field.ID = crm.FieldPriceAssembly
	fd.Value = json.RawMessage(`300`)
	return &crm.DirectoryEntry{Key: 77, CustomFieldData: []crm.FieldData{fd}}, nil
}

func (s *stubCRM) Notify(chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified = append(s.notified, fmt.Sprintf("%d:%s", chatID, text))
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *stubCRM, *repos.OrderRepo) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	stub := &stubCRM{}
	deps := handlers.NewDeps(db, config.Config{SyncWorkers: 2}, stub, stub, stub)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Get("/cart", deps.CartHandler.View)
	api.Post("/cart", deps.CartHandler.Add)
	api.Post("/cart/increment", deps.CartHandler.Increment)
	api.Post("/cart/decrement", deps.CartHandler.Decrement)
	api.Post("/cart/assembly", deps.CartHandler.AnswerAssembly)
	api.Post("/checkout", deps.CheckoutHandler.Start)
	api.Post("/checkout/phone/confirm", deps.CheckoutHandler.ConfirmPhone)
	api.Post("/checkout/phone", deps.CheckoutHandler.SubmitPhone)
	api.Get("/orders", deps.OrderHandler.History)
	app.Post("/crm/webhook", deps.WebhookHandler.Receive)
	return app, stub, repos.NewOrderRepo(db)
}

func postJSON(t *testing.T, app *fiber.App, path string, body map[string]any) (*http.Response, map[string]any) {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestAPI_FullCheckoutFlow(t *testing.T) {
	app, _, _ := newTestApp(t)
	ident := map[string]any{"chat_id": 1000, "username": "tester"}

	add := map[string]any{
		"product_id": 12, "product_name": "iPhone 12", "task_ref": 555,
		"operation": 1, "quantity": 1, "price": 1200,
	}
	for k, v := range ident {
		add[k] = v
	}
	resp, out := postJSON(t, app, "/api/v1/cart", add)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add: status %d", resp.StatusCode)
	}
	offer, ok := out["assembly_offer"].(map[string]any)
	if !ok || offer["price"] != float64(300) {
		t.Fatalf("want assembly offer for 300, got %v", out)
	}

	resp, _ = postJSON(t, app, "/api/v1/cart/assembly",
		map[string]any{"chat_id": 1000, "confirm": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assembly: status %d", resp.StatusCode)
	}

	resp, out = postJSON(t, app, "/api/v1/checkout", ident)
	if resp.StatusCode != http.StatusOK || out["kind"] != "need_phone" {
		t.Fatalf("checkout: status %d body %v", resp.StatusCode, out)
	}

	// malformed number re-prompts with 200
	resp, out = postJSON(t, app, "/api/v1/checkout/phone",
		map[string]any{"chat_id": 1000, "phone": "12345"})
	if resp.StatusCode != http.StatusOK || out["kind"] != "need_phone" {
		t.Fatalf("bad phone: status %d body %v", resp.StatusCode, out)
	}

	resp, out = postJSON(t, app, "/api/v1/checkout/phone",
		map[string]any{"chat_id": 1000, "phone": "+79161234567"})
	if resp.StatusCode != http.StatusOK || out["kind"] != "placed" {
		t.Fatalf("place: status %d body %v", resp.StatusCode, out)
	}
	receipt := out["receipt"].(map[string]any)
	if receipt["total"] != float64(1500) {
		t.Fatalf("want total 1500, got %v", receipt["total"])
	}

	// history shows the placed order
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?chat_id=1000", nil)
	histResp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var hist struct {
		Orders []struct {
			Status string `json:"status"`
		} `json:"orders"`
	}
	_ = json.NewDecoder(histResp.Body).Decode(&hist)
	if len(hist.Orders) != 1 || hist.Orders[0].Status != "pending" {
		t.Fatalf("bad history: %+v", hist)
	}
}

func TestAPI_ErrorStatuses(t *testing.T) {
	app, _, _ := newTestApp(t)

	// missing chat id
	resp, _ := postJSON(t, app, "/api/v1/cart", map[string]any{"product_id": 1, "operation": 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing chat_id: status %d", resp.StatusCode)
	}

	// unknown operation kind
	resp, _ = postJSON(t, app, "/api/v1/cart",
		map[string]any{"chat_id": 1, "product_id": 1, "operation": 42, "quantity": 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown operation: status %d", resp.StatusCode)
	}

	// quantity change on an absent line
	resp, _ = postJSON(t, app, "/api/v1/cart/increment",
		map[string]any{"chat_id": 1, "product_id": 1, "operation": 1})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("absent line: status %d", resp.StatusCode)
	}

	// stale confirmation press
	resp, _ = postJSON(t, app, "/api/v1/cart/assembly",
		map[string]any{"chat_id": 1, "confirm": true})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("stale assembly answer: status %d", resp.StatusCode)
	}
	resp, _ = postJSON(t, app, "/api/v1/checkout/phone/confirm",
		map[string]any{"chat_id": 1, "confirm": true})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("stale phone confirm: status %d", resp.StatusCode)
	}
}
