// Package crm talks to the external CRM's REST API. The CRM is the system of
// record for pricing, inventory and fulfillment; everything here is a
// synchronous bearer-token JSON call with at-most-one-attempt semantics (no
// retry or backoff on this side).
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Directory and filter identifiers fixed by the CRM workspace configuration.
const (
	DirBasicNomenclature = 1018 // basic nomenclature price lists

	FilterStockBalance = 104380 // refurbished displays in stock
	FilterSpareParts   = 104398 // spare parts with free balance
	FilterReGluing     = 104410 // nomenclature entries for re-gluing
	FilterBackCover    = 104414 // nomenclature entries for back covers
	FilterBuyback      = 104420 // cards eligible for broken display purchase
)

// Custom field identifiers, as configured in the CRM workspace.
const (
	FieldStockBalance = 12116 // free stock balance on a stock card
	FieldProductName  = 5542  // product name on a stock card
	FieldStockPrice   = 12140 // sale price on a stock card
	FieldCardPrice    = 12126 // price on a production card
	FieldCardComment  = 5498  // comment on a production card

	FieldSparePart    = 5512 // spare part reference
	FieldSparePrice   = 5718 // spare part purchase price
	FieldSpareBalance = 5722 // spare part free balance

	FieldEntryName   = 3884 // nomenclature entry: model name
	FieldEntryColor  = 3892 // nomenclature entry: color
	FieldEntryPrices = 3902 // nomenclature entry: price list reference
	FieldEntryCard   = 3906 // nomenclature entry: main nomenclature card

	FieldPriceReGluing  = 3910 // price list: re-gluing
	FieldPriceBacklight = 3912 // price list: re-gluing + backlight/touch
	FieldPriceAssembly  = 3914 // price list: disassembly/assembly add-on
	FieldPriceBackCover = 3916 // price list: back cover replacement
)

type Client struct {
	baseURL string
	token   string
	hc      *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		hc:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Ref is the CRM's {"id": n} object reference.
type Ref struct {
	ID int64 `json:"id"`
}

// FieldValue is one entry of the customFieldData array on requests.
type FieldValue struct {
	Field Ref `json:"field"`
	Value any `json:"value"`
}

// FieldData is one entry of the customFieldData array on responses. Values
// arrive as numbers, strings or nested references depending on the field, so
// they are kept raw and decoded on demand.
type FieldData struct {
	Field struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"field"`
	Value json.RawMessage `json:"value"`
}

// Int64 decodes a numeric field value, accepting the CRM's habit of returning
// numbers as strings. Returns 0, false when the value has no numeric reading.
func (fd FieldData) Int64() (int64, bool) {
	if len(fd.Value) == 0 {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(fd.Value, &n); err == nil {
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	}
	var s string
	if err := json.Unmarshal(fd.Value, &s); err == nil {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// RefValue decodes a {"id":n,"value":...} reference field value.
func (fd FieldData) RefValue() (int64, string, bool) {
	var v struct {
		ID    int64 `json:"id"`
		Value any   `json:"value"`
	}
	if err := json.Unmarshal(fd.Value, &v); err != nil || v.ID == 0 {
		return 0, "", false
	}
	s, _ := v.Value.(string)
	return v.ID, s, true
}

func (fd FieldData) String() string {
	var s string
	if err := json.Unmarshal(fd.Value, &s); err == nil {
		return s
	}
	return string(fd.Value)
}

type Task struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	CustomFieldData []FieldData `json:"customFieldData"`
}

type DirectoryEntry struct {
	Key             int64       `json:"key"`
	CustomFieldData []FieldData `json:"customFieldData"`
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("crm: encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("crm: build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("crm: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("crm: %s %s: status %d: %s", method, path, resp.StatusCode, b)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("crm: decode %s: %w", path, err)
	}
	return nil
}

type taskListRequest struct {
	Offset   int    `json:"offset"`
	PageSize int    `json:"pageSize"`
	FilterID int64  `json:"filterId,omitempty"`
	Filters  []any  `json:"filters,omitempty"`
	Fields   string `json:"fields,omitempty"`
}

type modelFilter struct {
	Type     int    `json:"type"`
	Operator string `json:"operator"`
	Value    int64  `json:"value"`
}

// TaskList queries the saved filter, optionally narrowed to one device model.
func (c *Client) TaskList(ctx context.Context, filterID, modelID int64, fields string) ([]Task, error) {
	req := taskListRequest{PageSize: 100, FilterID: filterID, Fields: fields}
	if modelID != 0 {
		req.Filters = []any{modelFilter{Type: 51, Operator: "equal", Value: modelID}}
	}
	var out struct {
		Result string `json:"result"`
		Tasks  []Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodPost, "/task/list", req, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// TaskByID fetches one task with the given custom fields.
func (c *Client) TaskByID(ctx context.Context, taskID int64, fields string) (*Task, error) {
	var out struct {
		Result string `json:"result"`
		Task   Task   `json:"task"`
	}
	path := fmt.Sprintf("/task/%d?fields=%s", taskID, fields)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

// DirectoryEntries lists nomenclature entries compatible with a model.
func (c *Client) DirectoryEntries(ctx context.Context, modelID, filterID int64) ([]DirectoryEntry, error) {
	req := taskListRequest{PageSize: 100, FilterID: filterID}
	if modelID != 0 {
		req.Filters = []any{modelFilter{Type: 51, Operator: "equal", Value: modelID}}
	}
	var out struct {
		Result           string           `json:"result"`
		DirectoryEntries []DirectoryEntry `json:"directoryEntries"`
	}
	path := fmt.Sprintf("/directory/%d/entry/list", DirBasicNomenclature)
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return out.DirectoryEntries, nil
}

// PriceListEntry fetches the price-list entry discovered via DirectoryEntries.
func (c *Client) PriceListEntry(ctx context.Context, key int64) (*DirectoryEntry, error) {
	var out struct {
		Result string         `json:"result"`
		Entry  DirectoryEntry `json:"entry"`
	}
	path := fmt.Sprintf("/directory/%d/entry/%d", DirBasicNomenclature, key)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Result != "success" {
		return nil, fmt.Errorf("crm: price list entry %d: result %q", key, out.Result)
	}
	return &out.Entry, nil
}

// AddChatComment posts an outgoing comment into the customer's CRM chat task.
func (c *Client) AddChatComment(ctx context.Context, chatRef int64, text string) error {
	payload := map[string]any{"description": text}
	path := fmt.Sprintf("/task/%d/comments", chatRef)
	return c.do(ctx, http.MethodPost, path, payload, nil)
}
