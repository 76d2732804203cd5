package crm

import (
	"context"
	"fmt"
	"net/http"
)

// Task templates configured in the CRM for order and line creation. Each line
// kind is created from its own template so the CRM routes it to the right
// production pipeline.
const (
	TemplateOrder       = 46  // order header task
	TemplateReGluing    = 111 // re-gluing production (with or without backlight)
	TemplateRefurbished = 113 // refurbished display from stock
	TemplateSparePart   = 115 // spare part supply
	TemplateBackCover   = 117 // back cover replacement
	TemplateBuyback     = 119 // broken display purchase
	TemplateAssembly    = 121 // standalone disassembly/assembly service
)

// Custom fields on order/line tasks.
const (
	FieldLabels         = 5478  // order labels
	FieldSave           = 5484  // commit flag the CRM expects on line writes
	FieldLinePrice      = 5594  // individual price, RUB
	FieldRefurbished    = 5624  // refurbished stock card reference
	FieldNomenCard      = 5640  // nomenclature card reference (re-gluing/assembly)
	FieldTouchBacklight = 5644  // 1 = touch, 2 = backlight
	FieldBackCover      = 5650  // back cover card reference
	FieldExecutor       = 5564  // production executor
	FieldLineQuantity   = 5602  // quantity on supply/buyback lines
	FieldOrderCrossRef  = 12124 // local order id embedded in the order task
	FieldLineCrossRef   = 12114 // local order item id embedded in a line task
)

const executorProduction = 9 // default production executor

type createTaskRequest struct {
	Template        *Ref         `json:"template,omitempty"`
	Description     string       `json:"description,omitempty"`
	Status          *Ref         `json:"status,omitempty"`
	CustomFieldData []FieldValue `json:"customFieldData,omitempty"`
}

type createTaskResponse struct {
	Result string `json:"result"`
	ID     int64  `json:"id"`
}

func (c *Client) createTask(ctx context.Context, path string, req createTaskRequest) (int64, error) {
	var out createTaskResponse
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return 0, err
	}
	if out.Result != "success" || out.ID == 0 {
		return 0, fmt.Errorf("crm: create task: result %q id %d", out.Result, out.ID)
	}
	return out.ID, nil
}

// CreateOrder creates the remote order task. localOrderID is embedded as a
// cross-reference so inbound events can always be traced back to local state.
func (c *Client) CreateOrder(ctx context.Context, description string, localOrderID int64) (int64, error) {
	req := createTaskRequest{
		Template:    &Ref{ID: TemplateOrder},
		Description: description,
		Status:      &Ref{ID: 1},
		CustomFieldData: []FieldValue{
			{Field: Ref{ID: FieldLabels}, Value: []Ref{{ID: 2}, {ID: 110}, {ID: 83}}},
			{Field: Ref{ID: FieldOrderCrossRef}, Value: localOrderID},
		},
	}
	return c.createTask(ctx, "/task/", req)
}

// Line creation. Each call posts against the remote order task and returns
// the id of the created line task.

func (c *Client) linePath(orderRef int64) string { return fmt.Sprintf("/task/%d", orderRef) }

// CreateReGluingLine covers both plain re-gluing and re-gluing with
// backlight/touch replacement; touchOrBacklight is the CRM's 1/2 selector.
func (c *Client) CreateReGluingLine(ctx context.Context, orderRef, cardRef, price, itemID int64, touchOrBacklight int) (int64, error) {
	req := createTaskRequest{
		Template: &Ref{ID: TemplateReGluing},
		CustomFieldData: []FieldValue{
			{Field: Ref{ID: FieldNomenCard}, Value: Ref{ID: cardRef}},
			{Field: Ref{ID: FieldLinePrice}, Value: price},
			{Field: Ref{ID: FieldTouchBacklight}, Value: touchOrBacklight},
			{Field: Ref{ID: FieldLineCrossRef}, Value: itemID},
			{Field: Ref{ID: FieldSave}, Value: "true"},
		},
	}
	return c.createTask(ctx, c.linePath(orderRef), req)
}

func (c *Client) CreateAssemblyLine(ctx context.Context, orderRef, cardRef, price, itemID int64) (int64, error) {
	req := createTaskRequest{
		Template: &Ref{ID: TemplateAssembly},
		CustomFieldData: []FieldValue{
			{Field: Ref{ID: FieldNomenCard}, Value: Ref{ID: cardRef}},
			{Field: Ref{ID: FieldLinePrice}, Value: price},
			{Field: Ref{ID: FieldLineCrossRef}, Value: itemID},
			{Field: Ref{ID: FieldSave}, Value: "true"},
		},
	}
	return c.createTask(ctx, c.linePath(orderRef), req)
}

func (c *Client) CreateRefurbishedLine(ctx context.Context, orderRef, stockRef, price, itemID int64) (int64, error) {
	req := createTaskRequest{
		Template: &Ref{ID: TemplateRefurbished},
		CustomFieldData: []FieldValue{
			{Field: Ref{ID: FieldRefurbished}, Value: Ref{ID: stockRef}},
			{Field: Ref{ID: FieldSave}, Value: "true"},
			{Field: Ref{ID: FieldLinePrice}, Value: price},
			{Field: Ref{ID: FieldLineCrossRef}, Value: itemID},
		},
	}
	return c.createTask(ctx, c.linePath(orderRef), req)
}

func (c *Client) CreateSparePartLine(ctx context.Context, orderRef, partRef, price int64, quantity int, itemID int64) (int64, error) {
	req := createTaskRequest{
		Template: &Ref{ID: TemplateSparePart},
		CustomFieldData: []FieldValue{
			{Field: Ref{ID: FieldSparePart}, Value: Ref{ID: partRef}},
			{Field: Ref{ID: FieldLinePrice}, Value: price},
			{Field: Ref{ID: FieldLineQuantity}, Value: quantity},
			{Field: Ref{ID: FieldLineCrossRef}, Value: itemID},
			{Field: Ref{ID: FieldSave}, Value: "true"},
		},
	}
	return c.createTask(ctx, c.linePath(orderRef), req)
}

func (c *Client) CreateBackCoverLine(ctx context.Context, orderRef, coverRef, price, itemID int64) (int64, error) {
	req := createTaskRequest{
		Template: &Ref{ID: TemplateBackCover},
		CustomFieldData: []FieldValue{
			{Field: Ref{ID: FieldBackCover}, Value: Ref{ID: coverRef}},
			{Field: Ref{ID: FieldLinePrice}, Value: price},
			{Field: Ref{ID: FieldExecutor}, Value: Ref{ID: executorProduction}},
			{Field: Ref{ID: FieldLineCrossRef}, Value: itemID},
			{Field: Ref{ID: FieldSave}, Value: "true"},
		},
	}
	return c.createTask(ctx, c.linePath(orderRef), req)
}

func (c *Client) CreateBuybackLine(ctx context.Context, orderRef, cardRef, price int64, quantity int, itemID int64, touchOrBacklight int) (int64, error) {
	req := createTaskRequest{
		Template: &Ref{ID: TemplateBuyback},
		CustomFieldData: []FieldValue{
			{Field: Ref{ID: FieldNomenCard}, Value: Ref{ID: cardRef}},
			{Field: Ref{ID: FieldLinePrice}, Value: price},
			{Field: Ref{ID: FieldLineQuantity}, Value: quantity},
			{Field: Ref{ID: FieldTouchBacklight}, Value: touchOrBacklight},
			{Field: Ref{ID: FieldLineCrossRef}, Value: itemID},
			{Field: Ref{ID: FieldSave}, Value: "true"},
		},
	}
	return c.createTask(ctx, c.linePath(orderRef), req)
}
