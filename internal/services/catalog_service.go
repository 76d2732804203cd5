package services

import (
	"context"
	"errors"
	"fmt"

	"screenfix/internal/crm"
	"screenfix/internal/domain"
	applog "screenfix/internal/log"
)

// ErrNoPrice means the catalog has no compatible entry for the model and
// operation. Callers present a "not available" state; the command itself
// never fails on this.
var ErrNoPrice = errors.New("no price available")

// CatalogClient is the slice of the CRM surface the adapter queries.
type CatalogClient interface {
	TaskList(ctx context.Context, filterID, modelID int64, fields string) ([]crm.Task, error)
	DirectoryEntries(ctx context.Context, modelID, filterID int64) ([]crm.DirectoryEntry, error)
	PriceListEntry(ctx context.Context, key int64) (*crm.DirectoryEntry, error)
}

// Quote is an authoritative price for (model, operation) together with the
// remote card the line should reference.
type Quote struct {
	Price       int64
	TaskRef     int64
	ProductName string
	Color       string
}

type CatalogService struct {
	CRM CatalogClient
}

func NewCatalogService(c CatalogClient) *CatalogService { return &CatalogService{CRM: c} }

// PriceFor resolves the price and remote card for a model and operation kind.
// Re-gluing and back-cover kinds go through the two-step basic-nomenclature
// lookup; stock-backed kinds query the task list directly.
func (s *CatalogService) PriceFor(ctx context.Context, modelID int64, op domain.Operation) (Quote, error) {
	switch op {
	case domain.OpReGluing, domain.OpReGluingBacklight, domain.OpAssembly:
		return s.nomenclatureQuote(ctx, modelID, crm.FilterReGluing, priceFieldFor(op))
	case domain.OpBackCover:
		return s.nomenclatureQuote(ctx, modelID, crm.FilterBackCover, priceFieldFor(op))
	case domain.OpRefurbished:
		return s.stockQuote(ctx, modelID)
	case domain.OpSparePart:
		return s.sparePartQuote(ctx, modelID)
	case domain.OpBuyback:
		return s.buybackQuote(ctx, modelID)
	}
	return Quote{}, fmt.Errorf("price for %s: %w", op, ErrNoPrice)
}

// AssemblyPrice resolves the disassembly/assembly add-on price for a model.
// Used exclusively by the add-on confirmation sub-dialog.
func (s *CatalogService) AssemblyPrice(ctx context.Context, modelID int64) (int64, error) {
	q, err := s.nomenclatureQuote(ctx, modelID, crm.FilterReGluing, crm.FieldPriceAssembly)
	if err != nil {
		return 0, err
	}
	return q.Price, nil
}

func priceFieldFor(op domain.Operation) int64 {
	switch op {
	case domain.OpReGluing:
		return crm.FieldPriceReGluing
	case domain.OpReGluingBacklight:
		return crm.FieldPriceBacklight
	case domain.OpAssembly:
		return crm.FieldPriceAssembly
	case domain.OpBackCover:
		return crm.FieldPriceBackCover
	}
	return 0
}

// nomenclatureQuote walks the two-step lookup: directory entries compatible
// with the model, then the price-list entry keyed by the discovered id.
func (s *CatalogService) nomenclatureQuote(ctx context.Context, modelID, filterID, priceField int64) (Quote, error) {
	entries, err := s.CRM.DirectoryEntries(ctx, modelID, filterID)
	if err != nil {
		return Quote{}, fmt.Errorf("directory entries for model %d: %w", modelID, err)
	}

	for _, entry := range entries {
		var (
			priceListKey int64
			cardRef      int64
			name         string
			color        string
		)
		for _, fd := range entry.CustomFieldData {
			switch fd.Field.ID {
			case crm.FieldEntryName:
				name = fd.String()
			case crm.FieldEntryPrices:
				if id, _, ok := fd.RefValue(); ok {
					priceListKey = id
				}
			case crm.FieldEntryCard:
				if id, _, ok := fd.RefValue(); ok {
					cardRef = id
				}
			case crm.FieldEntryColor:
				if _, v, ok := fd.RefValue(); ok {
					color = v
				}
			}
		}
		if priceListKey == 0 || name == "" {
			continue
		}

		priced, err := s.CRM.PriceListEntry(ctx, priceListKey)
		if err != nil {
			applog.Warn(nil, "catalog.pricelist.fetch", map[string]any{"key": priceListKey, "err": err.Error()})
			continue
		}
		for _, fd := range priced.CustomFieldData {
			if fd.Field.ID != priceField {
				continue
			}
			if price, ok := fd.Int64(); ok && price > 0 {
				return Quote{Price: price, TaskRef: cardRef, ProductName: name, Color: color}, nil
			}
		}
	}
	return Quote{}, ErrNoPrice
}

func (s *CatalogService) stockQuote(ctx context.Context, modelID int64) (Quote, error) {
	fields := fmt.Sprintf("id,%d,%d,%d", crm.FieldStockBalance, crm.FieldProductName, crm.FieldStockPrice)
	tasks, err := s.CRM.TaskList(ctx, crm.FilterStockBalance, modelID, fields)
	if err != nil {
		return Quote{}, fmt.Errorf("stock balance for model %d: %w", modelID, err)
	}
	for _, task := range tasks {
		var (
			price   int64
			balance int64
			name    string
		)
		for _, fd := range task.CustomFieldData {
			switch fd.Field.ID {
			case crm.FieldStockPrice:
				price, _ = fd.Int64()
			case crm.FieldStockBalance:
				balance, _ = fd.Int64()
			case crm.FieldProductName:
				if _, v, ok := fd.RefValue(); ok {
					name = v
				} else {
					name = fd.String()
				}
			}
		}
		if price > 0 && balance > 0 {
			return Quote{Price: price, TaskRef: task.ID, ProductName: name}, nil
		}
	}
	return Quote{}, ErrNoPrice
}

func (s *CatalogService) sparePartQuote(ctx context.Context, modelID int64) (Quote, error) {
	fields := fmt.Sprintf("id,%d,%d,%d", crm.FieldSparePart, crm.FieldSparePrice, crm.FieldSpareBalance)
	tasks, err := s.CRM.TaskList(ctx, crm.FilterSpareParts, modelID, fields)
	if err != nil {
		return Quote{}, fmt.Errorf("spare parts for model %d: %w", modelID, err)
	}
	for _, task := range tasks {
		var (
			price   int64
			balance int64
			partRef int64
			name    string
		)
		for _, fd := range task.CustomFieldData {
			switch fd.Field.ID {
			case crm.FieldSparePrice:
				price, _ = fd.Int64()
			case crm.FieldSpareBalance:
				balance, _ = fd.Int64()
			case crm.FieldSparePart:
				if id, v, ok := fd.RefValue(); ok {
					partRef = id
					name = v
				}
			}
		}
		if price > 0 && balance > 0 && partRef != 0 {
			return Quote{Price: price, TaskRef: partRef, ProductName: name}, nil
		}
	}
	return Quote{}, ErrNoPrice
}

func (s *CatalogService) buybackQuote(ctx context.Context, modelID int64) (Quote, error) {
	fields := fmt.Sprintf("id,%d,%d", crm.FieldCardPrice, crm.FieldProductName)
	tasks, err := s.CRM.TaskList(ctx, crm.FilterBuyback, modelID, fields)
	if err != nil {
		return Quote{}, fmt.Errorf("buyback cards for model %d: %w", modelID, err)
	}
	for _, task := range tasks {
		var (
			price int64
			name  string
		)
		for _, fd := range task.CustomFieldData {
			switch fd.Field.ID {
			case crm.FieldCardPrice:
				price, _ = fd.Int64()
			case crm.FieldProductName:
				if _, v, ok := fd.RefValue(); ok {
					name = v
				} else {
					name = fd.String()
				}
			}
		}
		if price > 0 {
			return Quote{Price: price, TaskRef: task.ID, ProductName: name}, nil
		}
	}
	return Quote{}, ErrNoPrice
}
