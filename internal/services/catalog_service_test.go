package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"screenfix/internal/crm"
	"screenfix/internal/domain"
	"screenfix/internal/services"
)

// fakeCatalog implements services.CatalogClient from canned responses.
type fakeCatalog struct {
	entries    []crm.DirectoryEntry
	priceLists map[int64]*crm.DirectoryEntry
	tasks      map[int64][]crm.Task // by filter id
	dirErr     error
}

func (f *fakeCatalog) TaskList(_ context.Context, filterID, _ int64, _ string) ([]crm.Task, error) {
	return f.tasks[filterID], nil
}

func (f *fakeCatalog) DirectoryEntries(_ context.Context, _, _ int64) ([]crm.DirectoryEntry, error) {
	return f.entries, f.dirErr
}

func (f *fakeCatalog) PriceListEntry(_ context.Context, key int64) (*crm.DirectoryEntry, error) {
	e, ok := f.priceLists[key]
	if !ok {
		return nil, fmt.Errorf("price list %d not found", key)
	}
	return e, nil
}

func fd(fieldID int64, raw string) crm.FieldData {
	var f crm.FieldData
	f.Field.ID = fieldID
	f.Value = json.RawMessage(raw)
	return f
}

func TestCatalog_NomenclatureTwoStepLookup(t *testing.T) {
	cat := &fakeCatalog{
		entries: []crm.DirectoryEntry{
			// first entry has no price list reference and must be skipped
			{Key: 1, CustomFieldData: []crm.FieldData{
				fd(crm.FieldEntryName, `"iPhone 11"`),
			}},
			{Key: 2, CustomFieldData: []crm.FieldData{
				fd(crm.FieldEntryName, `"iPhone 12"`),
				fd(crm.FieldEntryPrices, `{"id":77,"value":"prices"}`),
				fd(crm.FieldEntryCard, `{"id":555,"value":"card"}`),
				fd(crm.FieldEntryColor, `{"id":3,"value":"black"}`),
			}},
		},
		priceLists: map[int64]*crm.DirectoryEntry{
			77: {Key: 77, CustomFieldData: []crm.FieldData{
				fd(crm.FieldPriceReGluing, `1200`),
				fd(crm.FieldPriceBacklight, `"1800"`), // strings happen too
				fd(crm.FieldPriceAssembly, `300`),
			}},
		},
	}
	svc := services.NewCatalogService(cat)

	q, err := svc.PriceFor(context.Background(), 12, domain.OpReGluing)
	if err != nil {
		t.Fatal(err)
	}
	if q.Price != 1200 || q.TaskRef != 555 || q.ProductName != "iPhone 12" || q.Color != "black" {
		t.Fatalf("bad quote: %+v", q)
	}

	q, err = svc.PriceFor(context.Background(), 12, domain.OpReGluingBacklight)
	if err != nil {
		t.Fatal(err)
	}
	if q.Price != 1800 {
		t.Fatalf("string-typed price not decoded: %+v", q)
	}

	price, err := svc.AssemblyPrice(context.Background(), 12)
	if err != nil {
		t.Fatal(err)
	}
	if price != 300 {
		t.Fatalf("want add-on price 300, got %d", price)
	}
}

func TestCatalog_NoPriceWhenFieldMissing(t *testing.T) {
	cat := &fakeCatalog{
		entries: []crm.DirectoryEntry{
			{Key: 2, CustomFieldData: []crm.FieldData{
				fd(crm.FieldEntryName, `"iPhone 12"`),
				fd(crm.FieldEntryPrices, `{"id":77,"value":"prices"}`),
			}},
		},
		priceLists: map[int64]*crm.DirectoryEntry{
			77: {Key: 77, CustomFieldData: []crm.FieldData{
				fd(crm.FieldPriceReGluing, `1200`),
			}},
		},
	}
	svc := services.NewCatalogService(cat)

	_, err := svc.PriceFor(context.Background(), 12, domain.OpBackCover)
	if !errors.Is(err, services.ErrNoPrice) {
		t.Fatalf("want ErrNoPrice, got %v", err)
	}
}

func TestCatalog_StockQuoteSkipsEmptyBalance(t *testing.T) {
	cat := &fakeCatalog{
		tasks: map[int64][]crm.Task{
			crm.FilterStockBalance: {
				{ID: 900, CustomFieldData: []crm.FieldData{
					fd(crm.FieldStockPrice, `4500`),
					fd(crm.FieldStockBalance, `0`),
					fd(crm.FieldProductName, `{"id":1,"value":"Sold out"}`),
				}},
				{ID: 901, CustomFieldData: []crm.FieldData{
					fd(crm.FieldStockPrice, `4200`),
					fd(crm.FieldStockBalance, `3`),
					fd(crm.FieldProductName, `{"id":2,"value":"iPhone 12 refurbished"}`),
				}},
			},
		},
	}
	svc := services.NewCatalogService(cat)

	q, err := svc.PriceFor(context.Background(), 12, domain.OpRefurbished)
	if err != nil {
		t.Fatal(err)
	}
	if q.TaskRef != 901 || q.Price != 4200 || q.ProductName != "iPhone 12 refurbished" {
		t.Fatalf("bad stock quote: %+v", q)
	}
}

func TestCatalog_SparePartQuote(t *testing.T) {
	cat := &fakeCatalog{
		tasks: map[int64][]crm.Task{
			crm.FilterSpareParts: {
				{ID: 910, CustomFieldData: []crm.FieldData{
					fd(crm.FieldSparePrice, `500`),
					fd(crm.FieldSpareBalance, `7`),
					fd(crm.FieldSparePart, `{"id":2200,"value":"Flex cable"}`),
				}},
			},
		},
	}
	svc := services.NewCatalogService(cat)

	q, err := svc.PriceFor(context.Background(), 12, domain.OpSparePart)
	if err != nil {
		t.Fatal(err)
	}
	if q.TaskRef != 2200 || q.Price != 500 || q.ProductName != "Flex cable" {
		t.Fatalf("bad spare part quote: %+v", q)
	}
}

func TestCatalog_BuybackQuote(t *testing.T) {
	cat := &fakeCatalog{
		tasks: map[int64][]crm.Task{
			crm.FilterBuyback: {
				{ID: 920, CustomFieldData: []crm.FieldData{
					fd(crm.FieldCardPrice, `900`),
					fd(crm.FieldProductName, `{"id":3,"value":"iPhone 12 broken"}`),
				}},
			},
		},
	}
	svc := services.NewCatalogService(cat)

	q, err := svc.PriceFor(context.Background(), 12, domain.OpBuyback)
	if err != nil {
		t.Fatal(err)
	}
	if q.TaskRef != 920 || q.Price != 900 {
		t.Fatalf("bad buyback quote: %+v", q)
	}
}
