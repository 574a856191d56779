package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/supplysync/catalog_api/internal/models"
)

func TestRecalculate_DerivesAggregatesFromLinkedItems(t *testing.T) {
	product := &models.Product{
		ID:           70,
		Status:       models.ProductStatusActive,
		MinPrice:     decimal.NewNullDecimal(decimal.NewFromFloat(9.99)),
		Availability: false,
	}
	products := newFakeProductStore(product)
	products.linkedPrices[70] = []float64{9.99, 9.50}
	products.linkedStock[70] = []bool{false, true}
	svc := NewAggregateService(products, nil)

	if err := svc.Recalculate(context.Background(), []int{70}, models.TriggerAutoMatch); err != nil {
		t.Fatalf("Recalculate failed: %v", err)
	}
	got := products.products[70]
	if !got.MinPrice.Valid || !got.MinPrice.Decimal.Equal(decimal.NewFromFloat(9.50)) {
		t.Fatalf("expected min_price 9.50, got %+v", got.MinPrice)
	}
	if !got.Availability {
		t.Fatal("expected availability true with one in-stock item")
	}
}

func TestRecalculate_Idempotent(t *testing.T) {
	product := &models.Product{ID: 71, Status: models.ProductStatusActive}
	products := newFakeProductStore(product)
	products.linkedPrices[71] = []float64{12.00, 11.25}
	products.linkedStock[71] = []bool{true, true}
	svc := NewAggregateService(products, nil)

	if err := svc.Recalculate(context.Background(), []int{71}, models.TriggerPriceChange); err != nil {
		t.Fatalf("first Recalculate failed: %v", err)
	}
	first := *products.products[71]

	if err := svc.Recalculate(context.Background(), []int{71}, models.TriggerPriceChange); err != nil {
		t.Fatalf("second Recalculate failed: %v", err)
	}
	second := *products.products[71]

	if !first.MinPrice.Decimal.Equal(second.MinPrice.Decimal) || first.MinPrice.Valid != second.MinPrice.Valid {
		t.Fatalf("min_price changed on re-run: %+v vs %+v", first.MinPrice, second.MinPrice)
	}
	if first.Availability != second.Availability {
		t.Fatalf("availability changed on re-run: %v vs %v", first.Availability, second.Availability)
	}
	if len(products.recalced) != 2 {
		t.Fatalf("expected 2 recomputes recorded, got %d", len(products.recalced))
	}
}

func TestRecalculate_NoLinkedItemsResetsAggregates(t *testing.T) {
	product := &models.Product{
		ID:           72,
		Status:       models.ProductStatusActive,
		MinPrice:     decimal.NewNullDecimal(decimal.NewFromFloat(5.00)),
		Availability: true,
	}
	products := newFakeProductStore(product)
	svc := NewAggregateService(products, nil)

	if err := svc.Recalculate(context.Background(), []int{72}, models.TriggerManualUnlink); err != nil {
		t.Fatalf("Recalculate failed: %v", err)
	}
	got := products.products[72]
	if got.MinPrice.Valid {
		t.Fatalf("expected min_price reset to null, got %+v", got.MinPrice)
	}
	if got.Availability {
		t.Fatal("expected availability false with no linked items")
	}
}

func TestRecalculate_ErrorAbortsRun(t *testing.T) {
	products := newFakeProductStore(&models.Product{ID: 73})
	products.recalcErr = errors.New("db unavailable")
	svc := NewAggregateService(products, nil)

	if err := svc.Recalculate(context.Background(), []int{73}, models.TriggerAutoMatch); err == nil {
		t.Fatal("expected recompute failure to propagate")
	}
}
