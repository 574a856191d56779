package service

import (
	"context"
	"testing"
	"time"

	"github.com/supplysync/catalog_api/internal/config"
	"github.com/supplysync/catalog_api/internal/models"
)

func testMatchConfig() config.MatchConfig {
	return config.MatchConfig{
		AutoThreshold:        95,
		PotentialThreshold:   70,
		BatchSize:            100,
		ReviewExpirationDays: 30,
		Strategy:             "fixed",
	}
}

func intPtr(v int) *int { return &v }

func newMatchService(items *fakeItemStore, products *fakeProductStore, reviews *fakeReviewStore, audits *fakeAuditStore, q *fakeQueue, strategy *fixedStrategy) *MatchService {
	return NewMatchService(items, products, reviews, audits, fakeTx{}, strategy, q, nil, testMatchConfig(), 3)
}

func TestRunBatch_AutoLinkAboveThreshold(t *testing.T) {
	item := &models.SupplierItem{ID: 1, Name: "USB-C Cable 2m", CategoryID: intPtr(10), MatchStatus: models.MatchStatusUnmatched}
	product := &models.Product{ID: 50, Name: "USB-C Cable 2m", CategoryID: intPtr(10), Status: models.ProductStatusActive}
	items := newFakeItemStore(item)
	products := newFakeProductStore(product)
	reviews := newFakeReviewStore()
	audits := &fakeAuditStore{}
	q := &fakeQueue{}
	strategy := &fixedStrategy{candidates: []models.MatchCandidate{{ProductID: 50, Name: product.Name, Score: 97}}}

	svc := newMatchService(items, products, reviews, audits, q, strategy)
	result, err := svc.RunBatch(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if result.AutoMatched != 1 {
		t.Fatalf("expected 1 auto-matched, got %+v", result)
	}

	got := items.items[1]
	if got.MatchStatus != models.MatchStatusAutoMatched {
		t.Fatalf("expected status auto_matched, got %s", got.MatchStatus)
	}
	if got.ProductID == nil || *got.ProductID != 50 {
		t.Fatalf("expected product 50, got %v", got.ProductID)
	}
	if got.MatchScore == nil || *got.MatchScore != 97 {
		t.Fatalf("expected score 97, got %v", got.MatchScore)
	}
	if audits.lastAction() != models.AuditActionAutoMatch {
		t.Fatalf("expected auto_match audit entry, got %s", audits.lastAction())
	}

	types := q.publishedTypes()
	if len(types) != 2 || types[0] != models.TaskEnrichItem || types[1] != models.TaskRecalcAggregates {
		t.Fatalf("expected enrich + recalc follow-ups, got %v", types)
	}
}

func TestRunBatch_ReviewBandCreatesPendingEntry(t *testing.T) {
	item := &models.SupplierItem{ID: 2, Name: "USB-C Cable 2m Black", CategoryID: intPtr(10), MatchStatus: models.MatchStatusUnmatched}
	items := newFakeItemStore(item)
	products := newFakeProductStore(&models.Product{ID: 51, Status: models.ProductStatusActive, CategoryID: intPtr(10)})
	reviews := newFakeReviewStore()
	audits := &fakeAuditStore{}
	q := &fakeQueue{}
	strategy := &fixedStrategy{candidates: []models.MatchCandidate{
		{ProductID: 51, Name: "Cable USB type C 1.9m", Score: 79},
		{ProductID: 52, Name: "USB hub", Score: 71},
	}}

	svc := newMatchService(items, products, reviews, audits, q, strategy)
	result, err := svc.RunBatch(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if result.Potential != 1 {
		t.Fatalf("expected 1 potential, got %+v", result)
	}

	got := items.items[2]
	if got.MatchStatus != models.MatchStatusPotentialMatch {
		t.Fatalf("expected status potential_match, got %s", got.MatchStatus)
	}
	if got.ProductID != nil {
		t.Fatalf("potential match must not link a product, got %v", *got.ProductID)
	}
	if len(got.MatchCandidates) != 2 {
		t.Fatalf("expected 2 stored candidates, got %d", len(got.MatchCandidates))
	}

	if reviews.pendingCount() != 1 {
		t.Fatalf("expected 1 pending review entry, got %d", reviews.pendingCount())
	}
	var entry *models.MatchReviewQueueItem
	for _, e := range reviews.entries {
		entry = e
	}
	wantExpiry := time.Now().AddDate(0, 0, 30)
	if diff := entry.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("expected expiry ~30 days out, got %s", entry.ExpiresAt)
	}

	// Enrichment still runs for reviewed items, but no aggregates before a link.
	types := q.publishedTypes()
	if len(types) != 1 || types[0] != models.TaskEnrichItem {
		t.Fatalf("expected enrich follow-up only, got %v", types)
	}
}

func TestRunBatch_CandidateCapAtFive(t *testing.T) {
	item := &models.SupplierItem{ID: 3, Name: "Widget", CategoryID: intPtr(10), MatchStatus: models.MatchStatusUnmatched}
	items := newFakeItemStore(item)
	var ranked []models.MatchCandidate
	for i := 0; i < 8; i++ {
		ranked = append(ranked, models.MatchCandidate{ProductID: 100 + i, Score: 90 - i})
	}
	svc := newMatchService(items, newFakeProductStore(), newFakeReviewStore(), &fakeAuditStore{}, &fakeQueue{}, &fixedStrategy{candidates: ranked})

	if _, err := svc.RunBatch(context.Background(), nil, 10); err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if got := len(items.items[3].MatchCandidates); got != 5 {
		t.Fatalf("expected candidate list capped at 5, got %d", got)
	}
}

func TestRunBatch_NoMatchCreatesDraftProduct(t *testing.T) {
	item := &models.SupplierItem{ID: 4, Name: "Obscure Gadget X9", CategoryID: intPtr(10), MatchStatus: models.MatchStatusUnmatched}
	items := newFakeItemStore(item)
	products := newFakeProductStore()
	audits := &fakeAuditStore{}
	q := &fakeQueue{}
	// Best candidate below the review threshold is treated as no match.
	strategy := &fixedStrategy{candidates: []models.MatchCandidate{{ProductID: 60, Score: 42}}}

	svc := newMatchService(items, products, newFakeReviewStore(), audits, q, strategy)
	result, err := svc.RunBatch(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if result.NewProducts != 1 {
		t.Fatalf("expected 1 new product, got %+v", result)
	}

	got := items.items[4]
	if got.MatchStatus != models.MatchStatusAutoMatched {
		t.Fatalf("expected status auto_matched, got %s", got.MatchStatus)
	}
	if got.ProductID == nil {
		t.Fatal("expected item linked to the new draft")
	}
	draft := products.products[*got.ProductID]
	if draft == nil || draft.Status != models.ProductStatusDraft {
		t.Fatalf("expected a draft product, got %+v", draft)
	}
	if draft.Name != item.Name {
		t.Fatalf("draft should carry the item name, got %q", draft.Name)
	}
	if draft.InternalSKU == "" {
		t.Fatal("draft must have a generated SKU")
	}
	if audits.lastAction() != models.AuditActionNewProduct {
		t.Fatalf("expected new_product audit entry, got %s", audits.lastAction())
	}
	types := q.publishedTypes()
	if len(types) != 2 || types[1] != models.TaskRecalcAggregates {
		t.Fatalf("expected enrich + recalc follow-ups, got %v", types)
	}
}

func TestRunBatch_MissingCategoryFlagsItem(t *testing.T) {
	item := &models.SupplierItem{ID: 5, Name: "Uncategorized Thing", MatchStatus: models.MatchStatusUnmatched}
	items := newFakeItemStore(item)
	audits := &fakeAuditStore{}
	q := &fakeQueue{}

	svc := newMatchService(items, newFakeProductStore(), newFakeReviewStore(), audits, q, &fixedStrategy{})
	result, err := svc.RunBatch(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if result.NeedsCategory != 1 {
		t.Fatalf("expected 1 needs_category, got %+v", result)
	}
	if items.items[5].MatchStatus != models.MatchStatusNeedsCategory {
		t.Fatalf("expected status needs_category, got %s", items.items[5].MatchStatus)
	}
	if audits.lastAction() != models.AuditActionNeedsCategory {
		t.Fatalf("expected needs_category audit entry, got %s", audits.lastAction())
	}
	if len(q.publishedTypes()) != 0 {
		t.Fatalf("needs_category must publish no follow-ups, got %v", q.publishedTypes())
	}
}

func TestRunBatch_CategoryFilterRestrictsClaim(t *testing.T) {
	items := newFakeItemStore(
		&models.SupplierItem{ID: 6, Name: "A", CategoryID: intPtr(10), MatchStatus: models.MatchStatusUnmatched},
		&models.SupplierItem{ID: 7, Name: "B", CategoryID: intPtr(20), MatchStatus: models.MatchStatusUnmatched},
	)
	svc := newMatchService(items, newFakeProductStore(), newFakeReviewStore(), &fakeAuditStore{}, &fakeQueue{}, &fixedStrategy{})

	result, err := svc.RunBatch(context.Background(), intPtr(20), 10)
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if result.Claimed != 1 {
		t.Fatalf("expected 1 claimed for category 20, got %d", result.Claimed)
	}
	if items.items[6].MatchStatus != models.MatchStatusUnmatched {
		t.Fatal("item outside the category filter must stay unmatched")
	}
}

func TestRunBatch_EachItemResolvedExactlyOnce(t *testing.T) {
	items := newFakeItemStore(
		&models.SupplierItem{ID: 20, Name: "Cable A", CategoryID: intPtr(10), MatchStatus: models.MatchStatusUnmatched},
		&models.SupplierItem{ID: 21, Name: "Cable B", CategoryID: intPtr(10), MatchStatus: models.MatchStatusUnmatched},
		&models.SupplierItem{ID: 22, Name: "Cable C", CategoryID: intPtr(10), MatchStatus: models.MatchStatusUnmatched},
	)
	products := newFakeProductStore(&models.Product{ID: 80, CategoryID: intPtr(10), Status: models.ProductStatusActive})
	audits := &fakeAuditStore{}
	strategy := &fixedStrategy{candidates: []models.MatchCandidate{{ProductID: 80, Score: 97}}}
	svc := newMatchService(items, products, newFakeReviewStore(), audits, &fakeQueue{}, strategy)

	first, err := svc.RunBatch(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("first RunBatch failed: %v", err)
	}
	if first.Claimed != 3 || first.AutoMatched != 3 {
		t.Fatalf("expected all 3 items resolved, got %+v", first)
	}

	// A second pass over the same set must find nothing to claim.
	second, err := svc.RunBatch(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("second RunBatch failed: %v", err)
	}
	if second.Claimed != 0 {
		t.Fatalf("expected nothing claimed on re-run, got %d", second.Claimed)
	}

	for _, id := range []int{20, 21, 22} {
		trail, _ := audits.ListByItem(context.Background(), id)
		if len(trail) != 1 {
			t.Fatalf("item %d: expected exactly one resolution audit, got %d", id, len(trail))
		}
	}
}

func TestRunBatch_ResolvedItemsAreSkipped(t *testing.T) {
	items := newFakeItemStore(
		&models.SupplierItem{ID: 8, Name: "Linked", CategoryID: intPtr(10), MatchStatus: models.MatchStatusVerifiedMatch, ProductID: intPtr(1)},
	)
	svc := newMatchService(items, newFakeProductStore(), newFakeReviewStore(), &fakeAuditStore{}, &fakeQueue{}, &fixedStrategy{})

	result, err := svc.RunBatch(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if result.Claimed != 0 {
		t.Fatalf("expected nothing claimed, got %d", result.Claimed)
	}
	if items.items[8].MatchStatus != models.MatchStatusVerifiedMatch {
		t.Fatal("resolved item must not be touched")
	}
}
