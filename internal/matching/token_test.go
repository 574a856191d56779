package matching

import (
	"testing"

	"github.com/supplysync/catalog_api/internal/models"
)

func TestScore_IdenticalNames(t *testing.T) {
	s := NewTokenStrategy()
	if got := s.Score("USB-C Cable 2m", "USB-C Cable 2m"); got != 100 {
		t.Fatalf("expected 100 for identical names, got %d", got)
	}
}

func TestScore_TokenOrderInsensitive(t *testing.T) {
	s := NewTokenStrategy()
	if got := s.Score("Cable USB-C 2m", "USB-C Cable 2m"); got != 100 {
		t.Fatalf("expected 100 for reordered tokens, got %d", got)
	}
}

func TestScore_ExtraTokenStaysAboveAutoThreshold(t *testing.T) {
	s := NewTokenStrategy()
	got := s.Score("USB-C Cable 2m Black", "USB-C Cable 2m")
	if got < 95 {
		t.Fatalf("expected score >= 95, got %d", got)
	}
	if got >= 100 {
		t.Fatalf("expected score < 100 for non-identical names, got %d", got)
	}
}

func TestScore_VariantNameLandsInReviewBand(t *testing.T) {
	s := NewTokenStrategy()
	got := s.Score("USB-C Cable 2m Black", "Cable USB type C 1.9m")
	if got < 70 || got >= 95 {
		t.Fatalf("expected score in [70, 95), got %d", got)
	}
}

func TestScore_ContainedNameWithSizeVariantStaysInReviewBand(t *testing.T) {
	s := NewTokenStrategy()
	// The product name's tokens are all contained in the item's, but the
	// measurement differs: containment alone must not auto-link a size
	// variant.
	got := s.Score("Cable USB type C 1.9m", "USB-C Cable 2m")
	if got < 70 || got >= 95 {
		t.Fatalf("expected score in [70, 95), got %d", got)
	}
}

func TestScore_UnrelatedNamesBelowPotentialThreshold(t *testing.T) {
	s := NewTokenStrategy()
	got := s.Score("USB-C Cable 2m Black", "Stainless Steel Kettle 1.7L")
	if got >= 70 {
		t.Fatalf("expected score < 70 for unrelated names, got %d", got)
	}
}

func TestScore_NoiseTokensIgnored(t *testing.T) {
	s := NewTokenStrategy()
	if got := s.Score("NEW HOT SALE USB-C Cable 2m", "USB-C Cable 2m"); got != 100 {
		t.Fatalf("expected 100 with marketing noise stripped, got %d", got)
	}
}

func TestScore_NumericTokensWithDifferentUnitsDoNotMatch(t *testing.T) {
	s := NewTokenStrategy()
	a := s.Score("Extension Cord 2m", "Extension Cord 2l")
	b := s.Score("Extension Cord 2m", "Extension Cord 1.9m")
	if a >= b {
		t.Fatalf("expected same-unit variant (%d) to outscore different-unit (%d)", b, a)
	}
}

func TestScore_EmptyName(t *testing.T) {
	s := NewTokenStrategy()
	if got := s.Score("", "USB-C Cable 2m"); got != 0 {
		t.Fatalf("expected 0 for empty name, got %d", got)
	}
}

func TestFindMatches_RanksDescendingAndDropsZero(t *testing.T) {
	s := NewTokenStrategy()
	item := &models.SupplierItem{Name: "USB-C Cable 2m Black"}
	candidates := []models.Product{
		{ID: 1, Name: "Stainless Steel Kettle 1.7L"},
		{ID: 2, Name: "USB-C Cable 2m"},
		{ID: 3, Name: "Cable USB type C 1.9m"},
		{ID: 4, Name: "Монитор 27"},
	}

	ranked := s.FindMatches(item, candidates)
	if len(ranked) == 0 {
		t.Fatalf("expected at least one candidate")
	}
	if ranked[0].ProductID != 2 {
		t.Fatalf("expected product 2 ranked first, got %d", ranked[0].ProductID)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Fatalf("candidates not sorted by descending score at index %d", i)
		}
	}
	for _, c := range ranked {
		if c.Score <= 0 {
			t.Fatalf("zero-score candidate %d not dropped", c.ProductID)
		}
	}
}

func TestTokens_DecimalSurvivesAsOneToken(t *testing.T) {
	got := Tokens("Hose 1.9m green")
	want := []string{"hose", "1.9m", "green"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestNormalize_PunctuationAndCase(t *testing.T) {
	if got := Normalize("USB-C  Cable, (2m)"); got != "usb c cable 2m" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}
