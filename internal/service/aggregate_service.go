package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/supplysync/catalog_api/internal/models"
)

// AggregateService recomputes the derived product aggregates
// (min_price/availability) from currently linked supplier items. The
// recomputation is a pure function of current state, so re-running it for
// the same products is always safe; overlapping triggers produce the same
// values.
type AggregateService struct {
	products ProductStore
	db       sqlx.ExtContext
}

// NewAggregateService constructs an AggregateService. db is used for the
// per-product recompute statements; no surrounding transaction is needed
// because each statement is atomic.
func NewAggregateService(products ProductStore, db sqlx.ExtContext) *AggregateService {
	return &AggregateService{products: products, db: db}
}

// Recalculate recomputes aggregates for each product. The trigger is audit
// context only; it never changes the computation. Individual product
// failures abort the run so the task layer can retry the whole batch -
// recomputing an already-updated product again is harmless.
func (s *AggregateService) Recalculate(ctx context.Context, productIDs []int, trigger models.RecalcTrigger) error {
	for _, id := range productIDs {
		if err := s.products.RecalcAggregates(ctx, s.db, id); err != nil {
			log.Error().Err(err).Int("product_id", id).Str("trigger", string(trigger)).Msg("Aggregate recalculation failed")
			return err
		}
	}
	log.Info().Ints("product_ids", productIDs).Str("trigger", string(trigger)).Msg("Aggregates recalculated")
	return nil
}
