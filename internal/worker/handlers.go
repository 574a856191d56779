package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/supplysync/catalog_api/internal/config"
	"github.com/supplysync/catalog_api/internal/models"
	"github.com/supplysync/catalog_api/internal/service"
)

// NewHandlerMap wires the pipeline services to their task types. Malformed
// payloads are fatal: re-delivering them cannot help.
func NewHandlerMap(
	matches *service.MatchService,
	enrich *service.EnrichService,
	aggregates *service.AggregateService,
	overrides *service.OverrideService,
	reviews *service.ReviewService,
	matchCfg *config.MatchConfig,
) map[models.TaskType]Handler {
	return map[models.TaskType]Handler{
		models.TaskMatchItems: func(ctx context.Context, task *models.Task) error {
			var p models.MatchItemsPayload
			if err := json.Unmarshal(task.Payload, &p); err != nil {
				return Fatal(fmt.Errorf("decode match_items payload: %w", err))
			}
			batchSize := p.BatchSize
			if batchSize <= 0 {
				batchSize = matchCfg.BatchSize
			}
			result, err := matches.RunBatch(ctx, p.CategoryID, batchSize)
			if err != nil {
				return err
			}
			log.Info().
				Int("claimed", result.Claimed).
				Int("auto_matched", result.AutoMatched).
				Int("potential", result.Potential).
				Int("new_products", result.NewProducts).
				Int("needs_category", result.NeedsCategory).
				Msg("Match batch completed")
			return nil
		},

		models.TaskEnrichItem: func(ctx context.Context, task *models.Task) error {
			var p models.EnrichItemPayload
			if err := json.Unmarshal(task.Payload, &p); err != nil {
				return Fatal(fmt.Errorf("decode enrich_item payload: %w", err))
			}
			return enrich.EnrichItem(ctx, p.SupplierItemID, p.ExtractorName)
		},

		models.TaskRecalcAggregates: func(ctx context.Context, task *models.Task) error {
			var p models.RecalcAggregatesPayload
			if err := json.Unmarshal(task.Payload, &p); err != nil {
				return Fatal(fmt.Errorf("decode recalc_aggregates payload: %w", err))
			}
			return aggregates.Recalculate(ctx, p.ProductIDs, p.Trigger)
		},

		models.TaskManualOverride: func(ctx context.Context, task *models.Task) error {
			var p models.ManualOverridePayload
			if err := json.Unmarshal(task.Payload, &p); err != nil {
				return Fatal(fmt.Errorf("decode manual_override payload: %w", err))
			}
			_, err := overrides.Apply(ctx, &service.OverrideRequest{
				Action:         service.OverrideAction(p.Action),
				SupplierItemID: p.SupplierItemID,
				ProductID:      p.ProductID,
				Actor:          p.Actor,
			})
			return err
		},

		models.TaskExpireReviewQueue: func(ctx context.Context, task *models.Task) error {
			_, err := reviews.ExpireDue(ctx)
			return err
		},
	}
}
