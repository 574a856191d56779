package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/supplysync/catalog_api/internal/extractor"
	"github.com/supplysync/catalog_api/internal/models"
)

// EnrichService runs the registered feature extractors over a supplier
// item's name and merges the results into its characteristics. Extraction is
// best-effort: invalid fields are dropped by the extractors, and existing
// attribute values (manual or prior data) always win over extracted ones.
type EnrichService struct {
	items      ItemStore
	extractors *extractor.Registry
	db         sqlx.ExtContext
}

// NewEnrichService constructs an EnrichService.
func NewEnrichService(items ItemStore, extractors *extractor.Registry, db sqlx.ExtContext) *EnrichService {
	return &EnrichService{items: items, extractors: extractors, db: db}
}

// EnrichItem extracts attributes for one item. extractorName restricts the
// run to a single extractor; empty runs them all. An unknown extractor name
// is a no-op with a warning rather than an error - extraction never fails
// the pipeline.
func (s *EnrichService) EnrichItem(ctx context.Context, itemID int, extractorName string) error {
	item, err := s.items.GetByID(ctx, s.db, itemID)
	if err != nil {
		return err
	}

	var extractors []extractor.Extractor
	if extractorName != "" {
		e := s.extractors.Get(extractorName)
		if e == nil {
			log.Warn().Str("extractor", extractorName).Int("item_id", itemID).Msg("Unknown extractor requested, skipping enrichment")
			return nil
		}
		extractors = []extractor.Extractor{e}
	} else {
		extractors = s.extractors.All()
	}

	// Only the keys absent from the read snapshot are sent to the store,
	// which merges them atomically with existing values winning. Writes
	// that land between the read and the merge are therefore kept too.
	extracted := make(models.Characteristics)
	for _, e := range extractors {
		for k, v := range e.Extract(item.Name) {
			if _, exists := item.Characteristics[k]; exists {
				continue
			}
			if _, exists := extracted[k]; exists {
				continue
			}
			extracted[k] = v
		}
	}

	if len(extracted) == 0 {
		log.Debug().Int("item_id", itemID).Msg("Enrichment extracted nothing new")
		return nil
	}

	if err := s.items.MergeCharacteristics(ctx, itemID, extracted); err != nil {
		return err
	}
	log.Info().Int("item_id", itemID).Int("added", len(extracted)).Msg("Item characteristics enriched")
	return nil
}
