package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/supplysync/catalog_api/internal/queue"
)

// Promoter moves delayed tasks whose due time has passed onto the ready
// queue. Retried tasks sit on the delayed set until promoted.
type Promoter struct {
	queue    queue.Queue
	interval time.Duration
}

// NewPromoter constructs a Promoter.
func NewPromoter(q queue.Queue, interval time.Duration) *Promoter {
	if interval <= 0 {
		interval = time.Second
	}
	return &Promoter{queue: q, interval: interval}
}

// Start runs the promotion loop until the context is canceled.
func (p *Promoter) Start(ctx context.Context) {
	log.Info().Dur("interval", p.interval).Msg("Starting delayed task promoter")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := p.queue.PromoteDue(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error().Err(err).Msg("Failed to promote delayed tasks")
				continue
			}
			if n > 0 {
				log.Debug().Int("promoted", n).Msg("Promoted delayed tasks")
			}
		case <-ctx.Done():
			log.Info().Msg("Delayed task promoter stopped")
			return
		}
	}
}
