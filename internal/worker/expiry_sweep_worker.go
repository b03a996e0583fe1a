package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/shelf_api/internal/realtime"
	"github.com/GTDGit/shelf_api/internal/service"
)

// ExpirySweepWorker re-evaluates urgency as the calendar advances. Nothing in
// the store changes when an item crosses into a new tier, so connected clients
// are told to refetch at every interval and right after midnight.
type ExpirySweepWorker struct {
	stockSvc *service.StockService
	hub      *realtime.Hub
	interval time.Duration
	now      func() time.Time
}

// NewExpirySweepWorker constructs an ExpirySweepWorker.
func NewExpirySweepWorker(stockSvc *service.StockService, hub *realtime.Hub, interval time.Duration) *ExpirySweepWorker {
	return &ExpirySweepWorker{
		stockSvc: stockSvc,
		hub:      hub,
		interval: interval,
		now:      time.Now,
	}
}

// Start begins the sweep loop until context is canceled.
func (w *ExpirySweepWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting expiry sweep worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	rollover := time.NewTimer(untilNextDay(w.now()))
	defer rollover.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-rollover.C:
			log.Info().Msg("Day rollover, refreshing expiry tiers")
			w.run(ctx)
			rollover.Reset(untilNextDay(w.now()))
		case <-ctx.Done():
			log.Info().Msg("Expiry sweep worker stopped")
			return
		}
	}
}

func (w *ExpirySweepWorker) run(ctx context.Context) {
	w.hub.PublishAll(realtime.EventRefresh)

	counts, err := w.stockSvc.CriticalCounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count critical stock")
		return
	}
	total := 0
	for shopID, n := range counts {
		total += n
		log.Info().Str("shop_id", shopID).Int("critical", n).Msg("Critical stock pending")
	}
	log.Info().Int("shops", len(counts)).Int("critical", total).Int("clients", w.hub.ClientCount()).Msg("Expiry sweep completed")
}

// untilNextDay returns the time left until local midnight after now, plus a second of slack.
func untilNextDay(now time.Time) time.Duration {
	y, m, d := now.Date()
	next := time.Date(y, m, d+1, 0, 0, 1, 0, now.Location())
	return next.Sub(now)
}
