// Package sweep runs the single background loop that drives time-based
// behavior: kitchen auto-progression and the notification checks. All
// periodic work lives here so there is exactly one writer racing the
// request handlers.
package sweep

import (
	"context"
	"log"
	"time"

	"dapurpos/backend/internal/service"
)

const (
	kitchenInterval = time.Second
	notifyInterval  = 30 * time.Second
)

type Sweeper struct {
	svc *service.Service

	kitchenEvery time.Duration
	notifyEvery  time.Duration
}

func New(svc *service.Service) *Sweeper {
	return &Sweeper{
		svc:          svc,
		kitchenEvery: kitchenInterval,
		notifyEvery:  notifyInterval,
	}
}

// Run blocks until ctx is cancelled. Errors are logged and the loop keeps
// going; a failed sweep retries on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("[sweep] started (kitchen every %s, notifications every %s)", s.kitchenEvery, s.notifyEvery)

	kitchen := time.NewTicker(s.kitchenEvery)
	defer kitchen.Stop()
	notify := time.NewTicker(s.notifyEvery)
	defer notify.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[sweep] stopped")
			return
		case <-kitchen.C:
			if err := s.svc.AdvanceKitchenOrders(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[sweep] kitchen tick failed: %v", err)
			}
		case <-notify.C:
			if err := s.svc.RunNotificationSweep(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[sweep] notification tick failed: %v", err)
			}
		}
	}
}
