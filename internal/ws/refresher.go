package ws

import (
	"context"
	"time"

	"github.com/kiwari-pos/ledger/internal/events"
	"github.com/rs/zerolog/log"
)

// idlePoll is how often a disabled refresher checks whether it was
// re-enabled.
const idlePoll = 5 * time.Second

// RefreshSource returns the current ongoing-orders payload and the interval
// until the next refresh. An interval <= 0 pauses refreshing.
type RefreshSource func() (payload any, interval time.Duration)

// Refresher periodically pushes the ongoing order list so idle terminals
// pick up elapsed-time changes without polling.
type Refresher struct {
	source RefreshSource
	pub    events.Publisher
}

func NewRefresher(source RefreshSource, pub events.Publisher) *Refresher {
	return &Refresher{source: source, pub: pub}
}

// Run publishes orders.refresh events until ctx is cancelled. The interval
// is re-read after every tick, so settings changes apply without a restart.
func (r *Refresher) Run(ctx context.Context) {
	_, interval := r.source()
	timer := time.NewTimer(next(interval))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			payload, interval := r.source()
			if interval > 0 {
				r.publish(ctx, payload)
			}
			timer.Reset(next(interval))
		}
	}
}

func (r *Refresher) publish(ctx context.Context, payload any) {
	e, err := events.New(events.OrdersRefresh, "", payload)
	if err != nil {
		log.Error().Err(err).Msg("encode refresh payload")
		return
	}
	if err := r.pub.Publish(ctx, e); err != nil {
		log.Warn().Err(err).Msg("publish refresh")
	}
}

func next(interval time.Duration) time.Duration {
	if interval <= 0 {
		return idlePoll
	}
	return interval
}
