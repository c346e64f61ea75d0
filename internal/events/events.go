// Package events carries order and stock notifications from the HTTP layer
// to realtime clients and to the message bus.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Event types.
const (
	OrderPlaced      = "order.placed"
	OrderHeld        = "order.held"
	OrderResumed     = "order.resumed"
	OrderReady       = "order.ready"
	OrderCompleted   = "order.completed"
	OrderDeleted     = "order.deleted"
	OrdersRefresh    = "orders.refresh"
	StockLow         = "stock.low"
	CompletedCleared = "completed.cleared"
)

type Event struct {
	Type    string          `json:"type"`
	Key     string          `json:"key,omitempty"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

// New marshals payload into an event stamped with the current time. key
// identifies the subject, usually an order id.
func New(typ, key string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: typ, Key: key, Payload: raw, At: time.Now().UTC()}, nil
}

// Publisher delivers events somewhere. Satisfied by *ws.Hub and
// *KafkaPublisher.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Fanout publishes every event to each of its publishers. A failing
// publisher is logged and does not stop the others.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			log.Warn().Err(err).Str("event", e.Type).Msg("publish event")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
