package event

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Subscriber consumes dispatched events. Implementations must tolerate
// redelivery and must not block for long; slow work belongs behind a queue.
type Subscriber interface {
	// Name identifies the subscriber in logs.
	Name() string
	// Handle processes one event. An error is logged, not propagated: a
	// failing subscriber never fails the mutation that produced the event.
	Handle(ctx context.Context, meta Meta, ev Event) error
}

// Dispatcher fans events out to subscribers.
type Dispatcher interface {
	Dispatch(ctx context.Context, meta Meta, events ...Event)
}

// FanOut is a synchronous Dispatcher calling every subscriber in order.
type FanOut struct {
	subscribers []Subscriber
	log         *logrus.Logger
}

// NewFanOut creates a dispatcher over the given subscribers.
func NewFanOut(log *logrus.Logger, subs ...Subscriber) *FanOut {
	return &FanOut{subscribers: subs, log: log}
}

// Dispatch delivers each event to every subscriber. Subscriber errors are
// logged and swallowed.
func (d *FanOut) Dispatch(ctx context.Context, meta Meta, events ...Event) {
	for _, ev := range events {
		for _, sub := range d.subscribers {
			if err := sub.Handle(ctx, meta, ev); err != nil {
				d.log.WithFields(logrus.Fields{
					"subscriber": sub.Name(),
					"event":      string(ev.Kind),
					"entity_id":  ev.EntityID,
					"request_id": meta.RequestID,
				}).WithError(err).Error("event subscriber failed")
			}
		}
	}
}
