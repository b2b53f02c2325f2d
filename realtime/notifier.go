// Package realtime carries change notifications between the collections a
// mutation lands in and the screens watching them. Events are signals only:
// subscribers react by re-querying, never by consuming an event payload.
package realtime

import (
	"context"
	"fmt"
)

// Event identifies a mutated collection, optionally narrowed to one key
// (e.g. the post whose likes changed). It carries no row data.
type Event struct {
	Collection string `json:"collection"`
	Key        string `json:"key,omitempty"`
}

func (e Event) Topic() string {
	if e.Key == "" {
		return e.Collection
	}
	return fmt.Sprintf("%s:%s", e.Collection, e.Key)
}

// Subscription is one component's view on a set of topics. Close releases it;
// after Close returns, no further events are delivered and Events is closed.
type Subscription interface {
	Events() <-chan Event
	Close()
}

// Notifier fans mutation signals out to any number of concurrent
// subscriptions. Delivery is at-least-once at best: bursts may coalesce and
// ordering between topics is not guaranteed.
type Notifier interface {
	Publish(ctx context.Context, event Event)
	Subscribe(ctx context.Context, topics ...string) Subscription
}
