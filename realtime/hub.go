package realtime

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// Hub is the in-process Notifier. It backs tests and single-node deployments
// where no Redis is configured.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*hubSubscription]struct{}
}

func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*hubSubscription]struct{}),
	}
}

func (h *Hub) Publish(_ context.Context, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.topics[event.Topic()] {
		select {
		case sub.events <- event:
		default:
			// Subscriber is behind; the pending signal already forces a
			// re-query, so the burst coalesces.
		}
	}
}

func (h *Hub) Subscribe(_ context.Context, topics ...string) Subscription {
	sub := &hubSubscription{
		hub:    h,
		topics: topics,
		events: make(chan Event, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range topics {
		set, ok := h.topics[topic]
		if !ok {
			set = make(map[*hubSubscription]struct{})
			h.topics[topic] = set
		}
		set[sub] = struct{}{}
	}
	return sub
}

// Subscribers reports how many subscriptions watch a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}

type hubSubscription struct {
	hub    *Hub
	topics []string
	events chan Event
	once   sync.Once
}

func (s *hubSubscription) Events() <-chan Event {
	return s.events
}

func (s *hubSubscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		for _, topic := range s.topics {
			delete(s.hub.topics[topic], s)
			if len(s.hub.topics[topic]) == 0 {
				delete(s.hub.topics, topic)
			}
		}
		s.hub.mu.Unlock()
		// Publish sends under the hub lock, so nothing can race this close.
		close(s.events)
	})
}
