package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const channelPrefix = "changes__"

// RedisNotifier carries change events over Redis pub/sub so that every node
// of the service sees mutations applied through any other node.
type RedisNotifier struct {
	redisClient *redis.Client
}

func NewRedisNotifier(options *redis.Options) *RedisNotifier {
	return &RedisNotifier{
		redisClient: redis.NewClient(options),
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, event Event) {
	bytes, err := json.Marshal(event)
	if err != nil {
		log.Errorf("Error marshalling change event: %s", err)
		return
	}
	if err := n.redisClient.Publish(ctx, channelPrefix+event.Topic(), bytes).Err(); err != nil {
		log.Errorf("Error publishing change event for %s: %s", event.Topic(), err)
	}
}

func (n *RedisNotifier) Subscribe(ctx context.Context, topics ...string) Subscription {
	channels := make([]string, len(topics))
	for i, topic := range topics {
		channels[i] = channelPrefix + topic
	}
	pubsub := n.redisClient.Subscribe(ctx, channels...)

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan Event, subscriberBuffer),
	}
	go sub.consume()
	return sub
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan Event
	once   sync.Once
}

func (s *redisSubscription) consume() {
	defer close(s.events)
	for message := range s.pubsub.Channel() {
		var event Event
		if err := json.Unmarshal([]byte(message.Payload), &event); err != nil {
			log.Errorf("Error unmarshalling change event: %s", err)
			continue
		}
		select {
		case s.events <- event:
		default:
			// Coalesce: a pending signal already forces a re-query.
		}
	}
}

func (s *redisSubscription) Events() <-chan Event {
	return s.events
}

func (s *redisSubscription) Close() {
	s.once.Do(func() {
		// Closing the pubsub ends the consume loop, which closes events.
		if err := s.pubsub.Close(); err != nil {
			log.Errorf("Error closing pubsub subscription: %s", err)
		}
	})
}
