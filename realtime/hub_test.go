package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestEventTopic(t *testing.T) {
	assert.Equal(t, "posts", Event{Collection: "posts"}.Topic())
	assert.Equal(t, "likes:p1", Event{Collection: "likes", Key: "p1"}.Topic())
}

func TestHubDeliversToMatchingTopic(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	sub := hub.Subscribe(ctx, "posts")
	defer sub.Close()

	hub.Publish(ctx, Event{Collection: "posts"})

	event := receive(t, sub)
	assert.Equal(t, "posts", event.Collection)
}

func TestHubScopesByKey(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	p1 := hub.Subscribe(ctx, "likes:p1")
	defer p1.Close()
	p2 := hub.Subscribe(ctx, "likes:p2")
	defer p2.Close()

	hub.Publish(ctx, Event{Collection: "likes", Key: "p1"})

	event := receive(t, p1)
	assert.Equal(t, "p1", event.Key)

	select {
	case event := <-p2.Events():
		t.Fatalf("subscription for p2 received %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubIndependentConcurrentSubscriptions(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	first := hub.Subscribe(ctx, "posts")
	defer first.Close()
	second := hub.Subscribe(ctx, "posts")
	defer second.Close()

	hub.Publish(ctx, Event{Collection: "posts"})

	assert.Equal(t, "posts", receive(t, first).Collection)
	assert.Equal(t, "posts", receive(t, second).Collection)
}

func TestHubCloseStopsDelivery(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	sub := hub.Subscribe(ctx, "posts")
	sub.Close()

	// Publishing after close must neither panic nor deliver.
	hub.Publish(ctx, Event{Collection: "posts"})

	_, ok := <-sub.Events()
	assert.False(t, ok, "events channel must be closed after Close")

	// Close is idempotent.
	sub.Close()
}

func TestHubCoalescesWhenSubscriberLagsBehind(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	sub := hub.Subscribe(ctx, "posts")
	defer sub.Close()

	for i := 0; i < subscriberBuffer*3; i++ {
		hub.Publish(ctx, Event{Collection: "posts"})
	}

	delivered := 0
	for {
		select {
		case <-sub.Events():
			delivered++
			continue
		default:
		}
		break
	}
	assert.Greater(t, delivered, 0)
	assert.LessOrEqual(t, delivered, subscriberBuffer)
}
