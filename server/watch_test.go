package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festgnim-crypto/glimpse-snap-grid/auth"
	"github.com/festgnim-crypto/glimpse-snap-grid/realtime"
)

func TestParseTopics(t *testing.T) {
	session := &auth.Session{Token: "t", UserID: "u1"}

	tests := []struct {
		name    string
		raw     string
		session *auth.Session
		want    bool
	}{
		{"posts", "posts", nil, true},
		{"likes scoped to a post", "likes:p1", nil, true},
		{"several topics", "posts,likes:p1", nil, true},
		{"own session topic", "session:u1", session, true},
		{"foreign session topic", "session:u2", session, false},
		{"session topic without viewer", "session:u1", nil, false},
		{"bare likes", "likes:", nil, false},
		{"unknown collection", "profiles", nil, false},
		{"empty", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseTopics(tt.raw, tt.session)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestWatchForwardsChangeSignals(t *testing.T) {
	env := newTestEnv()
	testServer := httptest.NewServer(env.server.Handler())
	defer testServer.Close()

	wsURL := "ws" + strings.TrimPrefix(testServer.URL, "http") + "/ws?topics=likes:P1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The handler reaches Subscribe only after the upgrade completes.
	require.Eventually(t, func() bool {
		return env.hub.Subscribers("likes:P1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	// A signal for another post must not reach this subscription.
	env.hub.Publish(context.Background(), realtime.Event{Collection: "likes", Key: "P2"})
	env.hub.Publish(context.Background(), realtime.Event{Collection: "likes", Key: "P1"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var event realtime.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "likes", event.Collection)
	assert.Equal(t, "P1", event.Key)
}

func TestWatchRejectsInvalidTopics(t *testing.T) {
	env := newTestEnv()
	recorder := env.do(http.MethodGet, "/ws?topics=users", nil)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
