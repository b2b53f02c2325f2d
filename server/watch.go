package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/festgnim-crypto/glimpse-snap-grid/auth"
	"github.com/festgnim-crypto/glimpse-snap-grid/monitoring"
	"github.com/festgnim-crypto/glimpse-snap-grid/storage"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// watchChanges bridges the change-notification channel to one mounted
// screen. The screen names its topics in the query string; every event is
// forwarded as a signal and the screen reacts by re-fetching, never by
// reading the event as data. The subscription lives exactly as long as the
// connection: any exit path tears it down.
func (s *Server) watchChanges(c *gin.Context) {
	topics, ok := parseTopics(c.Query("topics"), viewer(c))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid topics"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	monitoring.ActiveWatchers.Inc()
	defer monitoring.ActiveWatchers.Dec()

	sub := s.notifier.Subscribe(c.Request.Context(), topics...)
	defer sub.Close()

	// The read loop only detects the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Errorf("Error forwarding change event: %v", err)
				return
			}
			monitoring.ChangeEventsTotal.WithLabelValues(event.Collection).Inc()
		case <-closed:
			return
		}
	}
}

// parseTopics validates the requested subscription topics. Posts and
// per-post likes are public; a session topic is only watchable by its own
// user.
func parseTopics(raw string, session *auth.Session) ([]string, bool) {
	if raw == "" {
		return nil, false
	}
	topics := strings.Split(raw, ",")
	for _, topic := range topics {
		switch {
		case topic == storage.CollectionPosts:
		case strings.HasPrefix(topic, storage.CollectionLikes+":") && len(topic) > len(storage.CollectionLikes)+1:
		case strings.HasPrefix(topic, auth.CollectionSessions+":"):
			if session == nil || topic != auth.CollectionSessions+":"+session.UserID {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return topics, true
}
