package tasks

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type sessionStore interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// CleanExpiredSessions drops sessions past their expiry once an hour, so the
// sessions table does not grow with abandoned sign-ins.
func CleanExpiredSessions(store sessionStore) {
	for {
		<-time.After(1 * time.Hour)
		deleted, err := store.DeleteExpiredSessions(context.Background())
		if err != nil {
			log.Errorf("Error cleaning expired sessions: %v", err)
			continue
		}
		if deleted > 0 {
			log.Infof("Cleaned %d expired sessions", deleted)
		}
	}
}
