package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/festgnim-crypto/glimpse-snap-grid/auth"
)

const viewerContextKey = "viewer"

// resolveViewer reads the session cookie and attaches the session, when one
// exists, to the request context. Absence is not an error here; each route
// decides whether a viewer is required.
func (s *Server) resolveViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(s.config.Sessions.CookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}
		session, err := s.auth.Session(c.Request.Context(), token)
		if err != nil {
			log.Errorf("Error resolving session: %v", err)
			c.Next()
			return
		}
		if session != nil {
			c.Set(viewerContextKey, session)
		}
		c.Next()
	}
}

// requirePageViewer is the session guard for screens: no session means
// navigate to the auth screen, and the screen loads no data.
func (s *Server) requirePageViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if viewer(c) == nil {
			c.Redirect(http.StatusFound, "/auth")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireAPIViewer guards data endpoints that only make sense signed in.
func (s *Server) requireAPIViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if viewer(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please sign in"})
			return
		}
		c.Next()
	}
}

func viewer(c *gin.Context) *auth.Session {
	value, ok := c.Get(viewerContextKey)
	if !ok {
		return nil
	}
	session, ok := value.(*auth.Session)
	if !ok {
		return nil
	}
	return session
}

func (s *Server) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetCookie(
		s.config.Sessions.CookieName,
		token,
		maxAge,
		"/",
		s.config.Server.CookieDomain,
		false,
		true,
	)
}
