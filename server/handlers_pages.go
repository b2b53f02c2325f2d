package server

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/festgnim-crypto/glimpse-snap-grid/storage"
)

// postCard is the render model for one post in the feed.
type postCard struct {
	ID        string
	ImageURL  string
	Caption   string
	Username  string
	AvatarURL string
	Initial   string
	CreatedAt string
}

func buildPostCard(post storage.FeedPost) postCard {
	card := postCard{
		ID:        post.ID,
		ImageURL:  post.ImageURL,
		Username:  post.AuthorUsername,
		CreatedAt: post.CreatedAt.Format("Jan 2, 2006"),
	}
	if post.Caption != nil {
		card.Caption = *post.Caption
	}
	if post.AuthorAvatarURL != nil {
		card.AvatarURL = *post.AuthorAvatarURL
	}
	if card.Username == "" {
		card.Username = "Unknown User"
	}
	card.Initial = initial(card.Username)
	return card
}

// initial returns the uppercased first character of a name, counting runes
// so multibyte usernames keep a whole avatar letter.
func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return ""
	}
	return strings.ToUpper(string(r))
}

func (s *Server) getIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Viewer": viewer(c),
	})
}

func (s *Server) getAuth(c *gin.Context) {
	if viewer(c) != nil {
		c.Redirect(http.StatusFound, "/feed")
		return
	}
	c.HTML(http.StatusOK, "auth.html", gin.H{})
}

func (s *Server) getFeed(c *gin.Context) {
	session := viewer(c)

	posts, err := s.store.FeedPosts(c.Request.Context())
	if err != nil {
		log.Errorf("Error fetching feed posts: %v", err)
		posts = nil
	}

	cards := make([]postCard, 0, len(posts))
	for _, post := range posts {
		cards = append(cards, buildPostCard(post))
	}

	c.HTML(http.StatusOK, "feed.html", gin.H{
		"Viewer": session,
		"Posts":  cards,
	})
}

func (s *Server) getCreate(c *gin.Context) {
	c.HTML(http.StatusOK, "create.html", gin.H{
		"Viewer":     viewer(c),
		"MaxCaption": maxCaption,
		"Uploads":    s.images != nil,
	})
}

func (s *Server) getProfile(c *gin.Context) {
	session := viewer(c)

	// Placeholder fields until a profile row exists; absence is not an error.
	username, fullName, bio, avatarURL := "Unknown User", "", "", ""
	profile, err := s.store.ProfileByID(c.Request.Context(), session.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Errorf("Error fetching profile %s: %v", session.UserID, err)
	}
	if profile != nil {
		if profile.Username != "" {
			username = profile.Username
		}
		if profile.FullName != nil {
			fullName = *profile.FullName
		}
		if profile.Bio != nil {
			bio = *profile.Bio
		}
		if profile.AvatarURL != nil {
			avatarURL = *profile.AvatarURL
		}
	}

	posts, err := s.store.PostsByUser(c.Request.Context(), session.UserID)
	if err != nil {
		log.Errorf("Error fetching posts for user %s: %v", session.UserID, err)
		posts = nil
	}

	c.HTML(http.StatusOK, "profile.html", gin.H{
		"Viewer":    session,
		"Username":  username,
		"FullName":  fullName,
		"Bio":       bio,
		"AvatarURL": avatarURL,
		"Initial":   initial(username),
		"Posts":     posts,
		"PostCount": len(posts),
	})
}
