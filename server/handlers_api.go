package server

import (
	"errors"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	log "github.com/sirupsen/logrus"

	"github.com/festgnim-crypto/glimpse-snap-grid/auth"
	"github.com/festgnim-crypto/glimpse-snap-grid/storage"
)

func (s *Server) postSignUp(c *gin.Context) {
	email := c.PostForm("email")
	username := c.PostForm("username")
	password := c.PostForm("password")

	session, err := s.auth.SignUp(c.Request.Context(), email, username, password)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, auth.ErrEmailTaken) || errors.Is(err, auth.ErrUsernameTaken) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	s.setSessionCookie(c, session.Token, int(s.config.Sessions.TTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"message": "Account created!"})
}

func (s *Server) postSignIn(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	session, err := s.auth.SignIn(c.Request.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		log.Errorf("Error signing in: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.setSessionCookie(c, session.Token, int(s.config.Sessions.TTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"message": "Signed in!"})
}

func (s *Server) postLogout(c *gin.Context) {
	if err := s.auth.SignOut(c.Request.Context(), viewer(c)); err != nil {
		log.Errorf("Error signing out: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error signing out"})
		return
	}
	s.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

// listPosts serves the feed: every post with its owning profile expanded,
// newest first. The feed screen re-fetches this on every posts change event.
func (s *Server) listPosts(c *gin.Context) {
	posts, err := s.store.FeedPosts(c.Request.Context())
	if err != nil {
		log.Errorf("Error fetching feed posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving posts"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (s *Server) createPost(c *gin.Context) {
	imageURL, caption, err := validatePostInput(c.PostForm("image_url"), c.PostForm("caption"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	postID, err := uuid.NewV4()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	post := storage.Post{
		ID:        postID.String(),
		UserID:    viewer(c).UserID,
		ImageURL:  imageURL,
		CreatedAt: time.Now(),
	}
	if caption != "" {
		post.Caption = &caption
	}

	if err := s.store.CreatePost(c.Request.Context(), post); err != nil {
		log.Errorf("Error creating post: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully!", "id": post.ID})
}

// uploadImage stores a picked file in the object store and returns the URL
// the create form submits as image_url.
func (s *Server) uploadImage(c *gin.Context) {
	if s.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please pick an image file"})
		return
	}
	reader, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the image file"})
		return
	}
	defer reader.Close()

	objectID, err := uuid.NewV4()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	objectName := viewer(c).UserID + "/" + objectID.String() + path.Ext(file.Filename)

	url, err := s.images.Upload(
		c.Request.Context(),
		objectName,
		reader,
		file.Size,
		file.Header.Get("Content-Type"),
	)
	if err != nil {
		log.Errorf("Error uploading image: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// getLikes reports the like count of a post and whether the viewer is among
// the likers. Post cards re-fetch this on every likes:<id> change event.
func (s *Server) getLikes(c *gin.Context) {
	postID := c.Param("id")
	likes, err := s.store.LikesForPost(c.Request.Context(), postID)
	if err != nil {
		log.Errorf("Error fetching likes for post %s: %v", postID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving likes"})
		return
	}

	liked := false
	if session := viewer(c); session != nil {
		for _, like := range likes {
			if like.UserID == session.UserID {
				liked = true
				break
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(likes), "liked": liked})
}

// toggleLike inserts or deletes the (post, viewer) like row depending on
// current membership. The card does not update optimistically; its count
// changes when the change event triggers a re-fetch.
func (s *Server) toggleLike(c *gin.Context) {
	session := viewer(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to like posts"})
		return
	}

	postID := c.Param("id")
	likes, err := s.store.LikesForPost(c.Request.Context(), postID)
	if err != nil {
		log.Errorf("Error fetching likes for post %s: %v", postID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error toggling like"})
		return
	}

	liked := false
	for _, like := range likes {
		if like.UserID == session.UserID {
			liked = true
			break
		}
	}

	if liked {
		err = s.store.DeleteLike(c.Request.Context(), postID, session.UserID)
	} else {
		err = s.store.CreateLike(c.Request.Context(), storage.Like{
			PostID:    postID,
			UserID:    session.UserID,
			CreatedAt: time.Now(),
		})
	}
	if err != nil {
		log.Errorf("Error toggling like on post %s: %v", postID, err)
		message := "Error adding like"
		if liked {
			message = "Error removing like"
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": !liked})
}

// getProfileData serves the viewer's profile attributes and own posts. An
// absent profile row is not an error; its fields come back null and the
// screen shows placeholders.
func (s *Server) getProfileData(c *gin.Context) {
	session := viewer(c)

	profile, err := s.store.ProfileByID(c.Request.Context(), session.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Errorf("Error fetching profile %s: %v", session.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving profile"})
		return
	}

	posts, err := s.store.PostsByUser(c.Request.Context(), session.UserID)
	if err != nil {
		log.Errorf("Error fetching posts for user %s: %v", session.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":    profile,
		"posts":      posts,
		"post_count": len(posts),
	})
}
