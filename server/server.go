// Package server renders the screens and serves the per-screen data
// endpoints they re-fetch. Each screen owns its session check and its own
// change subscription; no state is shared across screens beyond the backend
// itself.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/festgnim-crypto/glimpse-snap-grid/auth"
	"github.com/festgnim-crypto/glimpse-snap-grid/config"
	"github.com/festgnim-crypto/glimpse-snap-grid/monitoring"
	"github.com/festgnim-crypto/glimpse-snap-grid/realtime"
	"github.com/festgnim-crypto/glimpse-snap-grid/storage"
)

// DataStore is the structured-data surface of the backend, per collection.
type DataStore interface {
	FeedPosts(ctx context.Context) ([]storage.FeedPost, error)
	PostsByUser(ctx context.Context, userID string) ([]storage.Post, error)
	CreatePost(ctx context.Context, post storage.Post) error
	ProfileByID(ctx context.Context, userID string) (*storage.Profile, error)
	LikesForPost(ctx context.Context, postID string) ([]storage.Like, error)
	CreateLike(ctx context.Context, like storage.Like) error
	DeleteLike(ctx context.Context, postID, userID string) error
}

// AuthService is the session surface of the backend.
type AuthService interface {
	Session(ctx context.Context, token string) (*auth.Session, error)
	SignUp(ctx context.Context, email, username, password string) (*auth.Session, error)
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, session *auth.Session) error
}

// ImageStore uploads post images. A nil ImageStore disables direct uploads;
// the create screen then accepts image URLs only.
type ImageStore interface {
	Upload(ctx context.Context, objectName string, object io.Reader, size int64, contentType string) (string, error)
}

type Server struct {
	config   *config.Properties
	store    DataStore
	auth     AuthService
	notifier realtime.Notifier
	images   ImageStore
	router   *gin.Engine
}

func NewServer(
	cfg *config.Properties,
	store DataStore,
	authService AuthService,
	notifier realtime.Notifier,
	images ImageStore,
) *Server {
	s := &Server{
		config:   cfg,
		store:    store,
		auth:     authService,
		notifier: notifier,
		images:   images,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "HEAD", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Cache-Control"},
		AllowCredentials: true,
	}))
	router.Use(monitoring.Middleware())
	router.Use(s.resolveViewer())

	router.LoadHTMLGlob(s.config.Server.TemplateGlob)
	router.Static("/static", s.config.Server.StaticDir)

	pprof.Register(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Screens
	router.GET("/", s.getIndex)
	router.GET("/auth", s.getAuth)
	router.GET("/feed", s.requirePageViewer(), s.getFeed)
	router.GET("/create", s.requirePageViewer(), s.getCreate)
	router.GET("/profile", s.requirePageViewer(), s.getProfile)

	// Session
	router.POST("/api/signup", s.postSignUp)
	router.POST("/api/signin", s.postSignIn)
	router.POST("/api/logout", s.postLogout)

	// Data endpoints the screens re-fetch
	router.GET("/api/posts", s.listPosts)
	router.POST("/api/posts", s.requireAPIViewer(), s.createPost)
	router.POST("/api/uploads", s.requireAPIViewer(), s.uploadImage)
	router.GET("/api/posts/:id/likes", s.getLikes)
	router.POST("/api/posts/:id/like", s.toggleLike)
	router.GET("/api/profile", s.requireAPIViewer(), s.getProfileData)

	// Change notifications
	router.GET("/ws", s.watchChanges)

	router.NoRoute(func(ctx *gin.Context) { ctx.JSON(http.StatusNotFound, gin.H{}) })
	return router
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) httpServer() *http.Server {
	return &http.Server{
		Addr:        fmt.Sprintf(":%s", s.config.Server.Port),
		Handler:     s.router,
		ReadTimeout: s.config.Server.ReadTimeout,
	}
}

func (s *Server) Run() {
	err := s.httpServer().ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		log.Info("Server closed")
	} else if err != nil {
		log.Errorf("Error starting server: %s", err)
		os.Exit(1)
	}
}
