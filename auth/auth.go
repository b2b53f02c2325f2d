// Package auth owns account and session lifecycle. Screens only ever ask
// three things of it: the current session, sign-out, and the sign-in/sign-up
// pair behind the auth screen.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/festgnim-crypto/glimpse-snap-grid/realtime"
	"github.com/festgnim-crypto/glimpse-snap-grid/storage"
)

var (
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken is returned when signing up with a taken username.
	ErrUsernameTaken = errors.New("username already taken")
)

const (
	maxEmail    = 100
	maxUsername = 50
	minPassword = 8
	maxPassword = 100
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const CollectionSessions = "session"

// Session is the authenticated identity plus its credential token.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Store is the slice of the storage layer the auth service needs.
type Store interface {
	CreateUser(ctx context.Context, user storage.User) error
	UserByEmail(ctx context.Context, email string) (*storage.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	CreateProfile(ctx context.Context, profile storage.Profile) error
	CreateSession(ctx context.Context, session storage.Session) error
	SessionByToken(ctx context.Context, token string) (*storage.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

type Service struct {
	store      Store
	notifier   realtime.Notifier
	sessionTTL time.Duration
}

func NewService(store Store, notifier realtime.Notifier, sessionTTL time.Duration) *Service {
	return &Service{
		store:      store,
		notifier:   notifier,
		sessionTTL: sessionTTL,
	}
}

// Session resolves a token to a live session. Absence is the only negative
// outcome callers distinguish; it is reported as a nil session, not an error.
func (s *Service) Session(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	row, err := s.store.SessionByToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Session{Token: row.Token, UserID: row.UserID, ExpiresAt: row.ExpiresAt}, nil
}

// SignUp registers the account and its profile row in one step, then signs
// the new user in.
func (s *Service) SignUp(ctx context.Context, email, username, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if err := validateSignUp(email, username, password); err != nil {
		return nil, err
	}

	if _, err := s.store.UserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	taken, err := s.store.UsernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	userID, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	user := storage.User{
		ID:           userID.String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.store.CreateProfile(ctx, storage.Profile{ID: user.ID, Username: username}); err != nil {
		return nil, err
	}

	return s.openSession(ctx, user.ID)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, user.ID)
}

// SignOut deletes the session and notifies watchers of that user's session
// so open screens navigate away.
func (s *Service) SignOut(ctx context.Context, session *Session) error {
	if session == nil {
		return nil
	}
	if err := s.store.DeleteSession(ctx, session.Token); err != nil {
		return err
	}
	s.notifier.Publish(ctx, realtime.Event{Collection: CollectionSessions, Key: session.UserID})
	return nil
}

func (s *Service) openSession(ctx context.Context, userID string) (*Session, error) {
	token, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	session := storage.Session{
		Token:     token.String(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	s.notifier.Publish(ctx, realtime.Event{Collection: CollectionSessions, Key: userID})
	return &Session{Token: session.Token, UserID: session.UserID, ExpiresAt: session.ExpiresAt}, nil
}

func validateSignUp(email, username, password string) error {
	if len(email) == 0 || len(email) > maxEmail || !emailRegex.MatchString(email) {
		return errors.New("invalid email address")
	}
	if len(username) == 0 {
		return errors.New("username cannot be empty")
	}
	if len(username) > maxUsername {
		return fmt.Errorf("username cannot be longer than %d characters", maxUsername)
	}
	if len(password) < minPassword {
		return fmt.Errorf("password must be at least %d characters long", minPassword)
	}
	if len(password) > maxPassword {
		return fmt.Errorf("password cannot be longer than %d characters", maxPassword)
	}
	return nil
}
