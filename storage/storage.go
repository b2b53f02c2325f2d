// Package storage is the structured-data side of the backend: per-collection
// queries with equality filters and DESC ordering, inserts, deletes, and the
// posts→profiles join expansion the feed needs. Every mutation publishes a
// change event after it commits.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/festgnim-crypto/glimpse-snap-grid/realtime"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = errors.New("storage: not found")

const (
	CollectionPosts = "posts"
	CollectionLikes = "likes"
)

type Manager struct {
	pool     *pgxpool.Pool
	notifier realtime.Notifier
}

func NewManager(pool *pgxpool.Pool, notifier realtime.Notifier) *Manager {
	return &Manager{
		pool:     pool,
		notifier: notifier,
	}
}

// FeedPosts returns every post joined with its owning profile, newest first.
func (m *Manager) FeedPosts(ctx context.Context) ([]FeedPost, error) {
	rows, err := m.pool.Query(ctx, `
		SELECT p.id, p.user_id, p.image_url, p.caption, p.created_at,
		       pr.username, pr.avatar_url
		FROM posts p
		JOIN profiles pr ON pr.id = p.user_id
		ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying feed posts: %w", err)
	}
	defer rows.Close()

	posts := make([]FeedPost, 0)
	for rows.Next() {
		var post FeedPost
		err := rows.Scan(
			&post.ID, &post.UserID, &post.ImageURL, &post.Caption,
			&post.CreatedAt, &post.AuthorUsername, &post.AuthorAvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning feed post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// PostsByUser returns one user's posts, newest first.
func (m *Manager) PostsByUser(ctx context.Context, userID string) ([]Post, error) {
	rows, err := m.pool.Query(ctx, `
		SELECT id, user_id, image_url, caption, created_at
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying posts for user %s: %w", userID, err)
	}
	defer rows.Close()

	posts := make([]Post, 0)
	for rows.Next() {
		var post Post
		err := rows.Scan(&post.ID, &post.UserID, &post.ImageURL, &post.Caption, &post.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (m *Manager) CreatePost(ctx context.Context, post Post) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO posts (id, user_id, image_url, caption, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		post.ID, post.UserID, post.ImageURL, post.Caption, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}
	m.notifier.Publish(ctx, realtime.Event{Collection: CollectionPosts})
	return nil
}

func (m *Manager) ProfileByID(ctx context.Context, userID string) (*Profile, error) {
	var profile Profile
	err := m.pool.QueryRow(ctx, `
		SELECT id, username, full_name, bio, avatar_url
		FROM profiles
		WHERE id = $1`,
		userID,
	).Scan(&profile.ID, &profile.Username, &profile.FullName, &profile.Bio, &profile.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile %s: %w", userID, err)
	}
	return &profile, nil
}

func (m *Manager) CreateProfile(ctx context.Context, profile Profile) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO profiles (id, username, full_name, bio, avatar_url)
		VALUES ($1, $2, $3, $4, $5)`,
		profile.ID, profile.Username, profile.FullName, profile.Bio, profile.AvatarURL,
	)
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

// LikesForPost returns every like row for one post. Count and membership are
// derived by the caller.
func (m *Manager) LikesForPost(ctx context.Context, postID string) ([]Like, error) {
	rows, err := m.pool.Query(ctx, `
		SELECT post_id, user_id, created_at
		FROM likes
		WHERE post_id = $1`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying likes for post %s: %w", postID, err)
	}
	defer rows.Close()

	likes := make([]Like, 0)
	for rows.Next() {
		var like Like
		if err := rows.Scan(&like.PostID, &like.UserID, &like.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning like: %w", err)
		}
		likes = append(likes, like)
	}
	return likes, rows.Err()
}

func (m *Manager) CreateLike(ctx context.Context, like Like) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO likes (post_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO NOTHING`,
		like.PostID, like.UserID, like.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting like: %w", err)
	}
	m.notifier.Publish(ctx, realtime.Event{Collection: CollectionLikes, Key: like.PostID})
	return nil
}

func (m *Manager) DeleteLike(ctx context.Context, postID, userID string) error {
	_, err := m.pool.Exec(ctx,
		`DELETE FROM likes WHERE post_id = $1 AND user_id = $2`,
		postID, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting like: %w", err)
	}
	m.notifier.Publish(ctx, realtime.Event{Collection: CollectionLikes, Key: postID})
	return nil
}

func (m *Manager) CreateUser(ctx context.Context, user User) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (m *Manager) UserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := m.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return &user, nil
}

func (m *Manager) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := m.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE username = $1)`,
		username,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("checking username: %w", err)
	}
	return taken, nil
}

func (m *Manager) CreateSession(ctx context.Context, session Session) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES ($1, $2, $3)`,
		session.Token, session.UserID, session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// SessionByToken resolves a live session. Expired rows count as absent.
func (m *Manager) SessionByToken(ctx context.Context, token string) (*Session, error) {
	var session Session
	err := m.pool.QueryRow(ctx, `
		SELECT token, user_id, expires_at
		FROM sessions
		WHERE token = $1 AND expires_at > now()`,
		token,
	).Scan(&session.Token, &session.UserID, &session.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return &session, nil
}

func (m *Manager) DeleteSession(ctx context.Context, token string) error {
	_, err := m.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions is run periodically by the cleaner task.
func (m *Manager) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := m.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
