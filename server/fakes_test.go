package server

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/festgnim-crypto/glimpse-snap-grid/auth"
	"github.com/festgnim-crypto/glimpse-snap-grid/storage"
)

// fakeStore is an in-memory DataStore with the same query semantics as the
// Postgres manager.
type fakeStore struct {
	mu       sync.Mutex
	profiles map[string]storage.Profile
	posts    []storage.Post
	likes    []storage.Like

	failWith error
	fetches  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[string]storage.Profile),
	}
}

func (f *fakeStore) FeedPosts(_ context.Context) ([]storage.FeedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failWith != nil {
		return nil, f.failWith
	}

	feed := make([]storage.FeedPost, 0, len(f.posts))
	for _, post := range f.posts {
		entry := storage.FeedPost{Post: post}
		if profile, ok := f.profiles[post.UserID]; ok {
			entry.AuthorUsername = profile.Username
			entry.AuthorAvatarURL = profile.AvatarURL
		}
		feed = append(feed, entry)
	}
	sort.Slice(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	return feed, nil
}

func (f *fakeStore) PostsByUser(_ context.Context, userID string) ([]storage.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failWith != nil {
		return nil, f.failWith
	}

	posts := make([]storage.Post, 0)
	for _, post := range f.posts {
		if post.UserID == userID {
			posts = append(posts, post)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (f *fakeStore) CreatePost(_ context.Context, post storage.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.posts = append(f.posts, post)
	return nil
}

func (f *fakeStore) ProfileByID(_ context.Context, userID string) (*storage.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &profile, nil
}

func (f *fakeStore) LikesForPost(_ context.Context, postID string) ([]storage.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	likes := make([]storage.Like, 0)
	for _, like := range f.likes {
		if like.PostID == postID {
			likes = append(likes, like)
		}
	}
	return likes, nil
}

func (f *fakeStore) CreateLike(_ context.Context, like storage.Like) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.likes {
		if existing.PostID == like.PostID && existing.UserID == like.UserID {
			return nil
		}
	}
	f.likes = append(f.likes, like)
	return nil
}

func (f *fakeStore) DeleteLike(_ context.Context, postID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	kept := f.likes[:0]
	for _, like := range f.likes {
		if like.PostID != postID || like.UserID != userID {
			kept = append(kept, like)
		}
	}
	f.likes = kept
	return nil
}

func (f *fakeStore) likeCount(postID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, like := range f.likes {
		if like.PostID == postID {
			count++
		}
	}
	return count
}

func (f *fakeStore) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// fakeAuth resolves tokens from a fixed map; sign-in/up/out are not the
// concern of these tests and answer statically.
type fakeAuth struct {
	sessions   map[string]*auth.Session
	signedOut  []string
	signOutErr error
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{sessions: make(map[string]*auth.Session)}
}

func (f *fakeAuth) Session(_ context.Context, token string) (*auth.Session, error) {
	return f.sessions[token], nil
}

func (f *fakeAuth) SignUp(_ context.Context, _, _, _ string) (*auth.Session, error) {
	return &auth.Session{Token: "signup-token", UserID: "signup-user"}, nil
}

func (f *fakeAuth) SignIn(_ context.Context, _, _ string) (*auth.Session, error) {
	return &auth.Session{Token: "signin-token", UserID: "signin-user"}, nil
}

func (f *fakeAuth) SignOut(_ context.Context, session *auth.Session) error {
	if f.signOutErr != nil {
		return f.signOutErr
	}
	if session != nil {
		f.signedOut = append(f.signedOut, session.Token)
		delete(f.sessions, session.Token)
	}
	return nil
}

// fakeImages records uploads and hands back deterministic URLs.
type fakeImages struct {
	uploads []string
}

func (f *fakeImages) Upload(_ context.Context, objectName string, object io.Reader, _ int64, _ string) (string, error) {
	_, _ = io.ReadAll(object)
	f.uploads = append(f.uploads, objectName)
	return "https://images.test/" + objectName, nil
}
