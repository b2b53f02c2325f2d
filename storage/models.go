package storage

import "time"

// Profile is the public identity attached to a user. One row per user,
// created together with the account.
type Profile struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	FullName  *string `json:"full_name"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ImageURL  string    `json:"image_url"`
	Caption   *string   `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedPost is a post expanded with its owning profile, as the feed renders it.
type FeedPost struct {
	Post
	AuthorUsername  string  `json:"author_username"`
	AuthorAvatarURL *string `json:"author_avatar_url"`
}

// Like is a (post, user) membership fact. Presence means "this user likes
// this post"; the pair is the identity.
type Like struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}
