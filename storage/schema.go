package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
		username TEXT UNIQUE NOT NULL,
		full_name TEXT,
		bio TEXT,
		avatar_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		image_url TEXT NOT NULL,
		caption TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS likes (
		post_id UUID NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (post_id, user_id)
	)`,
}

// Bootstrap creates the tables if they do not exist yet.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Errorf("Error bootstrapping schema: %v", err)
			return err
		}
	}
	return nil
}
