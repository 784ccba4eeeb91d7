package db

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT users_email_key UNIQUE (email)
	);`,
	`CREATE TABLE IF NOT EXISTS snippets (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		code        TEXT NOT NULL,
		visibility  TEXT NOT NULL DEFAULT 'public' CHECK (visibility IN ('public', 'private')),
		creator_id  TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_snippets_public_created
		ON snippets (created_at DESC, id DESC) WHERE visibility = 'public';`,
	`CREATE INDEX IF NOT EXISTS idx_snippets_creator ON snippets (creator_id);`,
}

// Migrate creates the tables the API needs. Every statement is idempotent.
func (b *Base) Migrate(ctx context.Context) error {
	for i, stmt := range postgresSchema {
		ctx, cancel := b.WithTimeout(ctx)
		_, err := b.Q().Exec(ctx, stmt)
		cancel()
		if err != nil {
			return fmt.Errorf("postgres: migration %d: %w", i, err)
		}
	}
	return nil
}
