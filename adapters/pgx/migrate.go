package pgx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied in order inside one transaction. Every statement is
// idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS identities (
		id          uuid PRIMARY KEY,
		email       text NOT NULL,
		preferences jsonb NOT NULL DEFAULT '{}'::jsonb,
		created_at  timestamptz NOT NULL DEFAULT now(),
		updated_at  timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS identities_email_lower_idx ON identities (lower(email))`,
	`CREATE TABLE IF NOT EXISTS transfer_tokens (
		secret_hash text PRIMARY KEY,
		identity_id uuid NOT NULL REFERENCES identities (id) ON DELETE CASCADE,
		expires_at  timestamptz NOT NULL,
		created_at  timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id          text PRIMARY KEY,
		identity_id uuid NOT NULL REFERENCES identities (id) ON DELETE CASCADE,
		token_hash  text NOT NULL UNIQUE,
		ip_address  text NOT NULL DEFAULT '',
		user_agent  text NOT NULL DEFAULT '',
		expires_at  timestamptz NOT NULL,
		created_at  timestamptz NOT NULL DEFAULT now(),
		updated_at  timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_identity_id_idx ON sessions (identity_id)`,
	`CREATE INDEX IF NOT EXISTS sessions_expires_at_idx ON sessions (expires_at)`,
}

// Migrate creates the tables the adapter needs.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}

	return tx.Commit(ctx)
}
