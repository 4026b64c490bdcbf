package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the tables and indexes the repositories expect.
// The partial unique index on reservations backs up the in-transaction
// duplicate check in CreateConfirmed; cancelled rows stay around for history
// and are excluded from it.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		salt TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		owner_id UUID NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		capacity INT NOT NULL CHECK (capacity > 0),
		current_attendees INT NOT NULL DEFAULT 0 CHECK (current_attendees >= 0 AND current_attendees <= capacity),
		scheduled_at TIMESTAMPTZ NOT NULL,
		cancelled BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'upcoming',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL,
		user_id UUID NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		cancelled_at TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS reservations_confirmed_unique
		ON reservations (event_id, user_id) WHERE status = 'confirmed'`,
	`CREATE INDEX IF NOT EXISTS reservations_event_status_idx
		ON reservations (event_id, status, created_at)`,
}

// EnsureSchema creates missing tables and indexes. Statements are idempotent,
// so running it on every startup is safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
