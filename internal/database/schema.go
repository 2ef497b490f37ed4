package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is idempotent DDL for the three tables.
//
// registrations_event_user_key is what guarantees one row per (event, user);
// the service relies on it to turn a lost insert race into AlreadyRegistered.
// Registrations follow their event on delete. Users are never hard-deleted.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	name          TEXT        NOT NULL,
	email         TEXT        NOT NULL,
	password_hash TEXT        NOT NULL DEFAULT '',
	role          TEXT        NOT NULL DEFAULT 'user'
	              CHECK (role IN ('user', 'admin', 'organiser')),
	is_deleted    BOOLEAN     NOT NULL DEFAULT false,
	deleted_at    TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_key ON users (lower(email));

CREATE TABLE IF NOT EXISTS events (
	id           UUID PRIMARY KEY,
	name         TEXT        NOT NULL,
	description  TEXT        NOT NULL DEFAULT '',
	date         TIMESTAMPTZ NOT NULL,
	location     TEXT        NOT NULL,
	capacity     INTEGER     NOT NULL CHECK (capacity > 0),
	organiser_id UUID        NOT NULL REFERENCES users (id),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS events_date_idx ON events (date);

CREATE TABLE IF NOT EXISTS registrations (
	id                  UUID PRIMARY KEY,
	event_id            UUID        NOT NULL REFERENCES events (id) ON DELETE CASCADE,
	user_id             UUID        NOT NULL REFERENCES users (id),
	status              TEXT        NOT NULL DEFAULT 'registered'
	                    CHECK (status IN ('registered', 'cancelled')),
	registered_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	cancelled_at        TIMESTAMPTZ,
	cancellation_reason TEXT,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT registrations_event_user_key UNIQUE (event_id, user_id)
);
CREATE INDEX IF NOT EXISTS registrations_event_status_idx ON registrations (event_id, status);
CREATE INDEX IF NOT EXISTS registrations_user_status_idx ON registrations (user_id, status);
`

// EnsureSchema applies Schema. Safe to call on every start.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
