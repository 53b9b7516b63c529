package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"devevent/internal/store"
)

// schema creates the events and bookings tables. Bookings carry no foreign
// key: the ledger checks that the event exists before inserting.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		title       TEXT NOT NULL,
		slug        TEXT NOT NULL,
		description TEXT NOT NULL,
		overview    TEXT NOT NULL,
		image       TEXT NOT NULL,
		venue       TEXT NOT NULL,
		location    TEXT NOT NULL,
		date        TEXT NOT NULL,
		time        TEXT NOT NULL,
		mode        TEXT NOT NULL CHECK (mode IN ('online', 'offline', 'hybrid')),
		audience    TEXT NOT NULL,
		agenda      TEXT[] NOT NULL CHECK (cardinality(agenda) > 0),
		organizer   TEXT NOT NULL,
		tags        TEXT[] NOT NULL CHECK (cardinality(tags) > 0),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT events_slug_key UNIQUE (slug)
	)`,
	`CREATE INDEX IF NOT EXISTS events_tags_idx ON events USING GIN (tags)`,
	`CREATE INDEX IF NOT EXISTS events_created_at_idx ON events (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		event_id   TEXT NOT NULL,
		email      TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT bookings_event_email_key UNIQUE (event_id, email)
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_event_id_idx ON bookings (event_id)`,
}

// Migrate creates the tables and indexes if they do not exist yet.
func Migrate(ctx context.Context, conn *store.Connector[*sql.DB]) error {
	db, err := conn.Get(ctx)
	if err != nil {
		return err
	}
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
