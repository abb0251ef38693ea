package sqlite

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	full_name     TEXT NOT NULL DEFAULT '',
	department    TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL,
	active        INTEGER NOT NULL DEFAULT 1,
	points        INTEGER NOT NULL DEFAULT 0,
	usage_streak  INTEGER NOT NULL DEFAULT 0,
	last_booking  TEXT,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
	id          TEXT PRIMARY KEY,
	room_number TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	capacity    INTEGER NOT NULL CHECK (capacity >= 1),
	building    TEXT NOT NULL DEFAULT '',
	floor       TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	room_type   TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'AVAILABLE',
	active      INTEGER NOT NULL DEFAULT 1,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	id                 TEXT PRIMARY KEY,
	room_id            TEXT NOT NULL REFERENCES rooms(id),
	user_id            TEXT NOT NULL REFERENCES users(id),
	start_time         TEXT NOT NULL,
	end_time           TEXT NOT NULL,
	purpose            TEXT NOT NULL,
	status             TEXT NOT NULL,
	notes              TEXT,
	recurring          INTEGER NOT NULL DEFAULT 0,
	recurring_group_id TEXT,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL,
	CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS idx_bookings_room_window
	ON bookings (room_id, status, start_time, end_time);
CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings (user_id);
CREATE INDEX IF NOT EXISTS idx_bookings_status_updated ON bookings (status, updated_at);

CREATE TABLE IF NOT EXISTS equipment (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	working     INTEGER NOT NULL DEFAULT 1,
	room_id     TEXT REFERENCES rooms(id),
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equipment_room ON equipment (room_id);
`

// Migrate applies the schema. Statements are idempotent so repeated startup
// runs are safe.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
