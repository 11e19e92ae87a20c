package repositories

import (
	"database/sql"
	"fmt"
)

// InitSchema creates the tables used by the repositories. Safe to
// run repeatedly.
func InitSchema(db *sql.DB) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS orders (
		id           UUID PRIMARY KEY,
		customer_id  UUID NOT NULL,
		status       TEXT NOT NULL,
		placed_at    TIMESTAMPTZ NOT NULL,
		confirmed_at TIMESTAMPTZ,
		delivered_at TIMESTAMPTZ,
		window_start TIMESTAMPTZ NOT NULL,
		window_end   TIMESTAMPTZ NOT NULL,
		address_text TEXT NOT NULL,
		address_lat  DOUBLE PRECISION,
		address_lng  DOUBLE PRECISION
	);

	CREATE TABLE IF NOT EXISTS routes (
		id        UUID PRIMARY KEY,
		driver_id UUID NOT NULL,
		status    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stops (
		id                 UUID PRIMARY KEY,
		route_id           UUID NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		order_id           UUID NOT NULL,
		stop_index         INT NOT NULL,
		status             TEXT NOT NULL,
		dest_lat           DOUBLE PRECISION NOT NULL,
		dest_lng           DOUBLE PRECISION NOT NULL,
		eta                TIMESTAMPTZ,
		exception_reason   TEXT,
		exception_note     TEXT,
		exception_resolved BOOLEAN,
		UNIQUE (route_id, stop_index)
	);

	CREATE INDEX IF NOT EXISTS idx_stops_order_id ON stops(order_id);
	`

	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
