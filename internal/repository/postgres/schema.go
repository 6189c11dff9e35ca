package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates the ledger, audit-log, event and input tables.
// The unique idem constraints are the idempotency substrate: a replayed
// approval hits the constraint instead of double-counting.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS inventory_levels (
		org_id     TEXT NOT NULL,
		store_id   TEXT NOT NULL,
		sku_id     TEXT NOT NULL,
		on_hand    BIGINT NOT NULL DEFAULT 0 CHECK (on_hand >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (org_id, store_id, sku_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders_confirmed (
		id          BIGSERIAL PRIMARY KEY,
		org_id      TEXT NOT NULL,
		store_id    TEXT NOT NULL,
		sku_id      TEXT NOT NULL,
		qty         BIGINT NOT NULL,
		approved_by TEXT NOT NULL DEFAULT '',
		approved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		idem_key    TEXT NOT NULL,
		CONSTRAINT uq_orders_idem UNIQUE (org_id, store_id, sku_id, idem_key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_confirmed_org ON orders_confirmed (org_id)`,
	`CREATE TABLE IF NOT EXISTS transfers_confirmed (
		id          BIGSERIAL PRIMARY KEY,
		org_id      TEXT NOT NULL,
		from_store  TEXT NOT NULL,
		to_store    TEXT NOT NULL,
		sku_id      TEXT NOT NULL,
		qty         BIGINT NOT NULL,
		approved_by TEXT NOT NULL DEFAULT '',
		approved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		idem_key    TEXT NOT NULL,
		CONSTRAINT uq_transfers_idem UNIQUE (org_id, from_store, to_store, sku_id, idem_key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transfers_confirmed_org ON transfers_confirmed (org_id)`,
	`CREATE TABLE IF NOT EXISTS events (
		id      BIGSERIAL PRIMARY KEY,
		org_id  TEXT NOT NULL,
		ts      TIMESTAMPTZ NOT NULL DEFAULT now(),
		type    TEXT NOT NULL,
		payload JSONB NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_org_id ON events (org_id, id)`,
	`CREATE TABLE IF NOT EXISTS sales_daily (
		org_id     TEXT NOT NULL,
		sale_date  DATE NOT NULL,
		store_id   TEXT NOT NULL,
		sku_id     TEXT NOT NULL,
		units_sold DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (org_id, sale_date, store_id, sku_id)
	)`,
	`CREATE TABLE IF NOT EXISTS lead_times (
		org_id    TEXT NOT NULL,
		store_id  TEXT NOT NULL,
		sku_id    TEXT NOT NULL,
		mean_days DOUBLE PRECISION NOT NULL DEFAULT 0,
		std_days  DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (org_id, store_id, sku_id)
	)`,
	`CREATE TABLE IF NOT EXISTS store_distances (
		org_id      TEXT NOT NULL,
		from_store  TEXT NOT NULL,
		to_store    TEXT NOT NULL,
		distance_km DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (org_id, from_store, to_store)
	)`,
	`CREATE TABLE IF NOT EXISTS org_store_map (
		org_id   TEXT NOT NULL,
		store_id TEXT NOT NULL,
		PRIMARY KEY (org_id, store_id)
	)`,
	`CREATE TABLE IF NOT EXISTS org_sku_map (
		org_id TEXT NOT NULL,
		sku_id TEXT NOT NULL,
		PRIMARY KEY (org_id, sku_id)
	)`,
}

// Migrate applies the schema idempotently.
func (db *DB) Migrate(ctx context.Context) error {
	return applySchema(ctx, db.DB)
}

// MigrateConn applies the schema over a bare connection. Used by cmd/seed,
// which connects with a URL instead of the server config.
func MigrateConn(ctx context.Context, db *sql.DB) error {
	return applySchema(ctx, db)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func applySchema(ctx context.Context, db execer) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
