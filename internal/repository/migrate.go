package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS receipts (
		id             UUID PRIMARY KEY,
		family_id      TEXT NOT NULL,
		user_email     TEXT NOT NULL DEFAULT '',
		ocr_text       TEXT NOT NULL DEFAULT '',
		source_ref     TEXT NOT NULL DEFAULT '',
		processed      BOOLEAN NOT NULL DEFAULT FALSE,
		store_name     TEXT NOT NULL DEFAULT '',
		store_items    JSONB,
		raw_extraction TEXT NOT NULL DEFAULT '',
		purchase_date  TIMESTAMPTZ,
		upload_date    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS receipts_family_unprocessed
		ON receipts (family_id) WHERE NOT processed`,
	`CREATE TABLE IF NOT EXISTS shopping_lists (
		id           TEXT PRIMARY KEY,
		family_id    TEXT NOT NULL,
		user_id      TEXT NOT NULL DEFAULT '',
		store_items  JSONB NOT NULL DEFAULT '{}'::jsonb,
		version      BIGINT NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate applies the schema. Statements are idempotent so startup can run
// this unconditionally.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	for i, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	logger.Info("database schema ready", "statements", len(ddl))
	return nil
}
