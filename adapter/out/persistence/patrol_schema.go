package persistence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements create the patrol tables. The unique index on
// (source, url, md5(text)) is what serializes duplicate captures: inserts
// race at the database, not in application code.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS flagged_items (
		id                 BIGSERIAL PRIMARY KEY,
		source             TEXT        NOT NULL,
		author             TEXT        NOT NULL DEFAULT '',
		url                TEXT        NOT NULL DEFAULT '',
		text               TEXT        NOT NULL,
		captured_at        TIMESTAMPTZ NOT NULL,
		risk_score         INT         NOT NULL,
		category           TEXT        NOT NULL,
		matched_keywords   TEXT[]      NOT NULL DEFAULT '{}',
		recommended_action TEXT        NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_flagged_items_dedup
		ON flagged_items (source, url, md5(text))`,
	`CREATE INDEX IF NOT EXISTS ix_flagged_items_captured_at
		ON flagged_items (captured_at DESC)`,
	`CREATE INDEX IF NOT EXISTS ix_flagged_items_category
		ON flagged_items (category)`,
	`CREATE INDEX IF NOT EXISTS ix_flagged_items_risk_score
		ON flagged_items (risk_score)`,
	`CREATE TABLE IF NOT EXISTS hotel_records (
		id                  BIGSERIAL PRIMARY KEY,
		claimed_name        TEXT        NOT NULL,
		claimed_domain      TEXT        NOT NULL DEFAULT '',
		verification_status TEXT        NOT NULL,
		notes               TEXT        NOT NULL DEFAULT '',
		checked_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_hotel_records_status
		ON hotel_records (verification_status)`,
}

// EnsureSchema creates the patrol tables and indexes if missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
