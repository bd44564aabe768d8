package storage

import (
	"context"
	"database/sql"
)

// migrateV002 tags records with the tracker session that produced them.
func migrateV002(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx,
		`ALTER TABLE records ADD COLUMN session_id TEXT NOT NULL DEFAULT ''`,
	); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_records_session ON records(session_id)`,
	)
	return err
}
