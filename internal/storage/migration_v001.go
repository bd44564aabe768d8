package storage

import (
	"context"
	"database/sql"
)

// migrateV001 creates the visit record table and its indexes.
func migrateV001(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			url        TEXT NOT NULL,
			domain     TEXT NOT NULL DEFAULT '',
			time_ms    INTEGER NOT NULL CHECK (time_ms >= 0),
			ts         INTEGER NOT NULL,
			page_size  INTEGER CHECK (page_size IS NULL OR page_size >= 0),
			energy_kwh REAL,
			carbon_kg  REAL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_records_ts     ON records(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_records_domain ON records(domain)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
