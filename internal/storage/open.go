package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Open opens (creating if needed) the SQLite database at path, applies
// migrations and returns a ready store together with the *sql.DB, which the
// caller closes after the store. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string, log logrus.FieldLogger) (*SQLiteStore, *sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: writes are serialised and ":memory:" stays a single
	// database across calls.
	db.SetMaxOpenConns(1)

	if err := NewMigrationRunner(db, log).Run(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	return store, db, nil
}
