package storage

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRunner(db *sql.DB) *MigrationRunner {
	log, _ := test.NewNullLogger()
	return NewMigrationRunner(db, log)
}

func TestMigrationRunner_FreshDB(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, newTestRunner(db).Run(context.Background()))

	for _, table := range []string{"records", "schema_migrations"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrationRunner_IndexesCreated(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, newTestRunner(db).Run(context.Background()))

	for _, idx := range []string{"idx_records_ts", "idx_records_domain", "idx_records_session"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx,
		).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	db := openTestDB(t)
	runner := newTestRunner(db)

	require.NoError(t, runner.Run(context.Background()))
	require.NoError(t, runner.Run(context.Background()))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count, "each migration is recorded once")
}

func TestMigrationRunner_SchemaMigrationsTracking(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, newTestRunner(db).Run(context.Background()))

	rows, err := db.Query("SELECT version, name FROM schema_migrations ORDER BY version")
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var v int
		var name string
		require.NoError(t, rows.Scan(&v, &name))
		got = append(got, name)
	}
	assert.Equal(t, []string{"visit_records", "record_sessions"}, got)
}

func TestMigrationRunner_RecordConstraints(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, newTestRunner(db).Run(context.Background()))

	_, err := db.Exec("INSERT INTO records (url, time_ms, ts) VALUES ('https://example.com', -5, 1)")
	assert.Error(t, err, "negative dwell time must be rejected")

	_, err = db.Exec("INSERT INTO records (url, time_ms, ts, page_size) VALUES ('https://example.com', 5, 1, -1)")
	assert.Error(t, err, "negative page size must be rejected")

	_, err = db.Exec("INSERT INTO records (url, time_ms, ts) VALUES ('https://example.com', 5, 1)")
	require.NoError(t, err)

	var session string
	require.NoError(t, db.QueryRow("SELECT session_id FROM records").Scan(&session))
	assert.Empty(t, session)
}
