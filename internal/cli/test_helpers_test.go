package cli

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/greentab/internal/config"
	"github.com/runnerr0/greentab/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// setupStore opens an in-memory store that is closed when the test ends.
func setupStore(t *testing.T) (*storage.SQLiteStore, *sql.DB) {
	t.Helper()
	log, _ := test.NewNullLogger()
	store, db, err := storage.Open(context.Background(), ":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		db.Close()
	})
	return store, db
}

// addRecord appends a record, optionally with a page size.
func addRecord(t *testing.T, store *storage.SQLiteStore, url string, ms int64, size int64) *storage.Record {
	t.Helper()
	ctx := context.Background()
	rec := &storage.Record{URL: url, TimeMs: ms}
	require.NoError(t, store.AppendRecord(ctx, rec))
	if size > 0 {
		enriched, err := store.MergePageSize(ctx, size)
		require.NoError(t, err)
		rec = enriched
	}
	return rec
}

// testConfig is the default config rooted in a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.Path = t.TempDir()
	return cfg
}

// plainColors turns colour escapes off for the duration of the test.
func plainColors(t *testing.T) {
	t.Helper()
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })
}
