package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liveDaemon(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func deadDaemon(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestStatusEmptyStore(t *testing.T) {
	plainColors(t)
	store, db := setupStore(t)
	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "1.0.0"}

	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithStore(context.Background(), store, db, ":memory:", deadDaemon(t))
	})
	require.NoError(t, err)

	assert.Contains(t, output, "greentab status")
	assert.Contains(t, output, "Version:       1.0.0")
	assert.Contains(t, output, "Records:       0")
	assert.Contains(t, output, "Active time:   0s")
	assert.NotContains(t, output, "Oldest:")
	assert.NotContains(t, output, "Top Sites:")
	assert.Contains(t, output, "Daemon:        not running")
}

func TestStatusWithRecords(t *testing.T) {
	plainColors(t)
	store, db := setupStore(t)
	addRecord(t, store, "https://www.news.example/a", 90_000, 2048)
	addRecord(t, store, "https://news.example/b", 30_000, 0)
	addRecord(t, store, "https://docs.example/", 1_000, 0)

	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "1.0.0"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, db, ":memory:", liveDaemon(t)))
	})

	assert.Contains(t, output, "Records:       3")
	assert.Contains(t, output, "Sized:         1 (33.3%)")
	assert.Contains(t, output, "Active time:   2m01s")
	assert.Contains(t, output, "Page bytes:    2.0 KB")
	assert.Contains(t, output, "Oldest:")
	assert.Contains(t, output, "Top Sites:")
	assert.Contains(t, output, "news.example")
	assert.Contains(t, output, "Daemon:        running")
}

func TestStatusJSON(t *testing.T) {
	store, db := setupStore(t)
	addRecord(t, store, "https://news.example/a", 5_000, 1024)

	daemonURL := liveDaemon(t)
	cmd := &StatusCommand{globals: &GlobalFlags{JSON: true}, version: "2.0.0"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, db, ":memory:", daemonURL))
	})

	var out statusJSON
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, "2.0.0", out.Version)
	assert.Equal(t, int64(1), out.TotalRecords)
	assert.Equal(t, int64(1), out.EnrichedRecords)
	assert.Equal(t, int64(5000), out.TotalTimeMs)
	assert.Equal(t, int64(1024), out.TotalPageBytes)
	assert.NotEmpty(t, out.OldestRecord)
	assert.Positive(t, out.DatabaseSizeBytes, "in-memory size comes from the page count")
	require.Len(t, out.TopSites, 1)
	assert.Equal(t, "news.example", out.TopSites[0].Domain)
	assert.Equal(t, daemonURL, out.DaemonURL)
	assert.True(t, out.DaemonRunning)
}

func TestCheckDaemonRequiresOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	assert.False(t, checkDaemon(context.Background(), srv.URL))
	assert.True(t, checkDaemon(context.Background(), liveDaemon(t)))
	assert.False(t, checkDaemon(context.Background(), "http://[::1"))
}
