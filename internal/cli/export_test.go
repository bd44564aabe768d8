package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/greentab/internal/dashboard"
)

func TestExportWritesCSV(t *testing.T) {
	store, _ := setupStore(t)
	addRecord(t, store, "https://a.example/", 1500, 1048576)
	addRecord(t, store, "https://b.example/?q=a,b", 0, 0)

	fs := afero.NewMemMapFs()
	cmd := &ExportCommand{Out: "/out/data.csv", globals: &GlobalFlags{}, fs: fs}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), testConfig(t), store))
	})
	assert.Contains(t, output, "Exported 2 records to /out/data.csv")

	data, err := afero.ReadFile(fs, "/out/data.csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(dashboard.CSVHeader, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "https://a.example/,1500,"))
	assert.True(t, strings.HasPrefix(lines[2], `"https://b.example/?q=a,b",0,`))
}

func TestExportBareNameUsesExportDir(t *testing.T) {
	store, _ := setupStore(t)
	addRecord(t, store, "https://a.example/", 1, 0)

	cfg := testConfig(t)
	cfg.Storage.ExportDir = "/exports"
	fs := afero.NewMemMapFs()
	cmd := &ExportCommand{Out: dashboard.DefaultExportFile, globals: &GlobalFlags{JSON: true}, fs: fs}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), cfg, store))
	})

	var out exportJSON
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, "/exports/browsing_data.csv", out.Path)
	assert.Equal(t, 1, out.Records)

	exists, err := afero.Exists(fs, "/exports/browsing_data.csv")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExportNothing(t *testing.T) {
	store, _ := setupStore(t)
	fs := afero.NewMemMapFs()
	cmd := &ExportCommand{globals: &GlobalFlags{}, fs: fs}

	err := cmd.executeWithStore(context.Background(), testConfig(t), store)
	require.ErrorIs(t, err, dashboard.ErrNothingToExport)
	assert.EqualError(t, err, "no data to export")

	exists, err := afero.Exists(fs, dashboard.DefaultExportFile)
	require.NoError(t, err)
	assert.False(t, exists)
}
