package dashboard

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/greentab/internal/storage"
)

func exportRecords() []storage.Record {
	at := time.Date(2026, 10, 17, 9, 0, 0, 123_000_000, time.UTC)
	return []storage.Record{
		sized(visit("https://a.example/x", at, 1500), 1048576),
		visit("https://b.example/?q=a,b", time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), 0),
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportRecords()))

	want := strings.Join([]string{
		"URL,TimeSpent_ms,Timestamp,PageSize_bytes,Energy_kWh,Carbon_kg",
		"https://a.example/x,1500,2026-10-17T09:00:00.123Z,1048576,0.000150,0.000071",
		`"https://b.example/?q=a,b",0,2026-10-16T00:00:00.000Z,0,0,0`,
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVRowsReadBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, "https://b.example/?q=a,b", rows[2][0])
	for _, row := range rows {
		assert.Len(t, row, len(CSVHeader))
	}
}

func TestWriteCSVTimestampIsUTC(t *testing.T) {
	local := time.Date(2026, 10, 17, 9, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []storage.Record{visit("https://a.example", local, 1)}))
	assert.Contains(t, buf.String(), ",2026-10-17T07:00:00.000Z,")
}

func TestExportWritesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/exports/today/" + DefaultExportFile

	require.NoError(t, Export(fs, path, exportRecords()))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "URL,TimeSpent_ms,"))
	assert.Equal(t, 3, strings.Count(string(data), "\n"))
}

func TestExportNothing(t *testing.T) {
	fs := afero.NewMemMapFs()

	err := Export(fs, DefaultExportFile, nil)
	assert.ErrorIs(t, err, ErrNothingToExport)
	assert.Equal(t, "no data to export", err.Error())

	exists, err := afero.Exists(fs, DefaultExportFile)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExportReadOnlyFs(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := Export(fs, "out/"+DefaultExportFile, exportRecords())
	assert.Error(t, err)
}
