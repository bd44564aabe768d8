package dashboard

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	"github.com/runnerr0/greentab/internal/storage"
)

// DefaultExportFile is the file name offered for CSV downloads.
const DefaultExportFile = "browsing_data.csv"

const exportTimeLayout = "2006-01-02T15:04:05.000Z"

// ErrNothingToExport is returned when there are no records to export.
var ErrNothingToExport = errors.New("no data to export")

// CSVHeader is the first row of every export.
var CSVHeader = []string{"URL", "TimeSpent_ms", "Timestamp", "PageSize_bytes", "Energy_kWh", "Carbon_kg"}

// WriteCSV writes the header and one row per record. Missing page sizes
// and estimates are written as 0.
func WriteCSV(w io.Writer, records []storage.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(csvRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(r storage.Record) []string {
	energy, carbon := "0", "0"
	if r.EnergyKWh != nil {
		energy = strconv.FormatFloat(*r.EnergyKWh, 'f', 6, 64)
	}
	if r.CarbonKg != nil {
		carbon = strconv.FormatFloat(*r.CarbonKg, 'f', 6, 64)
	}
	return []string{
		r.URL,
		strconv.FormatInt(r.TimeMs, 10),
		r.Time().UTC().Format(exportTimeLayout),
		strconv.FormatInt(r.Size(), 10),
		energy,
		carbon,
	}
}

// Export writes records as CSV to path on fs, creating parent directories.
// It returns ErrNothingToExport instead of writing an empty file.
func Export(fs afero.Fs, path string, records []storage.Record) error {
	if len(records) == 0 {
		return ErrNothingToExport
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := WriteCSV(f, records); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	return f.Close()
}
