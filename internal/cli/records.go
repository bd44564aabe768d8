package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/greentab/internal/storage"
)

// recordJSON is the JSON output shape of one record.
type recordJSON struct {
	ID        int64    `json:"id"`
	URL       string   `json:"url"`
	Site      string   `json:"site"`
	TimeMs    int64    `json:"time_ms"`
	Timestamp string   `json:"timestamp"`
	PageSize  *int64   `json:"page_size,omitempty"`
	EnergyKWh *float64 `json:"energy_kwh,omitempty"`
	CarbonKg  *float64 `json:"carbon_kg,omitempty"`
}

// Execute implements the go-flags Commander interface for RecordsCommand.
func (c *RecordsCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, db, _, err := openStore(ctx, cfg, c.globals, commandLogger(c.globals))
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(ctx, store, time.Now())
}

// executeWithStore lists records from store (for testing).
func (c *RecordsCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, now time.Time) error {
	q := storage.RecordQuery{Domain: c.Domain, Limit: c.Limit}
	if c.Since != "" {
		d, err := parseDuration(c.Since)
		if err != nil {
			return err
		}
		q.Since = now.Add(-d)
	}

	records, err := store.ListRecentRecords(ctx, q)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printRecordsJSON(records)
	}
	printRecordsHuman(records)
	return nil
}

func printRecordsHuman(records []storage.Record) {
	if len(records) == 0 {
		fmt.Println("No records found.")
		return
	}

	for _, r := range records {
		size := "-"
		if r.Enriched() {
			size = fmt.Sprintf("%s, %.6f kWh, %.6f kg", formatBytes(r.Size()), r.Energy(), r.Carbon())
		}
		fmt.Printf("[%d] %s  %-9s  %s\n", r.ID, r.Time().Local().Format("2006-01-02 15:04"), formatMillis(r.TimeMs), r.URL)
		fmt.Printf("     %s | %s\n", r.Domain, size)
	}

	fmt.Printf("\n%d records\n", len(records))
}

func printRecordsJSON(records []storage.Record) error {
	out := make([]recordJSON, len(records))
	for i, r := range records {
		out[i] = recordJSON{
			ID:        r.ID,
			URL:       r.URL,
			Site:      r.Domain,
			TimeMs:    r.TimeMs,
			Timestamp: r.Time().UTC().Format(time.RFC3339),
			PageSize:  r.PageSize,
			EnergyKWh: r.EnergyKWh,
			CarbonKg:  r.CarbonKg,
		}
	}
	return printJSON(out)
}
