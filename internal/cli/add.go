package cli

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/runnerr0/greentab/internal/storage"
)

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required for add command")
	}

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, db, _, err := openStore(ctx, cfg, c.globals, commandLogger(c.globals))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(ctx, store, time.Now())
}

// executeWithStore runs the add logic against a provided store (used by tests).
func (c *AddCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, now time.Time) error {
	parsed, err := url.ParseRequestURI(c.URL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid URL: %s", c.URL)
	}

	spent := time.Duration(0)
	if c.Time != "" {
		spent, err = parseDuration(c.Time)
		if err != nil {
			return err
		}
	}
	if c.PageSize < 0 {
		return fmt.Errorf("invalid page size: %d", c.PageSize)
	}

	rec := &storage.Record{
		SessionID: "manual",
		URL:       c.URL,
		TimeMs:    spent.Milliseconds(),
		Timestamp: now.UnixMilli(),
	}
	if err := store.AppendRecord(ctx, rec); err != nil {
		return fmt.Errorf("storing record: %w", err)
	}

	if c.PageSize > 0 {
		enriched, err := store.MergePageSize(ctx, c.PageSize)
		if err != nil {
			return fmt.Errorf("storing page size: %w", err)
		}
		rec = enriched
	}

	if c.globals != nil && c.globals.JSON {
		return printRecordsJSON([]storage.Record{*rec})
	}

	fmt.Printf("Added record %d (%s)\n", rec.ID, rec.Time().Format(time.RFC3339))
	fmt.Printf("  URL:   %s\n", rec.URL)
	fmt.Printf("  Site:  %s\n", rec.Domain)
	fmt.Printf("  Time:  %s\n", formatMillis(rec.TimeMs))
	if rec.Enriched() {
		fmt.Printf("  Size:  %s\n", formatBytes(rec.Size()))
		fmt.Printf("  Est.:  %.6f kWh, %.6f kg CO₂e\n", rec.Energy(), rec.Carbon())
	}

	return nil
}
