package cli

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/runnerr0/greentab/internal/config"
	"github.com/runnerr0/greentab/internal/dashboard"
	"github.com/runnerr0/greentab/internal/tui"
)

type exportJSON struct {
	Path    string `json:"path"`
	Records int    `json:"records"`
}

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
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

	return c.executeWithStore(ctx, cfg, store)
}

// executeWithStore writes the export from store (for testing).
func (c *ExportCommand) executeWithStore(ctx context.Context, cfg *config.Config, store tui.Source) error {
	out := c.Out
	if out == "" {
		out = dashboard.DefaultExportFile
	}
	out, err := config.ExpandPath(out)
	if err != nil {
		return err
	}
	path, err := cfg.ExportPath(out)
	if err != nil {
		return err
	}

	records, err := store.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	fs := c.fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := dashboard.Export(fs, path, records); err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(exportJSON{Path: path, Records: len(records)})
	}
	fmt.Printf("Exported %s records to %s\n", formatNumber(int64(len(records))), path)
	return nil
}
