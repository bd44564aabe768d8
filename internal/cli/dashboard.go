package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/runnerr0/greentab/internal/config"
	"github.com/runnerr0/greentab/internal/dashboard"
	"github.com/runnerr0/greentab/internal/storage"
	"github.com/runnerr0/greentab/internal/tui"
)

const onceWidth = 80

// Execute implements the go-flags Commander interface for DashboardCommand.
func (c *DashboardCommand) Execute(args []string) error {
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

func (c *DashboardCommand) filesystem() afero.Fs {
	if c.fs == nil {
		return afero.NewOsFs()
	}
	return c.fs
}

// executeWithStore renders or runs the dashboard over store (for testing).
func (c *DashboardCommand) executeWithStore(ctx context.Context, cfg *config.Config, store tui.Source) error {
	opts, err := dashboardOptions(cfg)
	if err != nil {
		return err
	}

	if c.SVG == "" && !c.Once && !(c.globals != nil && c.globals.JSON) {
		exportPath, err := cfg.ExportPath(dashboard.DefaultExportFile)
		if err != nil {
			return err
		}
		return tui.Run(ctx, tui.Config{
			Source:     store,
			Options:    opts,
			Refresh:    cfg.RefreshInterval(),
			Fs:         c.filesystem(),
			ExportPath: exportPath,
		})
	}

	records, err := store.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	snap := dashboard.Build(records, opts)

	if c.SVG != "" {
		return c.writeSVG(snap, chartOptions(cfg))
	}
	if c.globals != nil && c.globals.JSON {
		return printJSON(dashboard.NewView(snap, chartOptions(cfg)))
	}
	fmt.Println(tui.Render(snap, onceWidth))
	return nil
}

func (c *DashboardCommand) writeSVG(snap dashboard.Snapshot, opts dashboard.ChartOptions) error {
	fs := c.filesystem()
	path, err := config.ExpandPath(c.SVG)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create chart directory: %w", err)
		}
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	chart := dashboard.Layout(snap.Labels(), snap.CarbonSeries(), snap.EnergySeries(), opts)
	if err := chart.WriteSVG(f); err != nil {
		f.Close()
		return fmt.Errorf("write chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("Wrote %d-day chart to %s\n", len(snap.Window), path)
	return nil
}

var _ tui.Source = (*storage.SQLiteStore)(nil)
