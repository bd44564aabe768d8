package cli

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/runnerr0/greentab/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string            `json:"version"`
	DatabasePath      string            `json:"database_path"`
	DatabaseSizeBytes int64             `json:"database_size_bytes"`
	TotalRecords      int64             `json:"total_records"`
	EnrichedRecords   int64             `json:"enriched_records"`
	TotalTimeMs       int64             `json:"total_time_ms"`
	TotalPageBytes    int64             `json:"total_page_bytes"`
	OldestRecord      string            `json:"oldest_record,omitempty"`
	NewestRecord      string            `json:"newest_record,omitempty"`
	TopSites          []domainCountJSON `json:"top_sites"`
	DaemonURL         string            `json:"daemon_url"`
	DaemonRunning     bool              `json:"daemon_running"`
}

type domainCountJSON struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed)
	headColor = color.New(color.Bold)
)

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, db, path, err := openStore(ctx, cfg, c.globals, commandLogger(c.globals))
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(ctx, store, db, path, cfg.DaemonURL())
}

// executeWithStore runs status against a provided store and db (for testing).
func (c *StatusCommand) executeWithStore(ctx context.Context, store *storage.SQLiteStore, db *sql.DB, dbPath, daemonURL string) error {
	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	dbSize := getDatabaseSize(db, dbPath)
	daemonRunning := checkDaemon(ctx, daemonURL)

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(stats, dbPath, dbSize, daemonURL, daemonRunning)
	}
	return c.printStatusHuman(stats, dbPath, dbSize, daemonURL, daemonRunning)
}

func (c *StatusCommand) printStatusHuman(stats *storage.Stats, dbPath string, dbSize int64, daemonURL string, daemonRunning bool) error {
	fmt.Println(headColor.Sprint("greentab status"))
	fmt.Println("===============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, formatBytes(dbSize))
	fmt.Printf("Records:       %s\n", formatNumber(stats.TotalRecords))

	if stats.TotalRecords > 0 {
		pct := float64(stats.EnrichedRecords) / float64(stats.TotalRecords) * 100
		fmt.Printf("Sized:         %s (%.1f%%)\n", formatNumber(stats.EnrichedRecords), pct)
	} else {
		fmt.Printf("Sized:         %s\n", formatNumber(stats.EnrichedRecords))
	}
	fmt.Printf("Active time:   %s\n", formatMillis(stats.TotalTimeMs))
	fmt.Printf("Page bytes:    %s\n", formatBytes(stats.TotalPageBytes))

	if stats.TotalRecords > 0 {
		fmt.Printf("Oldest:        %s\n", stats.OldestRecord.Local().Format("2006-01-02"))
		fmt.Printf("Newest:        %s\n", stats.NewestRecord.Local().Format("2006-01-02"))
	}

	if len(stats.TopDomains) > 0 {
		fmt.Println()
		fmt.Println(headColor.Sprint("Top Sites:"))
		for _, d := range stats.TopDomains {
			fmt.Printf("  %-30s %s\n", d.Domain, formatNumber(d.Count))
		}
	}

	fmt.Println()
	if daemonRunning {
		fmt.Printf("Daemon:        %s (%s)\n", okColor.Sprint("running"), daemonURL)
	} else {
		fmt.Printf("Daemon:        %s (%s)\n", failColor.Sprint("not running"), daemonURL)
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(stats *storage.Stats, dbPath string, dbSize int64, daemonURL string, daemonRunning bool) error {
	out := statusJSON{
		Version:           c.version,
		DatabasePath:      dbPath,
		DatabaseSizeBytes: dbSize,
		TotalRecords:      stats.TotalRecords,
		EnrichedRecords:   stats.EnrichedRecords,
		TotalTimeMs:       stats.TotalTimeMs,
		TotalPageBytes:    stats.TotalPageBytes,
		TopSites:          make([]domainCountJSON, len(stats.TopDomains)),
		DaemonURL:         daemonURL,
		DaemonRunning:     daemonRunning,
	}

	if stats.TotalRecords > 0 {
		out.OldestRecord = stats.OldestRecord.UTC().Format(time.RFC3339)
		out.NewestRecord = stats.NewestRecord.UTC().Format(time.RFC3339)
	}

	for i, d := range stats.TopDomains {
		out.TopSites[i] = domainCountJSON{Domain: d.Domain, Count: d.Count}
	}

	return printJSON(out)
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// checkDaemon reports whether the daemon at baseURL answers /status
// within one second.
func checkDaemon(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/status", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
