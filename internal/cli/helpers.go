package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/greentab/internal/config"
	"github.com/runnerr0/greentab/internal/dashboard"
	"github.com/runnerr0/greentab/internal/logging"
	"github.com/runnerr0/greentab/internal/storage"
)

// loadConfig loads the config named by --config, or the default one,
// creating it with defaults when missing.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		path, err := config.ExpandPath(globals.Config)
		if err != nil {
			return nil, err
		}
		return config.LoadOrCreateAt(path)
	}
	return config.LoadOrCreate()
}

// dbPath resolves the database path, honouring --db-path.
func dbPath(cfg *config.Config, globals *GlobalFlags) (string, error) {
	if globals != nil && globals.DBPath != "" {
		return config.ExpandPath(globals.DBPath)
	}
	return cfg.DBPath()
}

// openStore opens the configured database, runs migrations, and returns a
// ready-to-use store, the underlying *sql.DB and the resolved path.
func openStore(ctx context.Context, cfg *config.Config, globals *GlobalFlags, log logrus.FieldLogger) (*storage.SQLiteStore, *sql.DB, string, error) {
	path, err := dbPath(cfg, globals)
	if err != nil {
		return nil, nil, "", err
	}
	store, db, err := storage.Open(ctx, path, log)
	if err != nil {
		return nil, nil, "", err
	}
	return store, db, path, nil
}

// commandLogger is the stderr logger for one-shot commands. Only warnings
// and errors show unless --verbose is set.
func commandLogger(globals *GlobalFlags) *logrus.Logger {
	log, _, err := logging.New(logging.Options{
		Level:   "warn",
		Verbose: globals != nil && globals.Verbose,
	})
	if err != nil {
		return logrus.StandardLogger()
	}
	return log
}

// dashboardOptions builds aggregation options from the config.
func dashboardOptions(cfg *config.Config) (dashboard.Options, error) {
	m, err := cfg.Matcher()
	if err != nil {
		return dashboard.Options{}, err
	}
	return dashboard.Options{WindowDays: cfg.Dashboard.WindowDays, Matcher: m}, nil
}

// chartOptions is the configured chart canvas.
func chartOptions(cfg *config.Config) dashboard.ChartOptions {
	return dashboard.ChartOptions{Width: cfg.Dashboard.ChartWidth, Height: cfg.Dashboard.ChartHeight}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDuration parses a human-friendly duration string like "30d", "7d",
// "24h", "2w", "5m" or "90s".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 's':
		return time.Duration(n) * time.Second, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, m, or s suffix)", s)
	}
}

// formatMillis formats a dwell time like "1h02m03s".
func formatMillis(ms int64) string {
	d := (time.Duration(ms) * time.Millisecond).Round(time.Second)
	if d < time.Minute {
		return d.String()
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
