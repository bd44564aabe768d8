package cli

import "github.com/spf13/afero"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	DBPath  string `long:"db-path" description:"Override the database path from the config"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// IngestCommand runs the local daemon the browser extension talks to.
type IngestCommand struct {
	Port     int    `long:"port" description:"Override daemon port"`
	LogLevel string `long:"log-level" description:"Override log level"`

	globals *GlobalFlags
	version string
}

// StatusCommand shows store statistics and whether the daemon is up.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// DashboardCommand opens the terminal dashboard.
type DashboardCommand struct {
	Once bool   `long:"once" description:"Print the dashboard once and exit"`
	SVG  string `long:"svg" description:"Write the trend chart as SVG to this file and exit"`

	globals *GlobalFlags
	version string
	fs      afero.Fs // nil means the OS filesystem
}

// ExportCommand writes every record to a CSV file.
type ExportCommand struct {
	Out string `long:"out" description:"Output file; a bare name goes to the export directory" default:"browsing_data.csv"`

	globals *GlobalFlags
	version string
	fs      afero.Fs // nil means the OS filesystem
}

// RecordsCommand lists recent records.
type RecordsCommand struct {
	Domain string `long:"domain" description:"Only records for this site"`
	Since  string `long:"since" description:"Only records newer than duration (e.g., 7d, 24h, 2w)"`
	Limit  int    `long:"limit" description:"Maximum results" default:"20"`

	globals *GlobalFlags
	version string
}

// AddCommand appends a record by hand.
type AddCommand struct {
	URL      string `long:"url" description:"URL to record (required)"`
	Time     string `long:"time" description:"Active time on the page (e.g., 90s, 5m, 1h)" default:"0s"`
	PageSize int64  `long:"page-size" description:"Page size in bytes; adds the energy and carbon estimate"`

	globals *GlobalFlags
	version string
}

// MeasureCommand loads a page, totals its transfer size and reports it to
// the daemon.
type MeasureCommand struct {
	URL    string `long:"url" description:"Page URL to measure (required)"`
	DryRun bool   `long:"dry-run" description:"Print the measurement without sending it"`

	globals *GlobalFlags
	version string
}
