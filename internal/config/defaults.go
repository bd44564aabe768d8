package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:       "~/.config/greentab",
			SQLiteFile: "greentab.db",
			ExportDir:  "",
		},
		Daemon: DaemonConfig{
			Host:           "127.0.0.1",
			Port:           8722,
			MaxRequestSize: 1048576,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "greentab.log",
		},
		Capture: CaptureConfig{
			InternalPagePatterns: DefaultInternalPagePatterns(),
		},
		Dashboard: DashboardConfig{
			RefreshSeconds: 5,
			WindowDays:     7,
			ChartWidth:     320,
			ChartHeight:    200,
		},
		Inspector: InspectorConfig{
			Concurrency:    4,
			MaxResources:   100,
			TimeoutSeconds: 15,
		},
	}
}
