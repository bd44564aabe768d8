package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "~/.config/greentab", cfg.Storage.Path)
	assert.Equal(t, "greentab.db", cfg.Storage.SQLiteFile)
	assert.Empty(t, cfg.Storage.ExportDir)
	assert.Equal(t, "127.0.0.1", cfg.Daemon.Host)
	assert.Equal(t, 8722, cfg.Daemon.Port)
	assert.Equal(t, int64(1048576), cfg.Daemon.MaxRequestSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "greentab.log", cfg.Logging.File)
	assert.Equal(t, []string{"chrome://*", "*newtab*"}, cfg.Capture.InternalPagePatterns)
	assert.Equal(t, 5, cfg.Dashboard.RefreshSeconds)
	assert.Equal(t, 7, cfg.Dashboard.WindowDays)
	assert.Equal(t, 320, cfg.Dashboard.ChartWidth)
	assert.Equal(t, 200, cfg.Dashboard.ChartHeight)
	assert.Equal(t, 4, cfg.Inspector.Concurrency)
	assert.Equal(t, 100, cfg.Inspector.MaxResources)
	assert.Equal(t, 15, cfg.Inspector.TimeoutSeconds)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultInternalPagePatternsIsACopy(t *testing.T) {
	a := DefaultInternalPagePatterns()
	a[0] = "mutated"
	assert.Equal(t, "chrome://*", DefaultInternalPagePatterns()[0])
}

func TestMatcherFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	m, err := cfg.Matcher()
	require.NoError(t, err)
	assert.True(t, m.Internal("chrome://settings"))
	assert.True(t, m.Internal("https://www.example.com/newtab"))
	assert.False(t, m.Internal("https://example.com"))
}

func TestLoadValidYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
daemon:
  port: 9999
logging:
  level: "debug"
  format: json
dashboard:
  refresh_seconds: 10
  window_days: 14
`
	err := os.WriteFile(cfgPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, 9999, cfg.Daemon.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 10, cfg.Dashboard.RefreshSeconds)
	assert.Equal(t, 14, cfg.Dashboard.WindowDays)
	assert.Equal(t, 10*time.Second, cfg.RefreshInterval())

	// Non-overridden values remain defaults
	assert.Equal(t, "127.0.0.1", cfg.Daemon.Host)
	assert.Equal(t, 320, cfg.Dashboard.ChartWidth)
	assert.Equal(t, "~/.config/greentab", cfg.Storage.Path)
}

func TestLoadInvalidYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	err := os.WriteFile(cfgPath, []byte(":::not valid yaml{{{"), 0644)
	require.NoError(t, err)

	_, err = Load(cfgPath)
	assert.Error(t, err)
}

func TestLoadInvalidValuesReturnsError(t *testing.T) {
	cases := map[string]string{
		"port":    "daemon:\n  port: 70000\n",
		"refresh": "dashboard:\n  refresh_seconds: 0\n",
		"pattern": "capture:\n  internal_page_patterns: [\"[unclosed\"]\n",
		"size":    "daemon:\n  max_request_size: -1\n",
		"format":  "logging:\n  format: xml\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
			_, err := Load(cfgPath)
			assert.Error(t, err)
		})
	}
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	_, err := Load("/tmp/nonexistent_path_12345/config.yaml")
	assert.Error(t, err)
}

func TestLoadOrCreateCreatesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "deep", "config.yaml")

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)

	// Should return defaults
	assert.Equal(t, 8722, cfg.Daemon.Port)
	assert.Equal(t, 7, cfg.Dashboard.WindowDays)

	// File should now exist on disk
	_, statErr := os.Stat(cfgPath)
	assert.NoError(t, statErr)

	// File should be valid YAML loadable again
	cfg2, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Capture.InternalPagePatterns, cfg2.Capture.InternalPagePatterns)
}

func TestLoadOrCreateLoadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
storage:
  sqlite_file: other.db
`
	err := os.WriteFile(cfgPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "other.db", cfg.Storage.SQLiteFile)
	// Other fields remain defaults
	assert.Equal(t, "~/.config/greentab", cfg.Storage.Path)
}

func TestLoadInternalPagePatternsReplaceDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
capture:
  internal_page_patterns:
    - "about:*"
    - "edge://*"
`
	err := os.WriteFile(cfgPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"about:*", "edge://*"}, cfg.Capture.InternalPagePatterns)
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Path = "/var/lib/greentab"

	db, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/greentab/greentab.db", db)

	logPath, err := cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/greentab/greentab.log", logPath)

	cfg.Logging.File = "/tmp/g.log"
	logPath, err = cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/g.log", logPath)

	cfg.Logging.File = ""
	logPath, err = cfg.LogPath()
	require.NoError(t, err)
	assert.Empty(t, logPath)

	out, err := cfg.ExportPath("browsing_data.csv")
	require.NoError(t, err)
	assert.Equal(t, "browsing_data.csv", out)

	cfg.Storage.ExportDir = "/srv/exports"
	out, err = cfg.ExportPath("browsing_data.csv")
	require.NoError(t, err)
	assert.Equal(t, "/srv/exports/browsing_data.csv", out)

	out, err = cfg.ExportPath("./here.csv")
	require.NoError(t, err)
	assert.Equal(t, "./here.csv", out)
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	p, err := ExpandPath("~/x")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x"), p)

	p, err = ExpandPath("/abs")
	require.NoError(t, err)
	assert.Equal(t, "/abs", p)
}

func TestDaemonAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1:8722", cfg.DaemonAddr())
	assert.Equal(t, "http://127.0.0.1:8722", cfg.DaemonURL())
}
