package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/greentab/config.yaml"

// Config holds all greentab configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Daemon    DaemonConfig    `yaml:"daemon"`
	Logging   LoggingConfig   `yaml:"logging"`
	Capture   CaptureConfig   `yaml:"capture"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Inspector InspectorConfig `yaml:"inspector"`
}

type StorageConfig struct {
	Path       string `yaml:"path"`
	SQLiteFile string `yaml:"sqlite_file"`
	ExportDir  string `yaml:"export_dir"`
}

type DaemonConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxRequestSize int64  `yaml:"max_request_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`
}

type CaptureConfig struct {
	// InternalPagePatterns are glob patterns for URLs left out of site
	// statistics.
	InternalPagePatterns []string `yaml:"internal_page_patterns"`
}

type DashboardConfig struct {
	RefreshSeconds int `yaml:"refresh_seconds"`
	WindowDays     int `yaml:"window_days"`
	ChartWidth     int `yaml:"chart_width"`
	ChartHeight    int `yaml:"chart_height"`
}

type InspectorConfig struct {
	Concurrency    int `yaml:"concurrency"`
	MaxResources   int `yaml:"max_resources"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read, contains invalid YAML or
// holds invalid values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Daemon.Port < 0 || c.Daemon.Port > 65535 {
		return fmt.Errorf("invalid daemon port %d", c.Daemon.Port)
	}
	if c.Daemon.MaxRequestSize <= 0 {
		return fmt.Errorf("daemon max_request_size must be positive")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported logging format '%s'", c.Logging.Format)
	}
	if c.Dashboard.RefreshSeconds <= 0 {
		return fmt.Errorf("dashboard refresh_seconds must be positive")
	}
	if _, err := c.Matcher(); err != nil {
		return err
	}
	return nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// DBPath returns the expanded path of the SQLite database.
func (c *Config) DBPath() (string, error) {
	dir, err := ExpandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// LogPath returns the expanded log file path, or "" when file logging is
// off. Relative names live under the storage directory.
func (c *Config) LogPath() (string, error) {
	if c.Logging.File == "" {
		return "", nil
	}
	p, err := ExpandPath(c.Logging.File)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	dir, err := ExpandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, p), nil
}

// ExportPath returns where a CSV export named file is written when the
// caller gives no directory.
func (c *Config) ExportPath(file string) (string, error) {
	if c.Storage.ExportDir == "" || filepath.Base(file) != file {
		return file, nil
	}
	dir, err := ExpandPath(c.Storage.ExportDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, file), nil
}

// DaemonAddr is the host:port the daemon listens on.
func (c *Config) DaemonAddr() string {
	return net.JoinHostPort(c.Daemon.Host, strconv.Itoa(c.Daemon.Port))
}

// DaemonURL is the base URL clients use to reach the daemon.
func (c *Config) DaemonURL() string {
	return "http://" + c.DaemonAddr()
}

// RefreshInterval is the dashboard refresh period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Dashboard.RefreshSeconds) * time.Second
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
