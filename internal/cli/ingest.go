package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/greentab/internal/config"
	"github.com/runnerr0/greentab/internal/daemon"
	"github.com/runnerr0/greentab/internal/logging"
	"github.com/runnerr0/greentab/internal/storage"
	"github.com/runnerr0/greentab/internal/tabs"
	"github.com/runnerr0/greentab/internal/tracker"
)

// Execute implements the go-flags Commander interface for IngestCommand.
func (c *IngestCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	if err := c.applyOverrides(cfg); err != nil {
		return err
	}

	opts, err := c.logOptions(cfg)
	if err != nil {
		return err
	}
	log, closeLog, err := logging.New(opts)
	if err != nil {
		return err
	}
	defer closeLog() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db, path, err := openStore(ctx, cfg, c.globals, log)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	log.WithFields(logrus.Fields{"version": c.version, "db": path}).Info("greentab starting")
	return c.executeWithStore(ctx, cfg, store, log)
}

// logOptions maps the logging section of cfg onto the daemon logger.
func (c *IngestCommand) logOptions(cfg *config.Config) (logging.Options, error) {
	logPath, err := cfg.LogPath()
	if err != nil {
		return logging.Options{}, err
	}
	return logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: c.globals != nil && c.globals.Verbose,
		File:    logPath,
	}, nil
}

// applyOverrides folds --port and --log-level into cfg.
func (c *IngestCommand) applyOverrides(cfg *config.Config) error {
	if c.Port != 0 {
		if c.Port < 0 || c.Port > 65535 {
			return fmt.Errorf("invalid port %d", c.Port)
		}
		cfg.Daemon.Port = c.Port
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log level '%s'", c.LogLevel)
		}
		cfg.Logging.Level = c.LogLevel
	}
	return nil
}

// server wires the tab registry, tracker and daemon around store.
func (c *IngestCommand) server(cfg *config.Config, store *storage.SQLiteStore, log logrus.FieldLogger) (*daemon.Server, error) {
	opts, err := dashboardOptions(cfg)
	if err != nil {
		return nil, err
	}

	reg := tabs.NewRegistry()
	tr := tracker.New(reg, store, log)
	log.WithField("session", tr.SessionID()).Debug("tracker ready")

	return daemon.New(daemon.Config{
		Addr:           cfg.DaemonAddr(),
		MaxRequestSize: cfg.Daemon.MaxRequestSize,
		Refresh:        cfg.RefreshInterval(),
		Dashboard:      opts,
		Chart:          chartOptions(cfg),
	}, store, reg, tr, log), nil
}

// executeWithStore serves until ctx is cancelled (for testing).
func (c *IngestCommand) executeWithStore(ctx context.Context, cfg *config.Config, store *storage.SQLiteStore, log logrus.FieldLogger) error {
	srv, err := c.server(cfg, store, log)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
