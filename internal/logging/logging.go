// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Options configure New.
type Options struct {
	// Level is a logrus level name. Empty means info.
	Level string
	// Verbose forces debug level.
	Verbose bool
	// Format is "text" (default) or "json".
	Format string
	// File, when set, receives a copy of every entry.
	File string
	// Output is where entries are printed. Nil means stderr.
	Output io.Writer
	// Fs opens File. Nil means the OS filesystem.
	Fs afero.Fs
}

// New returns a configured logger and a function that closes its log file.
func New(opts Options) (*logrus.Logger, func() error, error) {
	log := logrus.New()
	noop := func() error { return nil }

	level := logrus.InfoLevel
	if opts.Level != "" {
		l, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, noop, fmt.Errorf("invalid log level '%s': %w", opts.Level, err)
		}
		level = l
	}
	if opts.Verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	if opts.Output != nil {
		log.SetOutput(opts.Output)
	} else {
		log.SetOutput(os.Stderr)
	}

	switch strings.ToLower(opts.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, noop, fmt.Errorf("unsupported log format '%s'", opts.Format)
	}

	if opts.File == "" {
		return log, noop, nil
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	hook, err := newFileHook(fs, opts.File)
	if err != nil {
		return nil, noop, err
	}
	log.AddHook(hook)
	log.WithField("file", opts.File).Debug("Logging to file")
	return log, hook.Close, nil
}

// fileHook appends every entry to a file.
type fileHook struct {
	mu sync.Mutex
	w  io.WriteCloser
}

func newFileHook(fs afero.Fs, path string) (*fileHook, error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open logfile %s: %w", path, err)
	}
	return &fileHook{w: f}, nil
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Bytes()
	if err != nil {
		return fmt.Errorf("failed to get a log entry bytes: %w", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.w == nil {
		return nil
	}
	_, err = h.w.Write(line)
	return err
}

// Close closes the log file. Later entries are dropped.
func (h *fileHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.w == nil {
		return nil
	}
	err := h.w.Close()
	h.w = nil
	return err
}
