// Package tui is the terminal dashboard. It rereads the record store on a
// fixed interval and redraws the same figures the web dashboard shows.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/runnerr0/greentab/internal/dashboard"
	"github.com/runnerr0/greentab/internal/storage"
)

// Source lists every stored record in insertion order.
type Source interface {
	ListRecords(ctx context.Context) ([]storage.Record, error)
}

// Config wires the model.
type Config struct {
	Source  Source
	Options dashboard.Options
	// Refresh is the polling interval. Zero means
	// dashboard.DefaultRefreshInterval.
	Refresh time.Duration
	// Fs and ExportPath are used by the export key.
	Fs         afero.Fs
	ExportPath string
	// Now overrides the clock used for "today".
	Now func() time.Time
}

type tickMsg time.Time

type loadedMsg struct {
	records []storage.Record
	err     error
}

type exportedMsg struct {
	path  string
	count int
	err   error
}

// Model is the bubbletea model of the terminal dashboard.
type Model struct {
	cfg     Config
	records []storage.Record
	snap    dashboard.Snapshot
	loaded  bool
	err     error
	status  string
	width   int
}

// New returns a Model that has not loaded anything yet.
func New(cfg Config) Model {
	if cfg.Refresh <= 0 {
		cfg.Refresh = dashboard.DefaultRefreshInterval
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = dashboard.DefaultExportFile
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return Model{cfg: cfg}
}

// Snapshot returns the most recently built snapshot.
func (m Model) Snapshot() dashboard.Snapshot {
	return m.snap
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.load()
		case "e":
			return m, m.export()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		return m, tea.Batch(m.load(), m.tick())

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.loaded = true
		m.records = msg.records
		opts := m.cfg.Options
		opts.Now = m.cfg.Now()
		m.snap = dashboard.Build(m.records, opts)

	case exportedMsg:
		switch {
		case msg.err != nil:
			m.status = msg.err.Error()
		default:
			m.status = fmt.Sprintf("exported %d records to %s", msg.count, msg.path)
		}
	}
	return m, nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.cfg.Refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) load() tea.Cmd {
	src := m.cfg.Source
	return func() tea.Msg {
		records, err := src.ListRecords(context.Background())
		return loadedMsg{records: records, err: err}
	}
}

func (m Model) export() tea.Cmd {
	fs, path, src := m.cfg.Fs, m.cfg.ExportPath, m.cfg.Source
	return func() tea.Msg {
		records, err := src.ListRecords(context.Background())
		if err != nil {
			return exportedMsg{err: err}
		}
		if err := dashboard.Export(fs, path, records); err != nil {
			return exportedMsg{err: err}
		}
		return exportedMsg{path: path, count: len(records)}
	}
}

// Run starts the interactive dashboard and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
