// Package tracker attributes wall-clock time to the active browser tab and
// records one visit per completed dwell interval.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/runnerr0/greentab/internal/storage"
	"github.com/runnerr0/greentab/internal/tabs"
)

// StatusComplete is the tab-updated load status that ends an interval.
const StatusComplete = "complete"

var (
	// ErrNoFocusedTab is returned by Start when the host has no active tab.
	ErrNoFocusedTab = errors.New("no focused tab")
	// ErrTabGone means the interval's tab could not be resolved at close-out,
	// so the interval was abandoned without a record.
	ErrTabGone = errors.New("tab gone, interval abandoned")
	// ErrInvalidPageSize is returned for page sizes that are not positive.
	ErrInvalidPageSize = errors.New("invalid page size")
)

// Host resolves tabs. The daemon's tab registry implements it.
type Host interface {
	FocusedTab(ctx context.Context) (tabs.Tab, error)
	Tab(ctx context.Context, id int) (tabs.Tab, error)
}

// Store persists visit records.
type Store interface {
	AppendRecord(ctx context.Context, rec *storage.Record) error
	MergePageSize(ctx context.Context, pageSize int64) (*storage.Record, error)
}

// State is the open dwell interval: which tab is active and since when.
// The zero value means no interval is open.
type State struct {
	TabID  int
	HasTab bool
	Start  time.Time
}

// Open reports whether both the tab and the start time are set.
func (s State) Open() bool {
	return s.HasTab && !s.Start.IsZero()
}

// Tracker is the session tracker. Its handlers are serialised, so each one
// observes and updates State atomically.
type Tracker struct {
	mu      sync.Mutex
	host    Host
	store   Store
	log     logrus.FieldLogger
	now     func() time.Time
	session string
	state   State
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithSessionID fixes the session id stamped on records.
func WithSessionID(id string) Option {
	return func(t *Tracker) { t.session = id }
}

// New returns a Tracker with no open interval.
func New(host Host, store Store, log logrus.FieldLogger, opts ...Option) *Tracker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	t := &Tracker{
		host:    host,
		store:   store,
		log:     log.WithField("component", "tracker"),
		now:     time.Now,
		session: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SessionID identifies this tracker's lifetime.
func (t *Tracker) SessionID() string {
	return t.session
}

// State returns a copy of the current interval state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Anchored reports whether an interval is open.
func (t *Tracker) Anchored() bool {
	return t.State().Open()
}

// Start anchors the first interval on the host's focused tab. When there is
// none the state stays empty until the first activation.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tab, err := t.host.FocusedTab(ctx)
	if err != nil {
		t.log.WithError(err).Debug("no active tab yet, waiting for tab activation")
		return fmt.Errorf("%w: %w", ErrNoFocusedTab, err)
	}

	t.state = State{TabID: tab.ID, HasTab: true, Start: t.now()}
	t.log.WithField("tab", tab.ID).Debug("anchored on focused tab")
	return nil
}

// TabActivated closes out the previous interval and opens one for tabID.
// The returned record is the one written by the close-out, if any; its
// error never prevents the switch.
func (t *Tracker) TabActivated(ctx context.Context, tabID int) (*storage.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	rec, err := t.closeOut(ctx, now)
	t.state = State{TabID: tabID, HasTab: true, Start: now}
	return rec, err
}

// TabUpdated treats a completed load of the active tab as a navigation:
// the interval so far is closed out and a new one starts for the same tab.
// Updates for other tabs or other statuses are ignored.
func (t *Tracker) TabUpdated(ctx context.Context, tabID int, status string) (*storage.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.HasTab || t.state.TabID != tabID || status != StatusComplete {
		return nil, nil
	}

	now := t.now()
	rec, err := t.closeOut(ctx, now)
	t.state.Start = now
	return rec, err
}

// PageSize merges a page-size measurement into the newest record. It is a
// best-effort join: when there is no record, or the newest one is already
// enriched, the measurement is dropped and the storage error is returned.
func (t *Tracker) PageSize(ctx context.Context, size int64) (*storage.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}

	rec, err := t.store.MergePageSize(ctx, size)
	if err != nil {
		t.log.WithError(err).WithField("page_size", size).Debug("page size dropped")
		return nil, err
	}
	t.log.WithFields(logrus.Fields{"id": rec.ID, "page_size": size}).Debug("page size merged")
	return rec, nil
}

// closeOut finalises the open interval at now. Callers hold t.mu.
func (t *Tracker) closeOut(ctx context.Context, now time.Time) (*storage.Record, error) {
	if !t.state.Open() {
		return nil, nil
	}

	tab, err := t.host.Tab(ctx, t.state.TabID)
	if err != nil {
		t.log.WithError(err).WithField("tab", t.state.TabID).Debug("interval abandoned")
		return nil, fmt.Errorf("%w: %w", ErrTabGone, err)
	}

	spent := now.Sub(t.state.Start).Milliseconds()
	if spent < 0 {
		spent = 0
	}

	rec := &storage.Record{
		SessionID: t.session,
		URL:       tab.URL,
		TimeMs:    spent,
		Timestamp: now.UnixMilli(),
	}
	if err := t.store.AppendRecord(ctx, rec); err != nil {
		t.log.WithError(err).Warn("failed to persist visit record")
		return nil, fmt.Errorf("append record: %w", err)
	}

	t.log.WithFields(logrus.Fields{"url": rec.URL, "time_ms": rec.TimeMs}).Debug("interval closed")
	return rec, nil
}
