// Package tabs keeps the daemon's view of the browser's tabs, as reported by
// the extension, and answers the tracker's tab lookups from it.
package tabs

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrTabNotFound is returned for ids the registry does not know, which
	// includes tabs that have been closed and tabs whose URL was never
	// reported.
	ErrTabNotFound = errors.New("tab not found")
	// ErrNoFocusedTab is returned when no tab has been focused yet.
	ErrNoFocusedTab = errors.New("no focused tab")
)

// Tab is a browser tab.
type Tab struct {
	ID  int    `json:"tabId"`
	URL string `json:"url"`
}

// Registry is an in-memory tab table. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	tabs     map[int]Tab
	focused  int
	hasFocus bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tabs: make(map[int]Tab)}
}

// Upsert records or replaces a tab.
func (r *Registry) Upsert(tab Tab) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tabs[tab.ID] = tab
}

// Touch registers id if unknown, keeping any URL already recorded.
func (r *Registry) Touch(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tabs[id]; !ok {
		r.tabs[id] = Tab{ID: id}
	}
}

// Remove forgets a closed tab. Removing the focused tab clears the focus.
func (r *Registry) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tabs, id)
	if r.hasFocus && r.focused == id {
		r.hasFocus = false
	}
}

// Focus marks id as the active tab of the focused window.
func (r *Registry) Focus(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focused = id
	r.hasFocus = true
}

// FocusedTab returns the active tab of the focused window.
func (r *Registry) FocusedTab(ctx context.Context) (Tab, error) {
	if err := ctx.Err(); err != nil {
		return Tab{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.hasFocus {
		return Tab{}, ErrNoFocusedTab
	}
	tab, ok := r.tabs[r.focused]
	if !ok {
		return Tab{}, ErrNoFocusedTab
	}
	return tab, nil
}

// Tab looks up a tab by id. A tab only known by id cannot be resolved.
func (r *Registry) Tab(ctx context.Context, id int) (Tab, error) {
	if err := ctx.Err(); err != nil {
		return Tab{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	tab, ok := r.tabs[id]
	if !ok || tab.URL == "" {
		return Tab{}, ErrTabNotFound
	}
	return tab, nil
}

// Len returns the number of known tabs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tabs)
}
