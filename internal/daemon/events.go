package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/runnerr0/greentab/internal/storage"
	"github.com/runnerr0/greentab/internal/tabs"
)

var errMissingTabID = errors.New("tabId is required")

// tabEvent is the body of every /v1/tabs event. Only the fields relevant to
// each event are read.
type tabEvent struct {
	TabID  *int   `json:"tabId"`
	URL    string `json:"url"`
	Status string `json:"status"`
	Tab    *struct {
		URL string `json:"url"`
	} `json:"tab"`
}

func (e tabEvent) url() string {
	if e.Tab != nil && e.Tab.URL != "" {
		return e.Tab.URL
	}
	return e.URL
}

func decodeTabEvent(r *http.Request) (tabEvent, error) {
	var ev tabEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		return ev, err
	}
	if ev.TabID == nil {
		return ev, errMissingTabID
	}
	return ev, nil
}

func (s *Server) badEvent(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, "invalid event: "+err.Error(), http.StatusBadRequest)
}

// trackerResult logs the outcome of a tracker handler. Failures stay in the
// daemon: the extension never hears about them.
func (s *Server) trackerResult(event string, tabID int, rec *storage.Record, err error) {
	log := s.log.WithFields(logrus.Fields{"event": event, "tab": tabID})
	if err != nil {
		log.WithError(err).Debug("tracker event not recorded")
		return
	}
	if rec != nil {
		log.WithFields(logrus.Fields{"id": rec.ID, "time_ms": rec.TimeMs, "domain": rec.Domain}).Debug("visit recorded")
	}
}

// handleFocused reports the focused window's active tab. The first report
// anchors the tracker.
func (s *Server) handleFocused(w http.ResponseWriter, r *http.Request) {
	ev, err := decodeTabEvent(r)
	if err != nil {
		s.badEvent(w, err)
		return
	}
	id := *ev.TabID
	s.upsertTab(id, ev.url())
	s.tabs.Focus(id)

	if !s.tracker.Anchored() {
		if err := s.tracker.Start(r.Context()); err != nil {
			s.log.WithError(err).Debug("tracker not anchored")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivated(w http.ResponseWriter, r *http.Request) {
	ev, err := decodeTabEvent(r)
	if err != nil {
		s.badEvent(w, err)
		return
	}
	id := *ev.TabID
	s.upsertTab(id, ev.url())
	s.tabs.Focus(id)

	rec, err := s.tracker.TabActivated(r.Context(), id)
	s.trackerResult("activated", id, rec, err)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdated(w http.ResponseWriter, r *http.Request) {
	ev, err := decodeTabEvent(r)
	if err != nil {
		s.badEvent(w, err)
		return
	}
	id := *ev.TabID
	s.upsertTab(id, ev.url())

	rec, err := s.tracker.TabUpdated(r.Context(), id, ev.Status)
	s.trackerResult("updated", id, rec, err)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoved(w http.ResponseWriter, r *http.Request) {
	ev, err := decodeTabEvent(r)
	if err != nil {
		s.badEvent(w, err)
		return
	}
	s.tabs.Remove(*ev.TabID)
	w.WriteHeader(http.StatusNoContent)
}

// upsertTab records the tab's URL when the event carries one, and otherwise
// only makes the tab known.
func (s *Server) upsertTab(id int, url string) {
	if url == "" {
		s.tabs.Touch(id)
		return
	}
	s.tabs.Upsert(tabs.Tab{ID: id, URL: url})
}

// handleMessage accepts the inspector's one-shot page-size message. Any
// JSON is accepted; only a numeric pageSize is acted on. The answer is
// always 202 so the sender never retries.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.log.WithError(err).Debug("message unreadable")
		w.WriteHeader(http.StatusAccepted)
		return
	}

	size := gjson.GetBytes(body, "pageSize")
	if size.Type != gjson.Number {
		s.log.WithField("body_bytes", len(body)).Debug("message without page size ignored")
		w.WriteHeader(http.StatusAccepted)
		return
	}

	rec, err := s.tracker.PageSize(r.Context(), size.Int())
	if err != nil {
		s.log.WithError(err).Debug("page size not merged")
	} else {
		s.log.WithFields(logrus.Fields{"id": rec.ID, "page_size": rec.Size()}).Debug("page size merged")
	}
	w.WriteHeader(http.StatusAccepted)
}
