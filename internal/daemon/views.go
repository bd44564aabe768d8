package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/runnerr0/greentab/internal/dashboard"
)

const (
	socketPath  = "/v1/dashboard/ws"
	exportPath  = "/v1/export.csv"
	writeWait   = 5 * time.Second
	readLimit   = 512
	contentJSON = "application/json"
)

func (s *Server) view(ctx context.Context) (dashboard.View, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return dashboard.View{}, err
	}
	opts := s.cfg.Dashboard
	opts.Now = s.now()
	return dashboard.NewView(dashboard.Build(records, opts), s.cfg.Chart), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.WithError(err).Error("request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListRecords(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	v, err := s.view(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	v, err := s.view(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := dashboard.WritePage(&buf, dashboard.PageData{View: v, SocketPath: socketPath, ExportPath: exportPath}); err != nil {
		s.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListRecords(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	if len(records) == 0 {
		http.Error(w, dashboard.ErrNothingToExport.Error(), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := dashboard.WriteCSV(&buf, records); err != nil {
		s.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+dashboard.DefaultExportFile+`"`)
	_, _ = w.Write(buf.Bytes())
}

// handleDashboardSocket pushes a fresh view on connect and then every
// refresh interval, until the client goes away or the server stops.
func (s *Server) handleDashboardSocket(w http.ResponseWriter, r *http.Request) {
	// Registered before the upgrade: once hijacked, the connection is no
	// longer tracked by http.Server.Shutdown.
	if !s.trackSocket() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.sockets.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reads only detect the client leaving; incoming messages are dropped.
	readDone := make(chan struct{})
	conn.SetReadLimit(readLimit)
	go func() {
		defer close(readDone)
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	s.feed(ctx, conn)

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	_ = conn.Close()
	<-readDone
}

func (s *Server) feed(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.cfg.Refresh)
	defer ticker.Stop()

	for {
		if err := s.push(ctx, conn); err != nil {
			s.log.WithError(err).Debug("dashboard feed ended")
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) push(ctx context.Context, conn *websocket.Conn) error {
	v, err := s.view(ctx)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
