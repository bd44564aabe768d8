// Package daemon is the local service the browser extension talks to. It
// feeds tab events to the tracker, takes page-size messages and serves the
// dashboard as JSON, HTML, a WebSocket feed and CSV.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/runnerr0/greentab/internal/dashboard"
	"github.com/runnerr0/greentab/internal/storage"
	"github.com/runnerr0/greentab/internal/tabs"
	"github.com/runnerr0/greentab/internal/tracker"
)

const (
	shutdownTimeout       = 5 * time.Second
	defaultMaxRequestSize = 1 << 20
)

// Store is what the daemon needs from the record store.
type Store interface {
	tracker.Store
	ListRecords(ctx context.Context) ([]storage.Record, error)
}

// Config configures the daemon.
type Config struct {
	Addr           string
	MaxRequestSize int64
	// Refresh is the WebSocket push interval.
	Refresh   time.Duration
	Dashboard dashboard.Options
	Chart     dashboard.ChartOptions
}

// Server holds the daemon's collaborators.
type Server struct {
	cfg      Config
	log      logrus.FieldLogger
	store    Store
	tabs     *tabs.Registry
	tracker  *tracker.Tracker
	upgrader websocket.Upgrader
	now      func() time.Time

	// sockets tracks WebSocket pushers so Serve can wait for them. Adds
	// happen under socketMu and stop once closing is set.
	socketMu sync.Mutex
	closing  bool
	sockets  sync.WaitGroup
}

// New returns a Server. The tracker must use reg as its host.
func New(cfg Config, store Store, reg *tabs.Registry, tr *tracker.Tracker, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = defaultMaxRequestSize
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = dashboard.DefaultRefreshInterval
	}
	return &Server{
		cfg:     cfg,
		log:     log.WithField("component", "daemon"),
		store:   store,
		tabs:    reg,
		tracker: tr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     allowLocalOrigin,
		},
		now: time.Now,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/status", s.handleStatus)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/tabs", func(r chi.Router) {
			r.Use(s.limitBody)
			r.Post("/focused", s.handleFocused)
			r.Post("/activated", s.handleActivated)
			r.Post("/updated", s.handleUpdated)
			r.Post("/removed", s.handleRemoved)
		})
		r.With(s.limitBody).Post("/message", s.handleMessage)

		r.Get("/records", s.handleRecords)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/dashboard/ws", s.handleDashboardSocket)
		r.Get("/export.csv", s.handleExport)
	})
	r.Get("/dashboard", s.handlePage)

	return r
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully and
// waits for open WebSocket feeds to end.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	baseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.WithField("addr", ln.Addr().String()).Info("daemon listening")

	select {
	case err := <-errCh:
		cancel()
		s.stopSockets()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("daemon shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	err := srv.Shutdown(shutdownCtx)
	// Hijacked WebSocket connections are not tracked by Shutdown; they end
	// when baseCtx is cancelled.
	cancel()
	s.stopSockets()
	<-errCh
	return err
}

// trackSocket registers a WebSocket pusher. It reports false once the
// server has begun waiting for pushers to end.
func (s *Server) trackSocket() bool {
	s.socketMu.Lock()
	defer s.socketMu.Unlock()
	if s.closing {
		return false
	}
	s.sockets.Add(1)
	return true
}

// stopSockets refuses new pushers and waits for the running ones.
func (s *Server) stopSockets() {
	s.socketMu.Lock()
	s.closing = true
	s.socketMu.Unlock()
	s.sockets.Wait()
}

// allowLocalOrigin accepts WebSocket clients from extension pages and from
// pages served by the daemon itself.
func allowLocalOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "chrome-extension", "moz-extension":
		return true
	}
	return u.Host == r.Host
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestSize)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start),
		}).Debug("request")
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
