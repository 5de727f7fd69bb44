// Package httpserver wires the autobuilder HTTP endpoints onto a single listener.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	derrors "github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/server/handlers"
	smw "github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/server/middleware"
)

// Server manages the API, download and admin endpoints.
type Server struct {
	cfg          config.HTTPConfig
	opts         Options
	errorAdapter *derrors.HTTPErrorAdapter

	monitoringHandlers *handlers.MonitoringHandlers
	exportHandlers     *handlers.ExportHandlers
	download           *handlers.Download

	mchain func(http.Handler) http.Handler

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
}

// New constructs a new HTTP server wiring instance.
func New(cfg config.HTTPConfig, opts Options) *Server {
	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now()
	}
	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
	}
	s.monitoringHandlers = handlers.NewMonitoringHandlers(opts.Service, opts.StartTime)
	s.exportHandlers = handlers.NewExportHandlers(opts.Service, opts.History)
	s.download = handlers.NewDownload(opts.Service)
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter)
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/exports", s.exportHandlers.HandleCreate)
	mux.HandleFunc("GET /api/exports", s.exportHandlers.HandleList)
	mux.HandleFunc("GET /api/exports/{name}", s.exportHandlers.HandleGet)
	mux.HandleFunc("GET /api/exports/{name}/events", s.exportHandlers.HandleEvents)

	mux.Handle("GET "+handlers.DownloadPrefix+"{name...}", s.download)

	mux.HandleFunc("GET /healthz", s.monitoringHandlers.HandleHealthCheck)
	mux.HandleFunc("GET /health", s.monitoringHandlers.HandleHealthCheck)
	if s.opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", s.opts.PrometheusHandler)
	}

	return s.mchain(mux)
}

// Start binds the configured address and serves in the background. Binding
// happens before Start returns so an address conflict fails fast.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return errors.New("http server already started")
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("http startup failed: %w", err)
	}

	s.listener = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Large archives can take a while on slow links.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	srv := s.srv
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", logfields.Error(err))
		}
	}()

	slog.Info("HTTP server started", logfields.Component("http"), slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	slog.Info("HTTP server stopped", logfields.Component("http"))
	return nil
}
