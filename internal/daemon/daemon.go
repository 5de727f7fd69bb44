package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/exporter"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/exportjob"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/metrics"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/server/handlers"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/server/httpserver"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/version"
)

// Status represents the current state of the daemon
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Daemon runs the export service, the TTL sweeper and the HTTP server.
type Daemon struct {
	config    *config.Config
	status    atomic.Value // Status
	startTime time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
	mu        sync.Mutex

	components *Components
	sweeper    *exportjob.Sweeper
	httpServer *httpserver.Server
}

// New builds all components. Nothing runs until Start.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	c, err := Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sweeper, err := exportjob.NewSweeper(c.Registry, cfg.Export.SweepIntervalDuration())
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	opts := httpserver.Options{Service: c.Service}
	// Assigned only when set so the handlers see a true nil interface.
	if c.Events != nil {
		opts.History = c.Events
	}
	if c.Prometheus != nil {
		opts.PrometheusHandler = metrics.HTTPHandler(c.Prometheus)
	}

	d := &Daemon{
		config:     cfg,
		stopChan:   make(chan struct{}),
		components: c,
		sweeper:    sweeper,
	}
	d.httpServer = httpserver.New(cfg.HTTP, opts)
	d.status.Store(StatusStopped)
	return d, nil
}

// Start brings up the sweeper and the HTTP server, then blocks until ctx
// is done or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.GetStatus() != StatusStopped {
		d.mu.Unlock()
		return fmt.Errorf("daemon is not in stopped state: %s", d.GetStatus())
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()
	slog.Info("Starting autobuilder daemon", slog.String("version", version.Version))

	if err := d.httpServer.Start(ctx); err != nil {
		d.status.Store(StatusError)
		d.mu.Unlock()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	d.sweeper.Start()

	d.status.Store(StatusRunning)
	slog.Info("Autobuilder daemon started",
		slog.String("addr", d.httpServer.Addr()),
		slog.String("download_prefix", handlers.DownloadPrefix),
		logfields.Path(d.config.Export.BundleDir),
		slog.Duration("ttl", d.components.Registry.TTL()))
	d.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-d.stopChan:
	}
	slog.Info("Daemon loop exited")
	return nil
}

// Stop shuts the HTTP server, waits for in-flight exports and releases
// the components. It is safe to call more than once.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.GetStatus()
	if current == StatusStopping || (current == StatusStopped && d.components == nil) {
		return nil
	}
	d.status.Store(StatusStopping)
	slog.Info("Stopping autobuilder daemon")
	d.stopOnce.Do(func() { close(d.stopChan) })

	if err := d.httpServer.Stop(ctx); err != nil {
		slog.Error("Failed to stop HTTP server", logfields.Error(err))
	}
	if err := d.sweeper.Stop(); err != nil {
		slog.Error("Failed to stop sweeper", logfields.Error(err))
	}
	if err := d.components.Service.Shutdown(ctx); err != nil {
		slog.Error("In-flight exports did not finish", logfields.Error(err))
	}
	if err := d.components.Close(); err != nil {
		slog.Error("Failed to close components", logfields.Error(err))
	}
	d.components = nil

	d.status.Store(StatusStopped)
	if !d.startTime.IsZero() {
		slog.Info("Autobuilder daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
	}
	return nil
}

// Service returns the export service.
func (d *Daemon) Service() *exporter.Service {
	return d.components.Service
}

// Components exposes the wired collaborators.
func (d *Daemon) Components() *Components {
	return d.components
}

// Addr returns the HTTP listen address.
func (d *Daemon) Addr() string {
	return d.httpServer.Addr()
}

// GetStatus returns the current daemon status
func (d *Daemon) GetStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// GetStartTime returns when Start was called.
func (d *Daemon) GetStartTime() time.Time {
	return d.startTime
}
