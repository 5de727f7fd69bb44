package daemon

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/archive"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/buildstore"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/events"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/eventstore"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/exporter"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/exportjob"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/metrics"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/notify"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/objectstore"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/retry"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/site"
)

// Components are the collaborators built from configuration. Optional
// parts are nil when disabled.
type Components struct {
	Store      buildstore.Store
	Registry   *exportjob.Registry
	Service    *exporter.Service
	Events     eventstore.Store
	Publisher  *notify.NATSPublisher
	Mirror     *objectstore.Mirror
	Prometheus *prom.Registry

	closers []func() error
}

// Build connects the store and optional integrations and wires the export
// service. On error everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config) (_ *Components, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	c := &Components{}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		c.Prometheus = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(c.Prometheus)
	}

	c.Store, err = buildstore.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open build store: %w", err)
	}
	store := c.Store
	c.closers = append(c.closers, store.Close)
	slog.Info("Build store ready", slog.String("driver", string(cfg.Store.Driver)))

	sinks := []events.Sink{events.LogSink{}}
	if cfg.Events.Enabled {
		es, err := eventstore.NewSQLiteStore(cfg.Events.Path)
		if err != nil {
			return nil, fmt.Errorf("open event store: %w", err)
		}
		c.Events = es
		c.closers = append(c.closers, es.Close)
		sinks = append(sinks, es)
		slog.Info("Event history enabled", logfields.Path(cfg.Events.Path))
	}
	if cfg.NATS.Enabled {
		pub, err := notify.NewNATSPublisher(cfg.NATS)
		if err != nil {
			return nil, err
		}
		c.Publisher = pub
		c.closers = append(c.closers, pub.Close)
		sinks = append(sinks, pub)
	}

	var mirror exporter.Mirror
	if cfg.Mirror.Enabled {
		ocfg := objectstore.FromMirrorConfig(cfg.Mirror)
		client, err := objectstore.NewMinIOClient(ocfg)
		if err != nil {
			return nil, err
		}
		if err := objectstore.EnsureBucket(ctx, client, ocfg); err != nil {
			return nil, err
		}
		c.Mirror = objectstore.NewMirror(client, ocfg, retry.FromMirrorConfig(cfg.Mirror))
		mirror = c.Mirror
	}

	c.Registry = exportjob.NewRegistry(cfg.Export.TTLDuration(), exportjob.WithRecorder(recorder))
	c.Service, err = exporter.New(exporter.Deps{
		Store:      store,
		Registry:   c.Registry,
		Renderer:   site.NewRenderer(cfg.Export.CollisionPolicy),
		Packager:   archive.NewPackager(cfg.Export.CompressionLevel),
		Mirror:     mirror,
		Sink:       events.NewFanout(sinks...),
		Recorder:   recorder,
		ScratchDir: cfg.Export.ScratchDir,
		BundleDir:  cfg.Export.BundleDir,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Close releases everything Build opened, last opened first.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return stdErrors.Join(errs...)
}
