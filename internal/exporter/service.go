// Package exporter runs the export pipeline: load the build, render the
// site into a scratch directory, package it, persist the publish status,
// and record the outcome in the job registry.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/archive"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/buildstore"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/events"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/exportjob"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/metrics"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/site"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/workspace"
)

// Pipeline stage names used for metrics and logs.
const (
	StageLoad    = "load"
	StageRender  = "render"
	StagePack    = "pack"
	StagePersist = "persist"
	StageMirror  = "mirror"
)

// Soft failure kinds.
const (
	SoftStatusPersist = "status_persist"
	SoftMirror        = "mirror"
	SoftCleanup       = "cleanup"
)

// Mirror copies a finished bundle to secondary storage.
type Mirror interface {
	Upload(ctx context.Context, name, filePath string) (string, error)
}

// Deps are the collaborators of a Service. Mirror, Sink, Recorder and Now
// are optional.
type Deps struct {
	Store      buildstore.Store
	Registry   *exportjob.Registry
	Renderer   *site.Renderer
	Packager   *archive.Packager
	Mirror     Mirror
	Sink       events.Sink
	Recorder   metrics.Recorder
	ScratchDir string
	BundleDir  string
	Now        func() time.Time
}

// Service orchestrates exports. It is safe for concurrent use.
type Service struct {
	store      buildstore.Store
	registry   *exportjob.Registry
	renderer   *site.Renderer
	packager   *archive.Packager
	mirror     Mirror
	sink       events.Sink
	recorder   metrics.Recorder
	scratchDir string
	bundleDir  string
	now        func() time.Time

	// mu orders inflight.Add against Shutdown so no run starts after
	// Shutdown began waiting.
	mu       sync.Mutex
	closing  bool
	inflight sync.WaitGroup
}

// New validates deps and returns a Service.
func New(d Deps) (*Service, error) {
	switch {
	case d.Store == nil:
		return nil, errors.InternalError("exporter requires a build store").Build()
	case d.Registry == nil:
		return nil, errors.InternalError("exporter requires a job registry").Build()
	case d.BundleDir == "":
		return nil, errors.ConfigError("exporter requires a bundle directory").Build()
	}
	s := &Service{
		store:      d.Store,
		registry:   d.Registry,
		renderer:   d.Renderer,
		packager:   d.Packager,
		mirror:     d.Mirror,
		sink:       d.Sink,
		recorder:   d.Recorder,
		scratchDir: d.ScratchDir,
		bundleDir:  d.BundleDir,
		now:        d.Now,
	}
	if s.renderer == nil {
		s.renderer = site.NewRenderer("")
	}
	if s.packager == nil {
		s.packager = archive.NewPackager(0)
	}
	if s.sink == nil {
		s.sink = events.Discard{}
	}
	if s.recorder == nil {
		s.recorder = metrics.NoopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Result is the outcome of one export. Err is the primary failure; the
// export succeeded when it is nil. StatusErr and MirrorErr are secondary
// failures that do not change the outcome.
type Result struct {
	Name       string
	BuildID    string
	Token      string
	BundlePath string
	Bytes      int64
	Files      int
	MirrorKey  string
	Duration   time.Duration
	Skipped    []string

	Err       error
	StatusErr error
	MirrorErr error
}

// Success reports whether the archive was produced.
func (r Result) Success() bool { return r.Err == nil }

// Warnings names the soft failures of the run.
func (r Result) Warnings() []string {
	var w []string
	if r.StatusErr != nil {
		w = append(w, SoftStatusPersist)
	}
	if r.MirrorErr != nil {
		w = append(w, SoftMirror)
	}
	return w
}

// StartExport runs the whole pipeline synchronously. A name that is
// invalid or already pending is rejected without touching the registry.
func (s *Service) StartExport(ctx context.Context, buildID, name string) Result {
	job, err := s.reserve(buildID, name)
	if err != nil {
		return Result{Name: name, BuildID: buildID, Err: err}
	}
	return s.run(ctx, job)
}

// Submit reserves name and runs the pipeline in the background, detached
// from ctx cancellation. It returns the pending job.
func (s *Service) Submit(ctx context.Context, buildID, name string) (exportjob.Job, error) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return exportjob.Job{}, errShuttingDown()
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	job, err := s.reserve(buildID, name)
	if err != nil {
		s.inflight.Done()
		return exportjob.Job{}, err
	}
	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer s.inflight.Done()
		s.run(runCtx, job)
	}()
	return job, nil
}

// Wait blocks until every submitted export has finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// Shutdown stops accepting submissions and waits for in-flight exports
// until ctx is done.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight exports: %w", ctx.Err())
	}
}

func errShuttingDown() error {
	return errors.DaemonError("export service is shutting down").
		WithSeverity(errors.SeverityError).
		Build()
}

// Status returns the registry entry for name.
func (s *Service) Status(name string) (exportjob.Job, bool) {
	return s.registry.Get(name)
}

// FilePath returns the archive path for a completed export.
func (s *Service) FilePath(name string) (string, bool) {
	return s.registry.FilePath(name)
}

// Jobs lists all registry entries.
func (s *Service) Jobs() []exportjob.Job {
	return s.registry.List()
}

func (s *Service) reserve(buildID, name string) (exportjob.Job, error) {
	if err := ValidateName(name); err != nil {
		s.recorder.IncExportOutcome(metrics.OutcomeRejected)
		return exportjob.Job{}, err
	}
	if buildID == "" {
		s.recorder.IncExportOutcome(metrics.OutcomeRejected)
		return exportjob.Job{}, errors.ValidationError("build id is required").Build()
	}
	job, err := s.registry.Reserve(name, buildID)
	if err != nil {
		s.recorder.IncExportOutcome(metrics.OutcomeRejected)
		slog.Warn("Export rejected", logfields.ExportName(name), logfields.BuildID(buildID), logfields.Error(err))
		return exportjob.Job{}, err
	}
	return job, nil
}

func (s *Service) run(ctx context.Context, job exportjob.Job) Result {
	start := s.now()
	res := Result{Name: job.Name, BuildID: job.BuildID, Token: job.Token}
	log := slog.With(logfields.ExportName(job.Name), logfields.BuildID(job.BuildID), logfields.JobToken(job.Token))
	log.Info("Export started")
	s.emit(ctx, events.Event{Type: events.TypeStarted, Name: job.Name, BuildID: job.BuildID, Token: job.Token, At: start})

	res.Err = s.produce(ctx, log, &res)
	if res.Err == nil {
		s.succeed(ctx, log, &res)
	} else {
		s.fail(ctx, log, &res)
	}
	res.Duration = s.now().Sub(start)
	s.recorder.ObserveExportDuration(res.Duration)

	ev := events.Event{Name: res.Name, BuildID: res.BuildID, Token: res.Token, At: s.now(), Duration: res.Duration}
	if res.Success() {
		ev.Type = events.TypeCompleted
		ev.BundlePath = res.BundlePath
		ev.Bytes = res.Bytes
		ev.Warnings = res.Warnings()
	} else {
		ev.Type = events.TypeFailed
		ev.Error = errors.UserMessage(res.Err)
	}
	s.emit(ctx, ev)
	return res
}

// produce loads, renders and packs. The scratch directory is removed
// before it returns.
func (s *Service) produce(ctx context.Context, log *slog.Logger, res *Result) error {
	var data *site.BuildData
	err := s.stage(StageLoad, func() error {
		var err error
		data, err = s.store.LoadBuild(ctx, res.BuildID)
		if err != nil {
			return errors.WrapError(err, errors.CategoryDataLoad, "failed to load build data").
				WithContext("build_id", res.BuildID).
				Build()
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Debug("Build data loaded", logfields.Count(len(data.Pages)))

	ws := workspace.NewManager(s.scratchDir)
	dir, err := ws.Create()
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create scratch directory").Build()
	}
	log = log.With(slog.String("workspace", ws.Token()))
	log.Debug("Scratch directory ready", logfields.Path(dir))
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			s.recorder.IncSoftFailure(SoftCleanup)
			log.Warn("Failed to remove scratch directory", logfields.Path(dir), logfields.Error(cerr))
		}
	}()

	err = s.stage(StageRender, func() error {
		report, err := s.renderer.Render(data, dir)
		if err != nil {
			return err
		}
		res.Skipped = report.Skipped
		return nil
	})
	if err != nil {
		return err
	}

	bundlePath := filepath.Join(s.bundleDir, res.Name)
	return s.stage(StagePack, func() error {
		stats, err := s.packager.Pack(ctx, dir, bundlePath)
		if err != nil {
			return err
		}
		res.BundlePath = bundlePath
		res.Bytes = stats.Bytes
		res.Files = stats.Files
		return nil
	})
}

// succeed publishes the archive before mirroring it, so downloads do not
// wait on the mirror's retries.
func (s *Service) succeed(ctx context.Context, log *slog.Logger, res *Result) {
	res.StatusErr = s.persistStatus(ctx, log, res.BuildID, buildstore.PublishPublished)

	job := s.registry.SetCompleted(res.Name, res.BundlePath)
	s.recorder.IncExportOutcome(metrics.OutcomeCompleted)
	s.recorder.ObserveBundleSize(res.Bytes)
	log.Info("Export completed",
		logfields.JobStatus(string(job.Status)),
		logfields.Path(res.BundlePath),
		logfields.Bytes(res.Bytes))

	if s.mirror != nil {
		_ = s.stage(StageMirror, func() error {
			key, err := s.mirror.Upload(ctx, res.Name, res.BundlePath)
			if err != nil {
				res.MirrorErr = err
				s.recorder.IncSoftFailure(SoftMirror)
				log.Warn("Bundle mirror failed", logfields.Error(err))
				return err
			}
			res.MirrorKey = key
			log.Debug("Bundle mirrored", slog.String("key", key))
			return nil
		})
	}
}

func (s *Service) fail(ctx context.Context, log *slog.Logger, res *Result) {
	res.StatusErr = s.persistStatus(ctx, log, res.BuildID, buildstore.PublishFailed)
	job := s.registry.SetFailed(res.Name, errors.UserMessage(res.Err))
	s.recorder.IncExportOutcome(metrics.OutcomeFailed)
	log.Error("Export failed",
		logfields.JobStatus(string(job.Status)),
		slog.String("category", string(errors.GetCategory(res.Err))),
		logfields.Error(res.Err))
}

func (s *Service) persistStatus(ctx context.Context, log *slog.Logger, buildID string, status buildstore.PublishStatus) error {
	var perr error
	_ = s.stage(StagePersist, func() error {
		if err := s.store.UpdatePublishStatus(ctx, buildID, status); err != nil {
			perr = errors.WrapError(err, errors.CategoryPersist, "failed to update publish status").
				WithSeverity(errors.SeverityWarning).
				WithRetry(errors.RetryBackoff).
				WithContext("status", string(status)).
				Build()
		}
		return perr
	})
	if perr != nil {
		s.recorder.IncSoftFailure(SoftStatusPersist)
		log.Warn("Failed to update build status", slog.String("status", string(status)), logfields.Error(perr))
	}
	return perr
}

func (s *Service) stage(name string, fn func() error) error {
	start := s.now()
	err := fn()
	d := s.now().Sub(start)
	s.recorder.ObserveStageDuration(name, d)
	slog.Debug("Export stage finished",
		logfields.Stage(name),
		logfields.DurationMS(float64(d.Milliseconds())),
		slog.Bool("ok", err == nil))
	return err
}

func (s *Service) emit(ctx context.Context, e events.Event) {
	if err := s.sink.Emit(ctx, e); err != nil {
		slog.Warn("Failed to emit export event", slog.String("event", string(e.Type)), logfields.Error(err))
	}
}
