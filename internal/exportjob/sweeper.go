package exportjob

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
)

// Sweeper runs Registry.Sweep periodically on a gocron scheduler.
type Sweeper struct {
	scheduler gocron.Scheduler
	registry  *Registry
	interval  time.Duration
}

// NewSweeper schedules a sweep of reg every interval. Cycles never overlap.
func NewSweeper(reg *Registry, interval time.Duration) (*Sweeper, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	sw := &Sweeper{scheduler: s, registry: reg, interval: interval}

	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(sw.run),
		gocron.WithName("export-ttl-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create sweep job: %w", err)
	}
	return sw, nil
}

// Start begins the schedule.
func (s *Sweeper) Start() {
	slog.Info("Starting export sweeper",
		logfields.Component("sweeper"),
		slog.Duration("interval", s.interval),
		slog.Duration("ttl", s.registry.TTL()))
	s.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for a running sweep.
func (s *Sweeper) Stop() error {
	slog.Info("Stopping export sweeper", logfields.Component("sweeper"))
	return s.scheduler.Shutdown()
}

func (s *Sweeper) run() {
	if swept := s.registry.Sweep(); len(swept) > 0 {
		slog.Debug("Sweep cycle finished", logfields.Component("sweeper"), logfields.Count(len(swept)))
	}
}
