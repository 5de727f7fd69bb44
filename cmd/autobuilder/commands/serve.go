package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/daemon"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr            string        `help:"Override the HTTP listen address"`
	ShutdownTimeout time.Duration `help:"How long to wait for in-flight exports on shutdown" default:"30s"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.HTTP.Addr = s.Addr
	}
	return RunDaemon(cfg, s.ShutdownTimeout)
}

// RunDaemon serves until SIGINT or SIGTERM, then stops gracefully.
func RunDaemon(cfg *config.Config, shutdownTimeout time.Duration) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			_ = d.Stop(context.Background())
			return fmt.Errorf("daemon error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	slog.Info("Daemon stopped successfully")
	return nil
}
