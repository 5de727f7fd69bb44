// Package events defines the export lifecycle event and the sinks that
// receive it (event history, message bus, logs).
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
)

// Type names a lifecycle transition.
type Type string

const (
	TypeStarted   Type = "export.started"
	TypeCompleted Type = "export.completed"
	TypeFailed    Type = "export.failed"
)

// Event describes one transition of an export run.
type Event struct {
	Type       Type          `json:"type"`
	Name       string        `json:"name"`
	BuildID    string        `json:"buildId"`
	Token      string        `json:"token"`
	At         time.Time     `json:"at"`
	BundlePath string        `json:"bundlePath,omitempty"`
	Bytes      int64         `json:"bytes,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"durationNs,omitempty"`
	// Warnings lists soft failures of a completed export.
	Warnings []string `json:"warnings,omitempty"`
}

// Sink receives lifecycle events.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Emit(ctx context.Context, e Event) error { return f(ctx, e) }

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(context.Context, Event) error { return nil }

// Fanout delivers each event to every sink. A failing sink is logged and
// does not stop delivery to the others; Emit always returns nil.
type Fanout struct {
	sinks []Sink
}

// NewFanout builds a fan-out over the non-nil sinks.
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Len reports the number of attached sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) Emit(ctx context.Context, e Event) error {
	for _, s := range f.sinks {
		if err := s.Emit(ctx, e); err != nil {
			slog.Warn("Event sink failed",
				slog.String("event", string(e.Type)),
				logfields.ExportName(e.Name),
				logfields.Error(err))
		}
	}
	return nil
}

// LogSink writes every event to the default logger.
type LogSink struct{}

func (LogSink) Emit(_ context.Context, e Event) error {
	attrs := []any{
		slog.String("event", string(e.Type)),
		logfields.ExportName(e.Name),
		logfields.BuildID(e.BuildID),
		logfields.JobToken(e.Token),
	}
	switch e.Type {
	case TypeCompleted:
		attrs = append(attrs, logfields.Path(e.BundlePath), logfields.Bytes(e.Bytes),
			logfields.DurationMS(float64(e.Duration.Milliseconds())))
		slog.Info("Export completed", attrs...)
	case TypeFailed:
		attrs = append(attrs, slog.String("error", e.Error),
			logfields.DurationMS(float64(e.Duration.Milliseconds())))
		slog.Warn("Export failed", attrs...)
	default:
		slog.Info("Export started", attrs...)
	}
	return nil
}
