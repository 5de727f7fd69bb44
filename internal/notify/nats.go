// Package notify publishes export lifecycle events to NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/events"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
)

// publisher is the subset of *nats.Conn used here.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// NATSPublisher sends each event as JSON on "<subject>.<event type>",
// e.g. autobuilder.exports.export.completed.
type NATSPublisher struct {
	conn    *nats.Conn
	pub     publisher
	subject string
}

var _ events.Sink = (*NATSPublisher)(nil)

// NewNATSPublisher connects to cfg.URL.
func NewNATSPublisher(cfg config.NATSConfig) (*NATSPublisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("nats publishing is disabled")
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name("autobuilder"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").
			WithContext("url", cfg.URL).
			WithContext("cause", err.Error()).
			Build()
	}
	slog.Info("NATS publisher initialized", slog.String("url", cfg.URL), slog.String("subject", cfg.Subject))
	return &NATSPublisher{conn: conn, pub: conn, subject: cfg.Subject}, nil
}

// Subject returns the subject an event is published on.
func (p *NATSPublisher) Subject(t events.Type) string {
	return strings.TrimSuffix(p.subject, ".") + "." + string(t)
}

// Emit implements events.Sink.
func (p *NATSPublisher) Emit(ctx context.Context, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	subject := p.Subject(e.Type)
	if err := p.pub.Publish(subject, data); err != nil {
		return errors.NetworkError("failed to publish event").
			WithContext("subject", subject).
			WithContext("cause", err.Error()).
			Build()
	}
	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.pub.FlushWithContext(flushCtx); err != nil {
		return errors.NetworkError("failed to flush event").
			WithContext("subject", subject).
			WithContext("cause", err.Error()).
			Build()
	}
	slog.Debug("Published export event", slog.String("subject", subject), logfields.ExportName(e.Name))
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
