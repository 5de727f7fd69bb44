// Package eventstore keeps a queryable history of export lifecycle events.
package eventstore

import (
	"context"
	"time"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/events"
)

// Record is a persisted event with its sequence number.
type Record struct {
	ID int64 `json:"id"`
	events.Event
}

// Store defines the interface for persisting and retrieving export events.
type Store interface {
	events.Sink

	// Append adds a new event to the store.
	Append(ctx context.Context, e events.Event) error

	// ByExport retrieves all events for an export name, oldest first.
	ByExport(ctx context.Context, name string) ([]Record, error)

	// ByBuild retrieves all events for a build, oldest first.
	ByBuild(ctx context.Context, buildID string) ([]Record, error)

	// Range retrieves events within a time range (inclusive).
	Range(ctx context.Context, start, end time.Time) ([]Record, error)

	// Close closes the store and releases resources.
	Close() error
}
