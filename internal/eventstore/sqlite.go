package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/events"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite-based event store.
// Use ":memory:" for in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, wrap(ErrDatabaseOpenFailed, err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, wrap(ErrInitializeSchemaFailed, err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS export_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		export_name TEXT NOT NULL,
		build_id TEXT NOT NULL,
		token TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_export_events_name ON export_events(export_name);
	CREATE INDEX IF NOT EXISTS idx_export_events_build ON export_events(build_id);
	CREATE INDEX IF NOT EXISTS idx_export_events_timestamp ON export_events(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a new event to the store. A zero At is stamped with the current time.
func (s *SQLiteStore) Append(ctx context.Context, e events.Event) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return wrap(ErrEventAppendFailed, fmt.Errorf("marshal payload: %w", err))
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO export_events (export_name, build_id, token, event_type, timestamp, payload) VALUES (?, ?, ?, ?, ?, ?)",
		e.Name, e.BuildID, e.Token, string(e.Type), e.At.UnixNano(), payload,
	)
	if err != nil {
		return wrap(ErrEventAppendFailed, err)
	}
	return nil
}

// Emit implements events.Sink.
func (s *SQLiteStore) Emit(ctx context.Context, e events.Event) error {
	return s.Append(ctx, e)
}

// ByExport implements Store.
func (s *SQLiteStore) ByExport(ctx context.Context, name string) ([]Record, error) {
	return s.query(ctx, "SELECT id, payload FROM export_events WHERE export_name = ? ORDER BY id", name)
}

// ByBuild implements Store.
func (s *SQLiteStore) ByBuild(ctx context.Context, buildID string) ([]Record, error) {
	return s.query(ctx, "SELECT id, payload FROM export_events WHERE build_id = ? ORDER BY id", buildID)
}

// Range implements Store.
func (s *SQLiteStore) Range(ctx context.Context, start, end time.Time) ([]Record, error) {
	return s.query(ctx,
		"SELECT id, payload FROM export_events WHERE timestamp >= ? AND timestamp <= ? ORDER BY id",
		start.UnixNano(), end.UnixNano())
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrap(ErrEventQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()

	records := []Record{}
	for rows.Next() {
		var (
			rec     Record
			payload []byte
		)
		if err := rows.Scan(&rec.ID, &payload); err != nil {
			return nil, wrap(ErrEventScanFailed, err)
		}
		if err := json.Unmarshal(payload, &rec.Event); err != nil {
			return nil, wrap(ErrEventScanFailed, fmt.Errorf("unmarshal payload: %w", err))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(ErrEventQueryFailed, err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
