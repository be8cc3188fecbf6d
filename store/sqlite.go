// Package store provides a SQLite-backed event sink for kiroku. Each
// captured event becomes one row, which makes local development and the
// kiroku CLI possible without a hosted ingestion endpoint.
//
// The store persists emitted events, not live trace state: an unclosed unit
// never reaches it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    captured_at TEXT NOT NULL,
    subject_id  TEXT NOT NULL,
    event       TEXT NOT NULL,
    properties  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_event ON events(event);
CREATE INDEX IF NOT EXISTS idx_events_captured_at ON events(captured_at);
`

// SQLite is an event sink that writes every captured event to a local
// SQLite database. It implements kiroku.Sink. Safe for concurrent use.
type SQLite struct {
	Path   string
	db     *sql.DB
	logger *slog.Logger

	// SQLite allows only one writer at a time; serialize writes to avoid
	// SQLITE_BUSY contention when several traces close concurrently.
	writeMu sync.Mutex
}

// Event is one stored row.
type Event struct {
	ID         int64
	CapturedAt time.Time
	SubjectID  string
	Name       string
	Properties map[string]any
}

// Open creates or opens the database at path and ensures the schema.
func Open(path string, logger *slog.Logger) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("store: sqlite path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory %q: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite database %q: %w", path, err)
	}

	s := &SQLite{Path: path, db: db, logger: logger}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) configure() error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Capture writes one event row. Failures are logged, not returned — the
// sink contract is fire-and-forget.
func (s *SQLite) Capture(subjectID, event string, properties map[string]any) {
	props, err := json.Marshal(properties)
	if err != nil {
		s.logger.Error("store: marshal properties", "event", event, "error", err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
INSERT INTO events (captured_at, subject_id, event, properties)
VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), subjectID, event, string(props))
	if err != nil {
		s.logger.Error("store: write event", "event", event, "error", err)
	}
}

// Recent returns the most recent events, newest first, optionally filtered
// by event name.
func (s *SQLite) Recent(ctx context.Context, eventName string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, captured_at, subject_id, event, properties FROM events`
	args := []any{}
	if eventName != "" {
		query += ` WHERE event = ?`
		args = append(args, eventName)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query recent events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var (
			ev       Event
			captured string
			props    string
		)
		if err := rows.Scan(&ev.ID, &captured, &ev.SubjectID, &ev.Name, &props); err != nil {
			return nil, fmt.Errorf("store: scan event row: %w", err)
		}
		ev.CapturedAt, err = time.Parse(time.RFC3339Nano, captured)
		if err != nil {
			return nil, fmt.Errorf("store: parse captured_at %q: %w", captured, err)
		}
		if err := json.Unmarshal([]byte(props), &ev.Properties); err != nil {
			return nil, fmt.Errorf("store: decode properties for event %d: %w", ev.ID, err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// CountByEvent returns the number of stored rows per event name.
func (s *SQLite) CountByEvent(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event, COUNT(*) FROM events GROUP BY event`)
	if err != nil {
		return nil, fmt.Errorf("store: count events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			name  string
			count int64
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("store: scan count row: %w", err)
		}
		out[name] = count
	}
	return out, rows.Err()
}

// Subjects returns the distinct subject ids seen, most recent first.
func (s *SQLite) Subjects(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT subject_id FROM events GROUP BY subject_id ORDER BY MAX(id) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query subjects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var subject string
		if err := rows.Scan(&subject); err != nil {
			return nil, fmt.Errorf("store: scan subject row: %w", err)
		}
		out = append(out, subject)
	}
	return out, rows.Err()
}
