// Package sqlite provides SQLite-backed persistence for narrative
// documents and telemetry events.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/emberfall/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/emberfall/internal/storage"
	"github.com/louisbranch/emberfall/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store provides SQLite-backed persistence for narrative records.
type Store struct {
	sqlDB *sql.DB
}

// DB returns the underlying sql.DB instance.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

// Open opens a SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

// SaveWorld writes a world record with optimistic concurrency. Revision 0
// creates the row; any other revision must match the stored one.
func (s *Store) SaveWorld(ctx context.Context, record storage.WorldRecord) (int64, error) {
	if strings.TrimSpace(record.WorldID) == "" {
		return 0, fmt.Errorf("world id is required")
	}
	now := record.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}

	if record.Revision == 0 {
		_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO worlds (world_id, schema_version, revision, document, updated_at)
VALUES (?, ?, 1, ?, ?)`,
			record.WorldID, record.SchemaVersion, string(record.Document), toMillis(now))
		if err != nil {
			if isConstraintError(err) {
				return 0, storage.ErrStaleRevision
			}
			return 0, fmt.Errorf("insert world: %w", err)
		}
		return 1, nil
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE worlds
SET schema_version = ?, revision = revision + 1, document = ?, updated_at = ?
WHERE world_id = ? AND revision = ?`,
		record.SchemaVersion, string(record.Document), toMillis(now), record.WorldID, record.Revision)
	if err != nil {
		return 0, fmt.Errorf("update world: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update world rows: %w", err)
	}
	if affected == 0 {
		if _, err := s.LoadWorld(ctx, record.WorldID); errors.Is(err, storage.ErrNotFound) {
			return 0, storage.ErrNotFound
		}
		return 0, storage.ErrStaleRevision
	}
	return record.Revision + 1, nil
}

// LoadWorld returns the current world record or storage.ErrNotFound.
func (s *Store) LoadWorld(ctx context.Context, worldID string) (storage.WorldRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT world_id, schema_version, revision, document, updated_at
FROM worlds WHERE world_id = ?`, worldID)

	var (
		record    storage.WorldRecord
		document  string
		updatedAt int64
	)
	if err := row.Scan(&record.WorldID, &record.SchemaVersion, &record.Revision, &document, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.WorldRecord{}, storage.ErrNotFound
		}
		return storage.WorldRecord{}, fmt.Errorf("scan world: %w", err)
	}
	record.Document = []byte(document)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// AppendTelemetryEvent persists one telemetry event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	ts := evt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO telemetry_events (world_id, turn, kind, message, created_at)
VALUES (?, ?, ?, ?, ?)`,
		evt.WorldID, evt.Turn, evt.Kind, evt.Message, toMillis(ts))
	if err != nil {
		return fmt.Errorf("insert telemetry event: %w", err)
	}
	return nil
}

// ListTelemetryEvents returns up to limit of the most recent events for a
// world, oldest first.
func (s *Store) ListTelemetryEvents(ctx context.Context, worldID string, limit int) ([]storage.TelemetryEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT world_id, turn, kind, message, created_at
FROM (
    SELECT id, world_id, turn, kind, message, created_at
    FROM telemetry_events
    WHERE world_id = ?
    ORDER BY id DESC
    LIMIT ?
) ORDER BY id ASC`, worldID, limit)
	if err != nil {
		return nil, fmt.Errorf("query telemetry events: %w", err)
	}
	defer rows.Close()

	var events []storage.TelemetryEvent
	for rows.Next() {
		var (
			evt       storage.TelemetryEvent
			createdAt int64
		)
		if err := rows.Scan(&evt.WorldID, &evt.Turn, &evt.Kind, &evt.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan telemetry event: %w", err)
		}
		evt.Timestamp = fromMillis(createdAt)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate telemetry events: %w", err)
	}
	return events, nil
}

func isConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "constraint")
}
