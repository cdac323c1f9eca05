// Package storage defines the persistence contracts for narrative state
// documents and telemetry events.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrStaleRevision indicates a save raced another writer: the revision the
// caller loaded is no longer current. Worlds are single-writer, so this is
// always a caller bug or a duplicate process.
var ErrStaleRevision = errors.New("stale revision")

// WorldRecord is one persisted narrative document.
type WorldRecord struct {
	WorldID       string
	SchemaVersion int
	// Revision is the optimistic-concurrency counter. Callers pass back
	// the revision they loaded; Save rejects stale values.
	Revision int64
	// Document is the canonical JSON encoding of the narrative state.
	Document  []byte
	UpdatedAt time.Time
}

// DocumentStore persists whole narrative documents, one per world.
type DocumentStore interface {
	// SaveWorld writes a record. Revision 0 creates; otherwise the stored
	// revision must match or ErrStaleRevision is returned. The new
	// revision is returned on success.
	SaveWorld(ctx context.Context, record WorldRecord) (int64, error)
	// LoadWorld returns the current record or ErrNotFound.
	LoadWorld(ctx context.Context, worldID string) (WorldRecord, error)
}

// TelemetryEvent captures an operational event for a world.
type TelemetryEvent struct {
	WorldID   string
	Turn      int
	Kind      string
	Message   string
	Timestamp time.Time
}

// TelemetryStore persists telemetry events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, evt TelemetryEvent) error
	ListTelemetryEvents(ctx context.Context, worldID string, limit int) ([]TelemetryEvent, error)
}
