// Package telemetry records operational events emitted by the narrative
// surfaces. The engine itself never emits; callers forward its side
// effects after a tick commits.
package telemetry

import (
	"context"
	"time"

	"github.com/louisbranch/emberfall/internal/narrative"
	"github.com/louisbranch/emberfall/internal/storage"
)

// Emitter records operational telemetry events.
type Emitter struct {
	store storage.TelemetryStore
	clock func() time.Time
}

// NewEmitter creates a new telemetry emitter.
func NewEmitter(store storage.TelemetryStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records a telemetry event. It is a no-op when the store is nil.
func (e *Emitter) Emit(ctx context.Context, evt storage.TelemetryEvent) error {
	if e == nil || e.store == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		if e.clock == nil {
			evt.Timestamp = time.Now().UTC()
		} else {
			evt.Timestamp = e.clock().UTC()
		}
	}
	return e.store.AppendTelemetryEvent(ctx, evt)
}

// EmitEffects records every side effect of an engine call for a world.
// The first failure stops the batch and is returned.
func (e *Emitter) EmitEffects(ctx context.Context, worldID string, effects []narrative.SideEffect) error {
	for _, effect := range effects {
		err := e.Emit(ctx, storage.TelemetryEvent{
			WorldID: worldID,
			Turn:    effect.Turn,
			Kind:    string(effect.Kind),
			Message: effect.Message,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
