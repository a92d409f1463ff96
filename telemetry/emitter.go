package telemetry

import "context"

// Emitter receives observability events from the execution plane.
// Implementations must not block the caller for long and must not panic.
type Emitter interface {
	Emit(event Event)
	EmitBatch(ctx context.Context, events []Event) error
	Flush(ctx context.Context) error
}
