package telemetry

import "context"

// NullEmitter discards every event. Used where observability overhead is
// unwanted (e.g. unit tests that don't assert on telemetry).
type NullEmitter struct{}

func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

func (*NullEmitter) Emit(Event) {}

func (*NullEmitter) EmitBatch(context.Context, []Event) error { return nil }

func (*NullEmitter) Flush(context.Context) error { return nil }
