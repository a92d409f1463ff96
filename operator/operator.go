// Package operator implements the five typed stream operators FlowDAG
// dataflows are built from (spec §4.1), plus the Source/Sink/Empty
// variants spec.md's Dataflow Details enum names but leaves unspecified.
package operator

import (
	"context"

	"github.com/flowdag/flowdag/event"
)

// Operator is "process(event) → sequence of events, or failure" (spec
// §4.1). Each operator stamps its own operator_id into every outgoing
// event's FromOperatorId (see stamp); the owning Execution then stamps
// ToOperatorId per downstream neighbor, since an operator doesn't know its
// own downstream routing, only how to transform the data it's handed.
type Operator interface {
	// Process transforms one inbound event into zero or more outbound
	// events. A returned error means the operator itself could not run
	// (e.g. a Reduce's state store is unreachable) — distinct from a
	// scripting-runtime failure, which always folds to value.Invalid and
	// never reaches this return path (spec §7, "Runtime evaluation").
	Process(ctx context.Context, in event.KeyedDataEvent) ([]event.KeyedDataEvent, error)
}

// stamp returns a copy of in with FromOperatorId set to id — the one piece
// of bookkeeping every operator implementation needs, factored out so each
// Process method reads as pure transform logic.
func stamp(in event.KeyedDataEvent, id int) event.KeyedDataEvent {
	out := in.Clone()
	out.FromOperatorId = id
	return out
}
