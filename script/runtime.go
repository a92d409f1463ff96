// Package script defines the narrow contract FlowDAG operators use to
// evaluate user-supplied transform bodies, and the runtimes that implement
// it.
//
// A Runtime is deliberately small: call_one for Map/Filter/FlatMap/KeyBy,
// call_two for Reduce's fold step. Neither call may return an error to its
// caller — a throwing, timing-out, or non-representable evaluation folds to
// value.Invalid(), matching the "never fatal to the operator" contract an
// embedded scripting VM would need to honor. Two implementations ship here:
// GoRuntime, which resolves a function body to a registered Go closure, and
// LLMRuntime, which treats the body as a natural-language instruction
// executed by a chat model. Both are substitutes for a real embedded
// scripting VM — see DESIGN.md.
package script

import (
	"context"

	"github.com/flowdag/flowdag/value"
)

// Runtime is the scripting runtime adapter contract (spec §2, item 2).
// Implementations are scoped to exactly one operator instance: the runtime
// is not thread-safe and must never be shared or escape its owning
// operator's execution task (spec §5, "Runtime isolation").
type Runtime interface {
	// CallOne evaluates body (named name, for logging/attribution) against
	// a single argument. The operators in package operator pass their kind
	// only, e.g. "Map", so two operators of the same kind share a name.
	CallOne(ctx context.Context, name, body string, arg value.TaggedValue) value.TaggedValue

	// CallTwo evaluates body against two arguments — the fold step Reduce
	// uses to combine an accumulator with the next entry.
	CallTwo(ctx context.Context, name, body string, a, b value.TaggedValue) value.TaggedValue
}

// Close releases any resources a Runtime implementation holds (an HTTP
// client, a subprocess, a loaded script cache). Runtimes that hold nothing
// may embed NopCloser.
type Closer interface {
	Close() error
}

// NopCloser is embedded by Runtime implementations with nothing to release.
type NopCloser struct{}

// Close implements Closer.
func (NopCloser) Close() error { return nil }
