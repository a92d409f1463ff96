package operator

import (
	"context"
	"fmt"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/script"
	"github.com/flowdag/flowdag/state"
	"github.com/flowdag/flowdag/value"
)

// Reduce folds an event's entries into one running accumulator, keyed by
// operator (not by KeyBy's group key — a Reduce downstream of KeyBy still
// keeps exactly one accumulator per operator instance, matching spec §4.1:
// "State is one TaggedValue stored at key reduce-<operator_id>"). With no
// prior state, the first entry seeds the accumulator and folding starts
// from the second; with prior state, every entry folds into it. The
// resulting accumulator is written back to the store and emitted as the
// sole output Entry.
type Reduce struct {
	OperatorID int
	Runtime    script.Runtime
	Store      state.Store
	FuncBody   string
}

// Process implements Operator.
func (r *Reduce) Process(ctx context.Context, in event.KeyedDataEvent) ([]event.KeyedDataEvent, error) {
	key := state.ReduceKey(r.OperatorID)

	raw, hasState, err := r.Store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("operator: reduce %d: loading state: %w", r.OperatorID, err)
	}

	var acc value.TaggedValue
	entries := in.Data
	switch {
	case hasState:
		acc, err = value.DecodeOne(raw)
		if err != nil {
			return nil, fmt.Errorf("operator: reduce %d: decoding state: %w", r.OperatorID, err)
		}
	case len(entries) > 0:
		acc = entries[0].Value()
		entries = entries[1:]
	default:
		// No prior state and nothing to seed one with: emit a single
		// Invalid entry rather than folding anything.
		out := stamp(in.WithData([]value.Entry{value.NewEntry(value.Invalid())}), r.OperatorID)
		return []event.KeyedDataEvent{out}, nil
	}

	for _, entry := range entries {
		acc = r.Runtime.CallTwo(ctx, "Reduce", r.FuncBody, acc, entry.Value())
	}

	if err := r.Store.Set(ctx, key, value.Encode(acc)); err != nil {
		return nil, fmt.Errorf("operator: reduce %d: saving state: %w", r.OperatorID, err)
	}

	out := stamp(in.WithData([]value.Entry{value.NewEntry(acc)}), r.OperatorID)
	return []event.KeyedDataEvent{out}, nil
}
