package operator

import (
	"context"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/script"
	"github.com/flowdag/flowdag/value"
)

// FlatMap calls the runtime once per input entry; an Array(v) result emits
// each element of v, any other result emits nothing for that entry. All
// emitted entries concatenate into one output event preserving the input's
// metadata (spec §4.1).
type FlatMap struct {
	OperatorID int
	Runtime    script.Runtime
	FuncBody   string
}

// Process implements Operator.
func (fm *FlatMap) Process(ctx context.Context, in event.KeyedDataEvent) ([]event.KeyedDataEvent, error) {
	var out []value.Entry
	for _, entry := range in.Data {
		result := fm.Runtime.CallOne(ctx, "FlatMap", fm.FuncBody, entry.Value())
		if result.Tag != value.TagArray {
			continue
		}
		for _, elem := range result.Array {
			out = append(out, value.NewEntry(elem))
		}
	}
	return []event.KeyedDataEvent{stamp(in.WithData(out), fm.OperatorID)}, nil
}
