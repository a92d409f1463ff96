package operator

import (
	"context"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/script"
	"github.com/flowdag/flowdag/value"
)

// Filter keeps an entry iff the runtime returns Boolean(true) for it; any
// other return (including Invalid) drops the entry. Always produces
// exactly one output event, possibly with empty Data (spec §4.1).
type Filter struct {
	OperatorID int
	Runtime    script.Runtime
	FuncBody   string
}

// Process implements Operator.
func (f *Filter) Process(ctx context.Context, in event.KeyedDataEvent) ([]event.KeyedDataEvent, error) {
	kept := make([]value.Entry, 0, len(in.Data))
	for _, entry := range in.Data {
		result := f.Runtime.CallOne(ctx, "Filter", f.FuncBody, entry.Value())
		if result.Tag == value.TagBoolean && result.Boolean {
			kept = append(kept, entry)
		}
	}
	return []event.KeyedDataEvent{stamp(in.WithData(kept), f.OperatorID)}, nil
}
