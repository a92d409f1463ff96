package operator

import (
	"context"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/script"
	"github.com/flowdag/flowdag/value"
)

// Map converts each input entry to a TaggedValue, evaluates it against the
// runtime with one argument, and re-packs the result as an Entry. Stateless;
// output length always equals input length (spec §4.1).
type Map struct {
	OperatorID int
	Runtime    script.Runtime
	FuncBody   string
}

// Process implements Operator.
func (m *Map) Process(ctx context.Context, in event.KeyedDataEvent) ([]event.KeyedDataEvent, error) {
	out := make([]value.Entry, len(in.Data))
	for i, entry := range in.Data {
		result := m.Runtime.CallOne(ctx, "Map", m.FuncBody, entry.Value())
		out[i] = value.NewEntry(result)
	}
	return []event.KeyedDataEvent{stamp(in.WithData(out), m.OperatorID)}, nil
}
