package operator

import (
	"context"
	"sort"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/script"
	"github.com/flowdag/flowdag/value"
)

// KeyBy derives a group key per entry via the runtime, groups entries by
// that key under TaggedValue's canonical ordering, and emits one output
// event per distinct key — each carrying that key as Entry `key`, its
// entries in first-insertion order, and output events themselves ordered
// by the same canonical ordering (spec §4.1).
type KeyBy struct {
	OperatorID int
	Runtime    script.Runtime
	FuncBody   string
}

type keyGroup struct {
	key     value.TaggedValue
	entries []value.Entry
}

// Process implements Operator.
func (k *KeyBy) Process(ctx context.Context, in event.KeyedDataEvent) ([]event.KeyedDataEvent, error) {
	var groups []keyGroup
	for _, entry := range in.Data {
		keyVal := k.Runtime.CallOne(ctx, "KeyBy", k.FuncBody, entry.Value())

		idx := -1
		for i, g := range groups {
			if value.Equal(g.key, keyVal) {
				idx = i
				break
			}
		}
		if idx == -1 {
			groups = append(groups, keyGroup{key: keyVal, entries: []value.Entry{entry}})
		} else {
			groups[idx].entries = append(groups[idx].entries, entry)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return value.Compare(groups[i].key, groups[j].key) < 0
	})

	out := make([]event.KeyedDataEvent, len(groups))
	for i, g := range groups {
		keyEntry := value.NewEntry(g.key)
		outEvent := in.WithData(g.entries)
		outEvent = outEvent.WithKey(keyEntry)
		out[i] = stamp(outEvent, k.OperatorID)
	}
	return out, nil
}
