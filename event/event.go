package event

import (
	"time"

	"github.com/flowdag/flowdag/value"
)

// Window describes the time window a KeyedDataEvent belongs to, when the
// dataflow uses windowed aggregation. FlowDAG's core operator set (spec
// §4.1) does not itself assign windows — Window is carried through
// unchanged by every operator — but the field exists so a windowing
// front-end built on top of these operators has somewhere to put it.
type Window struct {
	Start time.Time
	End   time.Time
}

// KeyedDataEvent is the unit of data flowing on an edge between two
// operators (spec §3). A keyed event may have no Key (before any KeyBy has
// run) or carry a group key assigned by KeyBy.
type KeyedDataEvent struct {
	JobId          JobId
	FromOperatorId int
	ToOperatorId   *int // nil until routed to a specific downstream operator
	Key            *value.Entry
	Data           []value.Entry
	EventTime      time.Time
	ProcessTime    time.Time
	Window         *Window
}

// Clone returns a KeyedDataEvent that shares no mutable slices with e, safe
// for fan-out to multiple outgoing edges.
func (e KeyedDataEvent) Clone() KeyedDataEvent {
	clone := e
	clone.Data = append([]value.Entry(nil), e.Data...)
	if e.Key != nil {
		k := *e.Key
		clone.Key = &k
	}
	if e.ToOperatorId != nil {
		id := *e.ToOperatorId
		clone.ToOperatorId = &id
	}
	if e.Window != nil {
		w := *e.Window
		clone.Window = &w
	}
	return clone
}

// WithData returns a copy of e with Data replaced, preserving all other
// metadata (key, event_time, window) — the shape every operator's output
// construction uses (spec §4.1: "Event metadata ... is preserved").
func (e KeyedDataEvent) WithData(data []value.Entry) KeyedDataEvent {
	out := e.Clone()
	out.Data = data
	return out
}

// WithKey returns a copy of e with Key replaced, used by KeyBy to stamp the
// derived group key onto each output event.
func (e KeyedDataEvent) WithKey(k value.Entry) KeyedDataEvent {
	out := e.Clone()
	out.Key = &k
	return out
}
