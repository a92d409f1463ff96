package operator

import (
	"context"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/value"
)

// Generator produces the next entry a Source emits, or (zero, false) when
// exhausted. A concrete Generator wraps whatever external feed a dataflow
// reads from (a file, a queue poller, a test fixture); that wiring lives
// outside this package.
type Generator func(ctx context.Context) (value.Entry, bool)

// Source has no upstreams and is driven by an external Generator rather
// than an inbound event — it supplements spec.md's Details enum, which
// names "source" but leaves its shape unspecified (spec §3).
//
// Process ignores its in argument entirely; an Execution instead polls
// Source operators directly (see execution package) rather than routing
// events to them.
type Source struct {
	OperatorID int
	Generate   Generator
	JobID      event.JobId
}

// Process implements Operator by pulling one entry from Generate and
// wrapping it as a fresh event. Returns no events once Generate is
// exhausted.
func (s *Source) Process(ctx context.Context, _ event.KeyedDataEvent) ([]event.KeyedDataEvent, error) {
	entry, ok := s.Generate(ctx)
	if !ok {
		return nil, nil
	}
	out := event.KeyedDataEvent{
		JobId:          s.JobID,
		FromOperatorId: s.OperatorID,
		Data:           []value.Entry{entry},
	}
	return []event.KeyedDataEvent{out}, nil
}
