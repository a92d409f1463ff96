package operator

import (
	"context"

	"github.com/flowdag/flowdag/event"
)

// Sink has no downstream edges; Process forwards each event to an external
// connector instead of returning further events. Supplements spec.md's
// Details enum ("sink"), which names the variant but leaves its shape
// unspecified.
type Sink struct {
	OperatorID int
	Write      func(ctx context.Context, in event.KeyedDataEvent) error
}

// Process implements Operator by delegating to Write and always returning
// no outbound events — a Sink is a dataflow leaf.
func (s *Sink) Process(ctx context.Context, in event.KeyedDataEvent) ([]event.KeyedDataEvent, error) {
	if err := s.Write(ctx, stamp(in, s.OperatorID)); err != nil {
		return nil, err
	}
	return nil, nil
}
