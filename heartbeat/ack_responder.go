package heartbeat

import (
	"context"

	"github.com/flowdag/flowdag/event"
)

// AckSender delivers an Ack to the coordinator. A concrete implementation
// wraps transport.CoordinatorClient.Ack.
type AckSender func(ctx context.Context, ack Ack) error

// AckResponder acknowledges control messages an Execution receives from the
// coordinator, one at a time, by execution id and sequence (spec §4.3).
type AckResponder struct {
	ExecutionId event.ExecutionId
	Send        AckSender
}

// Acknowledge sends an Ack for the given control-message sequence.
func (r *AckResponder) Acknowledge(ctx context.Context, sequence uint64) error {
	return r.Send(ctx, Ack{ExecutionId: r.ExecutionId, Sequence: sequence})
}
