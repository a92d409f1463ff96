package heartbeat

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/flowdag/flowdag/event"
)

// Sender delivers a Heartbeat to the coordinator. A concrete implementation
// wraps transport.CoordinatorClient.Heartbeat.
type Sender func(ctx context.Context, hb Heartbeat) error

// Emitter ticks every Period, sending an incrementing-sequence Heartbeat
// until ctx is cancelled (spec §4.3). A send failure is logged by the
// caller's Sender and does not stop the ticking — a missed heartbeat is
// exactly the signal the coordinator's Monitor is watching for.
type Emitter struct {
	ExecutionId event.ExecutionId
	Period      time.Duration
	Send        Sender

	seq atomic.Uint64
}

// Run blocks, emitting heartbeats every Period, until ctx is done.
func (e *Emitter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			hb := Heartbeat{
				ExecutionId: e.ExecutionId,
				Timestamp:   now,
				Sequence:    e.seq.Add(1),
			}
			_ = e.Send(ctx, hb)
		}
	}
}
