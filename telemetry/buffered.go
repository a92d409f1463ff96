package telemetry

import (
	"context"
	"sync"
	"time"
)

// BufferedEmitter collects events in memory and periodically hands them to
// an underlying Emitter as one batch — amortizing per-event overhead
// (network round-trips, serialization) the way the teacher's heartbeat
// cadence amortizes liveness checks. Run must be started for periodic
// flushing; Emit still buffers correctly before Run starts or after its
// context is cancelled, it just won't flush on its own until Flush is
// called explicitly.
type BufferedEmitter struct {
	underlying Emitter
	period     time.Duration

	mu      sync.Mutex
	pending []Event
}

func NewBufferedEmitter(underlying Emitter, period time.Duration) *BufferedEmitter {
	return &BufferedEmitter{underlying: underlying, period: period}
}

func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	b.pending = append(b.pending, event)
	b.mu.Unlock()
}

func (b *BufferedEmitter) EmitBatch(_ context.Context, events []Event) error {
	b.mu.Lock()
	b.pending = append(b.pending, events...)
	b.mu.Unlock()
	return nil
}

// Flush hands every buffered event to the underlying Emitter and clears the
// buffer, regardless of whether Run's periodic flush is active.
func (b *BufferedEmitter) Flush(ctx context.Context) error {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return b.underlying.EmitBatch(ctx, batch)
}

// Run flushes every Period until ctx is cancelled, then flushes once more
// so nothing buffered is lost on shutdown.
func (b *BufferedEmitter) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return b.Flush(context.Background())
		case <-ticker.C:
			if err := b.Flush(ctx); err != nil {
				return err
			}
		}
	}
}
