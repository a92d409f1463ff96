package edge

import (
	"context"

	"github.com/flowdag/flowdag/event"
)

// item is what actually travels on the shared channel: either a data event
// or a Terminate control signal. LocalOutEdge encodes the event through
// value.Encode/Decode's self-describing format before handing it to the
// channel and LocalInEdge decodes it back out, exercising the same wire
// format RemoteOutEdge uses — so a subdataflow's behavior doesn't change
// depending on whether a neighbor happens to land on the same worker (spec
// §4.2: "serializes T (self-describing msgpack-style encoding)").
type item struct {
	terminate bool
	encoded   []byte
}

// NewLocalEdge creates a connected LocalOutEdge/LocalInEdge pair sharing one
// bounded channel. capacity <= 0 falls back to DefaultChannelCapacity.
func NewLocalEdge(capacity int) (*LocalOutEdge, *LocalInEdge) {
	if capacity <= 0 {
		capacity = DefaultChannelCapacity
	}
	ch := make(chan item, capacity)
	return &LocalOutEdge{ch: ch}, &LocalInEdge{ch: ch}
}

// LocalOutEdge is the sending half of an in-process edge between two
// operators on the same worker. It does not own the channel — the matching
// LocalInEdge does, and closes it when dropped (spec §4.2) — so Send after
// that point fails with ErrSendToLocalFailed rather than panicking.
type LocalOutEdge struct {
	ch chan item
}

func encodeEvent(ev event.KeyedDataEvent) ([]byte, error) {
	return encodeKeyedDataEvent(ev)
}

func (o *LocalOutEdge) Send(ctx context.Context, ev event.KeyedDataEvent) (err error) {
	encoded, err := encodeEvent(ev)
	if err != nil {
		return EncodeError(err)
	}
	return o.push(ctx, item{encoded: encoded})
}

func (o *LocalOutEdge) SendBatch(ctx context.Context, evs []event.KeyedDataEvent) error {
	for _, ev := range evs {
		if err := o.Send(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (o *LocalOutEdge) SendTerminate(ctx context.Context) error {
	return o.push(ctx, item{terminate: true})
}

// push delivers it to the channel, blocking (backpressure) until capacity
// frees up, the channel is closed, or ctx is cancelled. Sending on a closed
// channel recovers the resulting panic and reports it as
// ErrSendToLocalFailed rather than crashing the operator task.
func (o *LocalOutEdge) push(ctx context.Context, it item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = SendToLocalFailed(errClosedChannel)
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case o.ch <- it:
		return nil
	}
}

// Close is a no-op: LocalOutEdge does not own the shared channel. It exists
// to satisfy OutEdge; the LocalInEdge side is what actually closes it.
func (o *LocalOutEdge) Close() {}

// LocalInEdge is the receiving half of an in-process edge.
type LocalInEdge struct {
	ch chan item
}

func (i *LocalInEdge) Receive(ctx context.Context) (event.KeyedDataEvent, bool, error) {
	select {
	case <-ctx.Done():
		return event.KeyedDataEvent{}, false, ctx.Err()
	case it, ok := <-i.ch:
		if !ok {
			return event.KeyedDataEvent{}, false, nil
		}
		if it.terminate {
			return event.KeyedDataEvent{}, false, nil
		}
		ev, err := decodeKeyedDataEvent(it.encoded)
		if err != nil {
			return event.KeyedDataEvent{}, false, EncodeError(err)
		}
		return ev, true, nil
	}
}

// Len reports the number of items currently buffered in the channel,
// sampled for metrics.Metrics.SetQueueDepth — not a reservation, since the
// count can change the instant after it's read.
func (i *LocalInEdge) Len() int {
	return len(i.ch)
}

func (i *LocalInEdge) Poll() (event.KeyedDataEvent, bool) {
	select {
	case it, ok := <-i.ch:
		if !ok || it.terminate {
			return event.KeyedDataEvent{}, false
		}
		ev, err := decodeKeyedDataEvent(it.encoded)
		if err != nil {
			return event.KeyedDataEvent{}, false
		}
		return ev, true
	default:
		return event.KeyedDataEvent{}, false
	}
}

// Close drops the InEdge, closing the underlying channel (spec §4.2:
// "Dropping the InEdge closes the underlying channel").
func (i *LocalInEdge) Close() {
	defer func() { recover() }()
	close(i.ch)
}
