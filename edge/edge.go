// Package edge implements the data-transport links between operators (spec
// §4.2): OutEdge/InEdge pairs that carry KeyedDataEvents either through an
// in-process bounded channel (LocalOutEdge/LocalInEdge) or over the network
// to a peer worker (RemoteOutEdge, via the transport package's WorkerClient).
package edge

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowdag/flowdag/event"
)

// OutEdge transports KeyedDataEvents toward one downstream operator, local
// or remote. Send may block under backpressure (spec §4.2: "Local channels
// are bounded ... send suspends when full. Remote edges block on the RPC
// round-trip. No silent dropping.").
type OutEdge interface {
	Send(ctx context.Context, ev event.KeyedDataEvent) error
	// SendBatch writes each event in order, stopping at and returning the
	// first failure (spec §4.2: "ordering preserved, partial success
	// reported by first error").
	SendBatch(ctx context.Context, evs []event.KeyedDataEvent) error
	// SendTerminate forwards a control signal rather than data. LocalOutEdge
	// delivers it like any other item; RemoteOutEdge drops it (spec §4.2).
	SendTerminate(ctx context.Context) error
	Close()
}

// InEdge exposes the receiving half of an edge.
type InEdge interface {
	// Receive blocks until an event is available, the edge is closed, or ctx
	// is done.
	Receive(ctx context.Context) (event.KeyedDataEvent, bool, error)
	// Poll returns immediately: an event if one is queued, ok=false
	// otherwise. Never blocks.
	Poll() (ev event.KeyedDataEvent, ok bool)
	Close()
}

// Sentinel failure kinds (spec §4.2 "Failure modes").
var (
	// ErrSendToLocalFailed wraps the cause when a LocalOutEdge's channel is
	// closed.
	ErrSendToLocalFailed = errors.New("edge: send to local failed, channel closed")
	// ErrSendToRemoteFailed wraps an RPC status returned by a peer worker.
	ErrSendToRemoteFailed = errors.New("edge: send to remote failed")
	// ErrEncodeError is returned when a value cannot be encoded for transport.
	ErrEncodeError = errors.New("edge: encode error")
)

// SendToLocalFailed annotates ErrSendToLocalFailed with its cause.
func SendToLocalFailed(cause error) error {
	return fmt.Errorf("%w: %v", ErrSendToLocalFailed, cause)
}

// SendToRemoteFailed annotates ErrSendToRemoteFailed with the RPC status it
// observed.
func SendToRemoteFailed(status error) error {
	return fmt.Errorf("%w: %v", ErrSendToRemoteFailed, status)
}

// EncodeError annotates ErrEncodeError with the underlying codec failure.
func EncodeError(cause error) error {
	return fmt.Errorf("%w: %v", ErrEncodeError, cause)
}

// DefaultChannelCapacity is the default bound for a LocalOutEdge/LocalInEdge
// pair's shared channel (spec §4.2: "Local channels are bounded (default
// 1000 items)").
const DefaultChannelCapacity = 1000
