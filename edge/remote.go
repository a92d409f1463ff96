package edge

import (
	"context"
	"errors"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/transport"
)

// RemoteOutEdge targets a peer worker's send_event_to_operator RPC (spec
// §4.2). It drops Terminate control events rather than forwarding them —
// subdataflow teardown on a remote worker is driven by the Scheduler's
// explicit Terminate RPC (transport.WorkerClient.StopSubDataflow), not by a
// control event riding the data edge.
type RemoteOutEdge struct {
	client       *transport.WorkerClient
	jobID        event.JobId
	toOperatorID int
}

// NewRemoteOutEdge builds a RemoteOutEdge that forwards events addressed to
// toOperatorID over client.
func NewRemoteOutEdge(client *transport.WorkerClient, jobID event.JobId, toOperatorID int) *RemoteOutEdge {
	return &RemoteOutEdge{client: client, jobID: jobID, toOperatorID: toOperatorID}
}

func (r *RemoteOutEdge) Send(ctx context.Context, ev event.KeyedDataEvent) error {
	stamped := ev.Clone()
	id := r.toOperatorID
	stamped.ToOperatorId = &id
	_, err := r.client.SendEventToOperator(ctx, &transport.SendEventRequest{Event: stamped})
	if err != nil {
		if errors.Is(err, transport.ErrRPCFailed) {
			return SendToRemoteFailed(err)
		}
		return err
	}
	return nil
}

func (r *RemoteOutEdge) SendBatch(ctx context.Context, evs []event.KeyedDataEvent) error {
	for _, ev := range evs {
		if err := r.Send(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// SendTerminate is a no-op: RemoteOutEdge drops Terminate control events
// (spec §4.2).
func (r *RemoteOutEdge) SendTerminate(ctx context.Context) error { return nil }

// Close releases nothing: the underlying transport.WorkerClient is shared
// across every RemoteOutEdge targeting the same peer worker and is closed by
// whoever created it, not by an individual edge.
func (r *RemoteOutEdge) Close() {}
