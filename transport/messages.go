package transport

import (
	"time"

	"github.com/flowdag/flowdag/event"
)

// SendEventRequest is the body of the worker-to-worker
// send_event_to_operator RPC (spec §4.2).
type SendEventRequest struct {
	Event event.KeyedDataEvent
}

// SendEventResponse acknowledges a SendEventRequest.
type SendEventResponse struct{}

// DeployRequest asks a worker to accept and run a subdataflow (spec §4.4
// Scheduler.execute).
type DeployRequest struct {
	ExecutionId      event.ExecutionId
	Subdataflow      event.Subdataflow
	HeartbeatAddr    string
	HeartbeatPeriod  time.Duration
	MissedForSuspect int
	MissedForFailed  int
}

// DeployResponse reports whether the worker accepted the deployment.
type DeployResponse struct {
	Accepted bool
	Reason   string
}

// TerminateRequest asks a worker to close a running execution (spec §4.3
// "Closing" transition).
type TerminateRequest struct {
	ExecutionId event.ExecutionId
}

// TerminateResponse acknowledges a TerminateRequest.
type TerminateResponse struct {
	Accepted bool
}

// HeartbeatRequest is sent execution -> coordinator every heartbeat period
// (spec §4.3).
type HeartbeatRequest struct {
	ExecutionId event.ExecutionId
	Timestamp   time.Time
	Sequence    uint64
}

// HeartbeatResponse carries the coordinator's ack back to the execution
// (spec §4.3 "Ack flow is reverse to heartbeat").
type HeartbeatResponse struct {
	AckedSequence uint64
}

// AckRequest acknowledges receipt of a control message (spec §4.3).
type AckRequest struct {
	ExecutionId event.ExecutionId
	Sequence    uint64
}

// AckResponse is an empty acknowledgement of an AckRequest.
type AckResponse struct{}

// GetDataflowRequest resolves the dispatcher's persisted Dataflow for a job
// (spec §4.5, Open Question "get_dataflow").
type GetDataflowRequest struct {
	JobId event.JobId
}

// GetDataflowResponse carries back the persisted Dataflow, if any.
type GetDataflowResponse struct {
	Found    bool
	Dataflow event.Dataflow
}
