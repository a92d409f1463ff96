package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"google.golang.org/grpc"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/operator"
	"github.com/flowdag/flowdag/script"
	"github.com/flowdag/flowdag/state"
	"github.com/flowdag/flowdag/telemetry"
	"github.com/flowdag/flowdag/transport"
	"github.com/flowdag/flowdag/value"
)

type recordingCoordInvoker struct {
	heartbeats int
}

func (r *recordingCoordInvoker) Invoke(_ context.Context, method string, _, reply interface{}, _ ...grpc.CallOption) error {
	switch method {
	case "/flowdag.transport.Coordinator/Heartbeat":
		r.heartbeats++
		raw, _ := json.Marshal(transport.HeartbeatResponse{})
		return json.Unmarshal(raw, reply)
	case "/flowdag.transport.Coordinator/Ack":
		raw, _ := json.Marshal(transport.AckResponse{})
		return json.Unmarshal(raw, reply)
	}
	return nil
}

func noRetry() transport.RetryPolicy {
	return transport.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Retryable: func(error) bool { return false }}
}

type fixedResolver struct {
	gen operator.Generator
}

func (f fixedResolver) Source(string) operator.Generator { return f.gen }
func (fixedResolver) Sink(string) func(ctx context.Context, in event.KeyedDataEvent) error {
	return func(context.Context, event.KeyedDataEvent) error { return nil }
}

func twoEntrySource() operator.Generator {
	entries := []value.Entry{value.NewEntry(value.Number(1)), value.NewEntry(value.Number(2))}
	i := 0
	return func(context.Context) (value.Entry, bool) {
		if i >= len(entries) {
			return value.Entry{}, false
		}
		e := entries[i]
		i++
		return e, true
	}
}

func fixtureDataflow(jobID event.JobId) event.Subdataflow {
	return event.Subdataflow{
		JobId: jobID,
		Nodes: map[int]event.OperatorInfo{
			1: {OperatorId: 1, Details: event.OperatorDetails{Kind: event.DetailsSource, ConnectorTarget: "fixture"}},
			2: {OperatorId: 2, Upstreams: map[int]struct{}{1: {}}, Details: event.OperatorDetails{Kind: event.DetailsSink, ConnectorTarget: "fixture"}},
		},
		Adjacency: []event.AdjacencyEntry{
			{Center: 1, Neighbors: []int{2}},
		},
	}
}

func TestServerCreateSubDataflowAcceptsAndRuns(t *testing.T) {
	inv := &recordingCoordInvoker{}
	coordDial := func(context.Context) (*transport.CoordinatorClient, error) {
		return transport.NewCoordinatorClientWithInvoker(inv, noRetry()), nil
	}

	srv := New(
		event.HostAddr{Host: "w1", Port: 9000},
		func(event.DetailsKind) script.Runtime { return script.NewGoRuntime() },
		fixedResolver{gen: twoEntrySource()},
		state.NewMemStore(),
		nil,
		telemetry.NewNullEmitter(),
		coordDial,
	)

	jobID := event.JobId{ResourceId: "job-1"}
	execID := event.ExecutionId{JobId: jobID, SubId: 0}

	resp, err := srv.CreateSubDataflow(context.Background(), &transport.DeployRequest{
		ExecutionId:     execID,
		Subdataflow:     fixtureDataflow(jobID),
		HeartbeatPeriod: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("CreateSubDataflow: %v", err)
	}
	if !resp.Accepted {
		t.Fatalf("expected acceptance, got reason %q", resp.Reason)
	}

	time.Sleep(30 * time.Millisecond)
	if inv.heartbeats == 0 {
		t.Fatal("expected at least one heartbeat to have been sent")
	}

	stopResp, err := srv.StopSubDataflow(context.Background(), &transport.TerminateRequest{ExecutionId: execID})
	if err != nil {
		t.Fatalf("StopSubDataflow: %v", err)
	}
	if !stopResp.Accepted {
		t.Fatal("expected StopSubDataflow to be accepted")
	}
}

func TestServerStopSubDataflowForUnknownExecutionIsIdempotent(t *testing.T) {
	coordDial := func(context.Context) (*transport.CoordinatorClient, error) {
		return transport.NewCoordinatorClientWithInvoker(&recordingCoordInvoker{}, noRetry()), nil
	}
	srv := New(event.HostAddr{Host: "w1", Port: 9000}, nil, nil, state.NewMemStore(), nil, telemetry.NewNullEmitter(), coordDial)

	resp, err := srv.StopSubDataflow(context.Background(), &transport.TerminateRequest{
		ExecutionId: event.ExecutionId{JobId: event.JobId{ResourceId: "absent"}},
	})
	if err != nil {
		t.Fatalf("StopSubDataflow: %v", err)
	}
	if !resp.Accepted {
		t.Fatal("expected idempotent acceptance for an unknown execution")
	}
}
