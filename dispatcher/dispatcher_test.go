package dispatcher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"google.golang.org/grpc"

	"github.com/flowdag/flowdag/cluster"
	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/execution"
	"github.com/flowdag/flowdag/heartbeat"
	"github.com/flowdag/flowdag/scheduler"
	"github.com/flowdag/flowdag/state"
	"github.com/flowdag/flowdag/transport"
)

type acceptingInvoker struct{}

func (acceptingInvoker) Invoke(_ context.Context, method string, _, reply interface{}, _ ...grpc.CallOption) error {
	switch method {
	case "/flowdag.transport.Worker/CreateSubDataflow":
		raw, _ := json.Marshal(transport.DeployResponse{Accepted: true})
		return json.Unmarshal(raw, reply)
	case "/flowdag.transport.Worker/StopSubDataflow":
		raw, _ := json.Marshal(transport.TerminateResponse{Accepted: true})
		return json.Unmarshal(raw, reply)
	}
	return nil
}

func testDial() scheduler.WorkerDialer {
	return func(_ event.HostAddr) (*transport.WorkerClient, error) {
		return transport.NewWorkerClientWithInvoker(acceptingInvoker{}, transport.RetryPolicy{
			MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond,
			Retryable: func(error) bool { return false },
		}), nil
	}
}

func testConfig() Config {
	return Config{HeartbeatAddr: "coordinator:7000", HeartbeatPeriod: time.Second, MissedForSuspect: 2, MissedForFailed: 4}
}

func fixtureDataflow(jobID event.JobId) event.Dataflow {
	return event.Dataflow{
		JobId: jobID,
		Nodes: map[int]event.OperatorInfo{
			1: {OperatorId: 1, Details: event.OperatorDetails{Kind: event.DetailsSource}},
			2: {OperatorId: 2, Upstreams: map[int]struct{}{1: {}}, Details: event.OperatorDetails{Kind: event.DetailsSink}},
		},
		Adjacency: []event.AdjacencyEntry{{Center: 1, Neighbors: []int{2}}},
	}
}

func newTestDispatcher() *Dispatcher {
	view := cluster.NewView(nil)
	view.AddWorker(event.HostAddr{Host: "w1", Port: 9000})
	return New(view, state.NewMemStore(), testConfig(), testDial())
}

func TestDispatcherCreateThenGetDataflowRoundTrips(t *testing.T) {
	d := newTestDispatcher()
	jobID := event.JobId{ResourceId: "job-1"}

	if err := d.CreateDataflow(context.Background(), fixtureDataflow(jobID)); err != nil {
		t.Fatalf("CreateDataflow: %v", err)
	}

	df, ok, err := d.GetDataflow(context.Background(), jobID)
	if err != nil || !ok {
		t.Fatalf("GetDataflow: ok=%v err=%v", ok, err)
	}
	if df.JobId != jobID {
		t.Fatalf("wrong job id: %+v", df.JobId)
	}
}

func TestDispatcherTerminateUnknownJobReturnsClosed(t *testing.T) {
	d := newTestDispatcher()
	status, err := d.TerminateDataflow(context.Background(), event.JobId{ResourceId: "never-created"})
	if err != nil {
		t.Fatalf("TerminateDataflow: %v", err)
	}
	if status != execution.Closed {
		t.Fatalf("expected Closed, got %v", status)
	}
}

func TestDispatcherTerminateRemovesJobOnClosed(t *testing.T) {
	d := newTestDispatcher()
	jobID := event.JobId{ResourceId: "job-2"}
	if err := d.CreateDataflow(context.Background(), fixtureDataflow(jobID)); err != nil {
		t.Fatalf("CreateDataflow: %v", err)
	}

	status, err := d.TerminateDataflow(context.Background(), jobID)
	if err != nil {
		t.Fatalf("TerminateDataflow: %v", err)
	}
	if status != execution.Closed {
		t.Fatalf("expected Closed, got %v", status)
	}

	d.mu.RLock()
	_, stillTracked := d.managers[jobID]
	d.mu.RUnlock()
	if stillTracked {
		t.Fatal("expected job to be removed from the manager map after Closed")
	}
}

func TestDispatcherHeartbeatForUnknownJobIsNotAnError(t *testing.T) {
	d := newTestDispatcher()
	hb := heartbeat.Heartbeat{ExecutionId: event.ExecutionId{JobId: event.JobId{ResourceId: "ghost"}, SubId: 0}, Timestamp: time.Now(), Sequence: 1}
	if err := d.UpdateHeartbeatStatus(hb); err != nil {
		t.Fatalf("expected no error for an unknown job's heartbeat, got %v", err)
	}
}

func TestDispatcherAckForUnknownJobIsNotAnError(t *testing.T) {
	d := newTestDispatcher()
	ack := heartbeat.Ack{ExecutionId: event.ExecutionId{JobId: event.JobId{ResourceId: "ghost"}, SubId: 0}, Sequence: 1}
	if err := d.AckFromExecution(ack); err != nil {
		t.Fatalf("expected no error for an unknown job's ack, got %v", err)
	}
}
