package jobmanager

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"google.golang.org/grpc"

	"github.com/flowdag/flowdag/cluster"
	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/execution"
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

func testConfig() Config {
	return Config{
		HeartbeatAddr:    "coordinator:7000",
		HeartbeatPeriod:  time.Second,
		MissedForSuspect: 2,
		MissedForFailed:  4,
	}
}

func noRetry() transport.RetryPolicy {
	return transport.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Retryable: func(error) bool { return false }}
}

func fixtureDataflow(jobID event.JobId) event.Dataflow {
	return event.Dataflow{
		JobId: jobID,
		Nodes: map[int]event.OperatorInfo{
			1: {OperatorId: 1, Details: event.OperatorDetails{Kind: event.DetailsSource}},
			2: {OperatorId: 2, Upstreams: map[int]struct{}{1: {}}, Details: event.OperatorDetails{Kind: event.DetailsMap, FuncBody: "double"}},
			3: {OperatorId: 3, Upstreams: map[int]struct{}{2: {}}, Details: event.OperatorDetails{Kind: event.DetailsSink}},
		},
		Adjacency: []event.AdjacencyEntry{
			{Center: 1, Neighbors: []int{2}},
			{Center: 2, Neighbors: []int{3}},
		},
	}
}

func TestJobManagerDeployPersistsAndDeploysAcrossWorkers(t *testing.T) {
	jobID := event.JobId{ResourceId: "job-1"}
	store := state.NewDataflowStore(state.NewMemStore())
	dial := func(_ event.HostAddr) (*transport.WorkerClient, error) {
		return transport.NewWorkerClientWithInvoker(acceptingInvoker{}, noRetry()), nil
	}
	jm := New(jobID, testConfig(), store, dial)

	view := cluster.NewView(nil)
	view.AddWorker(event.HostAddr{Host: "w1", Port: 9000})
	view.AddWorker(event.HostAddr{Host: "w2", Port: 9000})

	df := fixtureDataflow(jobID)
	if err := jm.Deploy(context.Background(), df, view); err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	persisted, ok, err := jm.GetDataflow(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected persisted dataflow, ok=%v err=%v", ok, err)
	}
	if persisted.JobId != jobID {
		t.Fatalf("persisted wrong job id: %+v", persisted.JobId)
	}
}

func TestJobManagerDeployRejectsInvalidDataflow(t *testing.T) {
	jobID := event.JobId{ResourceId: "job-2"}
	store := state.NewDataflowStore(state.NewMemStore())
	dial := func(_ event.HostAddr) (*transport.WorkerClient, error) {
		return transport.NewWorkerClientWithInvoker(acceptingInvoker{}, noRetry()), nil
	}
	jm := New(jobID, testConfig(), store, dial)

	view := cluster.NewView(nil)
	view.AddWorker(event.HostAddr{Host: "w1", Port: 9000})

	if err := jm.Deploy(context.Background(), event.Dataflow{JobId: jobID}, view); err == nil {
		t.Fatal("expected Deploy to reject an empty dataflow")
	}
	if _, ok, _ := jm.GetDataflow(context.Background()); ok {
		t.Fatal("expected no dataflow to be persisted after a validation failure")
	}
}

func TestJobManagerTerminateDataflowAggregatesStatus(t *testing.T) {
	jobID := event.JobId{ResourceId: "job-3"}
	store := state.NewDataflowStore(state.NewMemStore())
	dial := func(_ event.HostAddr) (*transport.WorkerClient, error) {
		return transport.NewWorkerClientWithInvoker(acceptingInvoker{}, noRetry()), nil
	}
	jm := New(jobID, testConfig(), store, dial)

	view := cluster.NewView(nil)
	view.AddWorker(event.HostAddr{Host: "w1", Port: 9000})

	if err := jm.Deploy(context.Background(), fixtureDataflow(jobID), view); err != nil {
		t.Fatalf("Deploy: %v", err)
	}

	status, err := jm.TerminateDataflow(context.Background())
	if err != nil {
		t.Fatalf("TerminateDataflow: %v", err)
	}
	if status != execution.Closed {
		t.Fatalf("expected Closed, got %v", status)
	}
}
