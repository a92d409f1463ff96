package coordinatorserver

import (
	"context"
	"testing"
	"time"

	"github.com/flowdag/flowdag/cluster"
	"github.com/flowdag/flowdag/dispatcher"
	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/scheduler"
	"github.com/flowdag/flowdag/state"
	"github.com/flowdag/flowdag/transport"
)

func noopDial() scheduler.WorkerDialer {
	return func(event.HostAddr) (*transport.WorkerClient, error) {
		return nil, nil
	}
}

func TestGetDataflowReturnsNotFoundForUnknownJob(t *testing.T) {
	view := cluster.NewView(nil)
	d := dispatcher.New(view, state.NewMemStore(), dispatcher.Config{HeartbeatPeriod: time.Second, MissedForSuspect: 2, MissedForFailed: 4}, noopDial())
	s := New(d, nil)

	resp, err := s.GetDataflow(context.Background(), &transport.GetDataflowRequest{JobId: event.JobId{ResourceId: "absent"}})
	if err != nil {
		t.Fatalf("GetDataflow: %v", err)
	}
	if resp.Found {
		t.Fatal("expected Found=false for an unknown job")
	}
}

func TestHeartbeatForUnknownExecutionIsNotAnError(t *testing.T) {
	view := cluster.NewView(nil)
	d := dispatcher.New(view, state.NewMemStore(), dispatcher.Config{HeartbeatPeriod: time.Second, MissedForSuspect: 2, MissedForFailed: 4}, noopDial())
	s := New(d, nil)

	_, err := s.Heartbeat(context.Background(), &transport.HeartbeatRequest{
		ExecutionId: event.ExecutionId{JobId: event.JobId{ResourceId: "absent"}},
		Timestamp:   time.Now(),
		Sequence:    1,
	})
	if err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
}
