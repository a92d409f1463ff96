// Package scheduler implements the coordinator-side tracking of one job's
// executions across workers (spec §4.4): issuing deployments in the order
// the caller supplies, fanning in heartbeats/acks, and aggregating
// termination status.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/execution"
	"github.com/flowdag/flowdag/heartbeat"
	"github.com/flowdag/flowdag/transport"
)

// ErrDeploymentFailed is returned by Execute/ExecuteAll when a worker
// rejects or cannot be reached for a deployment (spec §4.4
// "TaskDeploymentException").
var ErrDeploymentFailed = errors.New("scheduler: deployment failed")

// ErrUnknownExecution is returned by operations addressing an execution id
// this Scheduler never deployed.
var ErrUnknownExecution = errors.New("scheduler: unknown execution")

// ExecutionHandle is the coordinator's lightweight view of one execution
// running on a worker: status and liveness bookkeeping, not the operators
// or edges themselves — those are owned by the worker-side
// execution.Execution this handle tracks from a distance. The two types
// are deliberately distinct: an Execution lives in the worker process that
// runs it, an ExecutionHandle lives in the coordinator process that
// deployed it, and neither can stand in for the other.
type ExecutionHandle struct {
	ID              event.ExecutionId
	Status          execution.Status
	Target          event.HostAddr
	LastSeen        time.Time
	LastAckSequence uint64
}

// DeploymentPlan is what the Job Manager hands the Scheduler for one
// subdataflow (spec §4.5, "SubdataflowDeploymentPlan").
type DeploymentPlan struct {
	ExecutionID      event.ExecutionId
	Subdataflow      event.Subdataflow
	Target           event.HostAddr
	HeartbeatAddr    string
	HeartbeatPeriod  time.Duration
	MissedForSuspect int
	MissedForFailed  int
}

// WorkerDialer returns a (possibly cached) WorkerClient for addr.
type WorkerDialer func(addr event.HostAddr) (*transport.WorkerClient, error)

// Scheduler owns map[ExecutionId]*ExecutionHandle for one job (spec §4.4).
type Scheduler struct {
	jobID   event.JobId
	dial    WorkerDialer
	monitor *heartbeat.Monitor

	mu         sync.Mutex
	executions map[event.ExecutionId]*ExecutionHandle
	clients    map[string]*transport.WorkerClient
}

// New builds a Scheduler for jobID. period/missedForSuspect/missedForFailed
// parameterize the heartbeat.Monitor every deployed execution is tracked
// under — uniform per job, matching the single heartbeat_builder a
// JobManager hands every subdataflow it deploys (spec §4.5).
func New(jobID event.JobId, dial WorkerDialer, period time.Duration, missedForSuspect, missedForFailed int) *Scheduler {
	return &Scheduler{
		jobID:      jobID,
		dial:       dial,
		monitor:    heartbeat.NewMonitor(period, missedForSuspect, missedForFailed),
		executions: make(map[event.ExecutionId]*ExecutionHandle),
		clients:    make(map[string]*transport.WorkerClient),
	}
}

func (s *Scheduler) clientFor(addr event.HostAddr) (*transport.WorkerClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := addr.String()
	if c, ok := s.clients[key]; ok {
		return c, nil
	}
	c, err := s.dial(addr)
	if err != nil {
		return nil, err
	}
	s.clients[key] = c
	return c, nil
}

// Execute deploys one subdataflow: contacts the target worker, and on
// acceptance inserts the ExecutionHandle in Initialized (spec §4.4). A
// rejected or unreachable worker returns ErrDeploymentFailed without
// inserting a handle.
func (s *Scheduler) Execute(ctx context.Context, plan DeploymentPlan) error {
	client, err := s.clientFor(plan.Target)
	if err != nil {
		return fmt.Errorf("%w: dialing %s: %v", ErrDeploymentFailed, plan.Target, err)
	}

	resp, err := client.CreateSubDataflow(ctx, &transport.DeployRequest{
		ExecutionId:      plan.ExecutionID,
		Subdataflow:      plan.Subdataflow,
		HeartbeatAddr:    plan.HeartbeatAddr,
		HeartbeatPeriod:  plan.HeartbeatPeriod,
		MissedForSuspect: plan.MissedForSuspect,
		MissedForFailed:  plan.MissedForFailed,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeploymentFailed, err)
	}
	if !resp.Accepted {
		return fmt.Errorf("%w: %s", ErrDeploymentFailed, resp.Reason)
	}

	s.mu.Lock()
	s.executions[plan.ExecutionID] = &ExecutionHandle{
		ID:     plan.ExecutionID,
		Status: execution.Initialized,
		Target: plan.Target,
	}
	s.mu.Unlock()
	s.monitor.Track(plan.ExecutionID, time.Now())

	return nil
}

// ExecuteAll deploys plans in the order given; it does not reorder them by
// the dataflow's adjacency. jobmanager.Deploy supplies them in sorted
// live-worker order, so sources are not necessarily deployed first. The
// first failure aborts every remaining
// plan and transitions every already-Initialized execution from this batch
// to Closing, per the "Deploy failure rollback" scenario.
func (s *Scheduler) ExecuteAll(ctx context.Context, plans []DeploymentPlan) error {
	var deployed []event.ExecutionId
	for _, plan := range plans {
		if err := s.Execute(ctx, plan); err != nil {
			for _, id := range deployed {
				s.closeHandle(id)
			}
			return err
		}
		deployed = append(deployed, plan.ExecutionID)
	}
	return nil
}

func (s *Scheduler) closeHandle(id event.ExecutionId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.executions[id]; ok && h.Status == execution.Initialized {
		h.Status = execution.Closing
	}
}

// GetExecution looks up id, returning (nil, false) if unknown (spec §4.4
// get_execution_mut).
func (s *Scheduler) GetExecution(id event.ExecutionId) (*ExecutionHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.executions[id]
	return h, ok
}

// TerminateDataflow issues Terminate to every execution not yet Closed
// (Initialized, Running, Suspect or Closing) and returns the aggregate
// status: Closing if any execution
// has not yet reached Closed, Closed only once all have (spec §4.4).
func (s *Scheduler) TerminateDataflow(ctx context.Context) (execution.Status, error) {
	s.mu.Lock()
	handles := make([]*ExecutionHandle, 0, len(s.executions))
	for _, h := range s.executions {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	var firstErr error
	for _, h := range handles {
		if h.Status == execution.Closed {
			continue
		}
		client, err := s.clientFor(h.Target)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		resp, err := client.StopSubDataflow(ctx, &transport.TerminateRequest{ExecutionId: h.ID})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.mu.Lock()
		if resp.Accepted {
			h.Status = execution.Closed
			s.monitor.Untrack(h.ID)
		} else {
			h.Status = execution.Closing
		}
		s.mu.Unlock()
	}

	agg := execution.Closed
	s.mu.Lock()
	for _, h := range s.executions {
		if h.Status != execution.Closed {
			agg = execution.Closing
			break
		}
	}
	s.mu.Unlock()

	return agg, firstErr
}

// ObserveHeartbeat updates the named execution's last-seen timestamp and,
// if it is still Initialized, promotes it to Running (spec §4.4).
func (s *Scheduler) ObserveHeartbeat(hb heartbeat.Heartbeat) error {
	s.mu.Lock()
	h, ok := s.executions[hb.ExecutionId]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownExecution, hb.ExecutionId)
	}

	if err := s.monitor.Observe(hb); err != nil {
		return err
	}

	s.mu.Lock()
	h.LastSeen = hb.Timestamp
	if h.Status == execution.Initialized {
		h.Status = execution.Running
	}
	s.mu.Unlock()
	return nil
}

// ObserveAck updates the named execution's last-ack sequence (spec §4.4).
func (s *Scheduler) ObserveAck(ack heartbeat.Ack) error {
	s.mu.Lock()
	h, ok := s.executions[ack.ExecutionId]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownExecution, ack.ExecutionId)
	}

	s.monitor.ObserveAck(ack)

	s.mu.Lock()
	h.LastAckSequence = ack.Sequence
	s.mu.Unlock()
	return nil
}

// Sweep advances missed-heartbeat bookkeeping for every tracked execution
// and applies any Suspect/Failed transition to its ExecutionHandle. Failed
// executions settle as Closed: spec §3's state machine names Closed as the
// only terminal state, and an execution unreachable past the Failed
// threshold is, for the coordinator's purposes, gone for good (spec §4.3,
// "Closed ... or execution unreachable past max threshold").
func (s *Scheduler) Sweep(now time.Time) map[event.ExecutionId]execution.Status {
	transitions := s.monitor.Sweep(now)
	out := make(map[event.ExecutionId]execution.Status, len(transitions))

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range transitions {
		h, ok := s.executions[id]
		if !ok {
			continue
		}
		switch t {
		case heartbeat.TransitionSuspect:
			h.Status = execution.Suspect
		case heartbeat.TransitionFailed:
			h.Status = execution.Closed
		}
		out[id] = h.Status
	}
	return out
}
