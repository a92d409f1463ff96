// Package dispatcher is the coordinator's top-level request router: job
// submission, termination, and heartbeat/ack fan-out across every job it
// currently manages (spec §4.6).
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowdag/flowdag/cluster"
	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/execution"
	"github.com/flowdag/flowdag/heartbeat"
	"github.com/flowdag/flowdag/jobmanager"
	"github.com/flowdag/flowdag/metrics"
	"github.com/flowdag/flowdag/scheduler"
	"github.com/flowdag/flowdag/state"
	"github.com/flowdag/flowdag/transport"
)

// ErrUnexpectedDataflowStatus is returned by TerminateDataflow when the
// named job has not yet reached Closing or Closed — mirroring the
// original's DispatcherException::UnexpectedDataflowStatus for
// Initialized/Running.
var ErrUnexpectedDataflowStatus = errors.New("dispatcher: dataflow has not finished terminating")

// Config parameterizes every JobManager this Dispatcher creates.
type Config struct {
	HeartbeatAddr    string
	HeartbeatPeriod  time.Duration
	MissedForSuspect int
	MissedForFailed  int
}

// Dispatcher owns the cluster.View, this coordinator's own address, the
// shared dataflow storage backend, and one jobmanager.JobManager per live
// job, guarded by a single-writer/many-reader lock (spec §5).
type Dispatcher struct {
	view    *cluster.View
	storage state.Store
	cfg     Config
	dial    scheduler.WorkerDialer

	mu       sync.RWMutex
	managers map[event.JobId]*jobmanager.JobManager
}

// New builds a Dispatcher. dial opens a transport.WorkerClient to a worker
// address; a real deployment passes transport.Dial + NewWorkerClient, tests
// pass an in-process fake.
func New(view *cluster.View, storage state.Store, cfg Config, dial scheduler.WorkerDialer) *Dispatcher {
	return &Dispatcher{
		view:     view,
		storage:  storage,
		cfg:      cfg,
		dial:     dial,
		managers: make(map[event.JobId]*jobmanager.JobManager),
	}
}

// CreateDataflow submits a new job: builds its JobManager and deploys df
// across the current cluster view (spec §4.6).
func (d *Dispatcher) CreateDataflow(ctx context.Context, df event.Dataflow) error {
	jm := jobmanager.New(df.JobId, jobmanager.Config{
		HeartbeatAddr:    d.cfg.HeartbeatAddr,
		HeartbeatPeriod:  d.cfg.HeartbeatPeriod,
		MissedForSuspect: d.cfg.MissedForSuspect,
		MissedForFailed:  d.cfg.MissedForFailed,
	}, state.NewDataflowStore(d.storage), d.dial)

	if err := jm.Deploy(ctx, df, d.view); err != nil {
		return fmt.Errorf("dispatcher: %w", err)
	}

	d.mu.Lock()
	d.managers[df.JobId] = jm
	d.mu.Unlock()
	return nil
}

// TerminateDataflow closes jobID's executions. A job this Dispatcher has
// never heard of is reported Closed (nothing to terminate); Closing is
// returned as-is so the caller can poll again; Closed removes the job from
// this Dispatcher. Initialized, Running or Suspect surfaces
// ErrUnexpectedDataflowStatus; Scheduler.TerminateDataflow itself only
// ever aggregates to Closing or Closed.
func (d *Dispatcher) TerminateDataflow(ctx context.Context, jobID event.JobId) (execution.Status, error) {
	d.mu.RLock()
	jm, ok := d.managers[jobID]
	d.mu.RUnlock()
	if !ok {
		return execution.Closed, nil
	}

	status, err := jm.TerminateDataflow(ctx)
	if err != nil {
		return status, fmt.Errorf("dispatcher: %w", err)
	}

	switch status {
	case execution.Initialized, execution.Running, execution.Suspect:
		return status, ErrUnexpectedDataflowStatus
	case execution.Closed:
		d.mu.Lock()
		delete(d.managers, jobID)
		d.mu.Unlock()
	}
	return status, nil
}

// GetDataflow reads back jobID's persisted Dataflow. It resolves the
// original's unimplemented get_dataflow by reading straight through
// storage, independent of whether a JobManager is still live for jobID —
// a terminated job's Dataflow remains queryable (spec §4.6, Open Question).
func (d *Dispatcher) GetDataflow(ctx context.Context, jobID event.JobId) (event.Dataflow, bool, error) {
	return state.NewDataflowStore(d.storage).Get(ctx, jobID.String())
}

// UpdateHeartbeatStatus routes an incoming heartbeat to the JobManager
// named by its ExecutionId's embedded job id (spec §4.6).
func (d *Dispatcher) UpdateHeartbeatStatus(hb heartbeat.Heartbeat) error {
	d.mu.RLock()
	jm, ok := d.managers[hb.ExecutionId.JobId]
	d.mu.RUnlock()
	if !ok {
		return nil // a heartbeat for a job we no longer track is not an error
	}
	return jm.UpdateHeartbeatStatus(hb)
}

// AckFromExecution routes an incoming ack to the JobManager named by its
// ExecutionId's embedded job id (spec §4.6).
func (d *Dispatcher) AckFromExecution(ack heartbeat.Ack) error {
	d.mu.RLock()
	jm, ok := d.managers[ack.ExecutionId.JobId]
	d.mu.RUnlock()
	if !ok {
		return nil
	}
	return jm.AckFromExecution(ack)
}

// Sweep advances missed-heartbeat bookkeeping for every job this
// Dispatcher currently manages.
func (d *Dispatcher) Sweep(now time.Time) map[event.JobId]map[event.ExecutionId]execution.Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[event.JobId]map[event.ExecutionId]execution.Status, len(d.managers))
	for jobID, jm := range d.managers {
		if transitions := jm.Sweep(now); len(transitions) > 0 {
			out[jobID] = transitions
		}
	}
	return out
}

// DialWorker is the real scheduler.WorkerDialer: dials addr over gRPC and
// wraps the connection with transport's DefaultRetryPolicy. m may be nil.
func DialWorker(ctx context.Context, m *metrics.Metrics) scheduler.WorkerDialer {
	return func(addr event.HostAddr) (*transport.WorkerClient, error) {
		conn, err := transport.Dial(ctx, addr.String())
		if err != nil {
			return nil, fmt.Errorf("dispatcher: dialing %s: %w", addr, err)
		}
		return transport.NewWorkerClient(conn, transport.DefaultRetryPolicy()).WithMetrics(m), nil
	}
}
