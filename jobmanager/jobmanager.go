// Package jobmanager owns one job's lifecycle: persisting its Dataflow,
// partitioning and deploying it across the live cluster, and routing
// heartbeat/ack traffic to the Scheduler tracking its executions (spec
// §4.5).
package jobmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/flowdag/flowdag/cluster"
	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/execution"
	"github.com/flowdag/flowdag/heartbeat"
	"github.com/flowdag/flowdag/scheduler"
	"github.com/flowdag/flowdag/state"
)

// Config parameterizes the deployments one JobManager issues: the
// coordinator address its subdataflows send heartbeats to, and the
// liveness policy applied uniformly across them. This is the Go shape of
// the original's heartbeat_builder/ack_builder — not closures assembling
// wire messages (a Heartbeat/Ack here is already just
// execution_id/timestamp/sequence, spec §3), but the addressing and
// cadence every deployment under this job shares.
type Config struct {
	HeartbeatAddr    string
	HeartbeatPeriod  time.Duration
	MissedForSuspect int
	MissedForFailed  int
}

// JobManager is responsible for one job: deploy, terminate, and the
// heartbeat/ack fan-in that keeps its Scheduler's view of each execution
// current.
type JobManager struct {
	jobID     event.JobId
	cfg       Config
	store     *state.DataflowStore
	scheduler *scheduler.Scheduler
}

// New builds a JobManager for jobID. dial opens a transport.WorkerClient to
// a worker address, passed straight through to the embedded Scheduler.
func New(jobID event.JobId, cfg Config, store *state.DataflowStore, dial scheduler.WorkerDialer) *JobManager {
	return &JobManager{
		jobID:     jobID,
		cfg:       cfg,
		store:     store,
		scheduler: scheduler.New(jobID, dial, cfg.HeartbeatPeriod, cfg.MissedForSuspect, cfg.MissedForFailed),
	}
}

// Deploy validates and persists df, partitions it across view's live
// workers, splits it into per-worker Subdataflows, and hands the resulting
// plans to the Scheduler in the live-worker list's (deterministic, sorted)
// order (spec §4.5, step 1-4).
func (m *JobManager) Deploy(ctx context.Context, df event.Dataflow, view *cluster.View) error {
	if err := df.Validate(); err != nil {
		return fmt.Errorf("jobmanager: %w", err)
	}
	if err := m.store.Put(ctx, df); err != nil {
		return fmt.Errorf("jobmanager: persisting dataflow %s: %w", m.jobID, err)
	}

	workers := view.LiveWorkers()
	partitioned, err := cluster.Partition(df, workers)
	if err != nil {
		return fmt.Errorf("jobmanager: %w", err)
	}
	subs := cluster.Split(partitioned)

	plans := make([]scheduler.DeploymentPlan, 0, len(workers))
	for subID, addr := range workers {
		sub, ok := subs[addr.String()]
		if !ok {
			continue // no operator of this dataflow landed on this worker
		}
		plans = append(plans, scheduler.DeploymentPlan{
			ExecutionID:      event.ExecutionId{JobId: m.jobID, SubId: subID},
			Subdataflow:      sub,
			Target:           addr,
			HeartbeatAddr:    m.cfg.HeartbeatAddr,
			HeartbeatPeriod:  m.cfg.HeartbeatPeriod,
			MissedForSuspect: m.cfg.MissedForSuspect,
			MissedForFailed:  m.cfg.MissedForFailed,
		})
	}

	return m.scheduler.ExecuteAll(ctx, plans)
}

// TerminateDataflow closes every execution of this job and returns the
// aggregate status (spec §4.5).
func (m *JobManager) TerminateDataflow(ctx context.Context) (execution.Status, error) {
	return m.scheduler.TerminateDataflow(ctx)
}

// UpdateHeartbeatStatus routes an incoming heartbeat to this job's
// Scheduler (spec §4.5).
func (m *JobManager) UpdateHeartbeatStatus(hb heartbeat.Heartbeat) error {
	return m.scheduler.ObserveHeartbeat(hb)
}

// AckFromExecution routes an incoming ack to this job's Scheduler (spec
// §4.5).
func (m *JobManager) AckFromExecution(ack heartbeat.Ack) error {
	return m.scheduler.ObserveAck(ack)
}

// Sweep advances missed-heartbeat bookkeeping for this job's executions.
func (m *JobManager) Sweep(now time.Time) map[event.ExecutionId]execution.Status {
	return m.scheduler.Sweep(now)
}

// GetDataflow reads this job's persisted Dataflow back from storage,
// resolving the original's unimplemented get_dataflow (spec §4.6, Open
// Question).
func (m *JobManager) GetDataflow(ctx context.Context) (event.Dataflow, bool, error) {
	return m.store.Get(ctx, m.jobID.String())
}
