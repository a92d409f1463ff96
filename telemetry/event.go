// Package telemetry is FlowDAG's observability surface: structured Events
// emitted through an Emitter. The emitting call sites are worker.Server
// (deploy and execution outcomes) and cmd/coordinator's sweep loop;
// execution.Execution, scheduler.Scheduler, jobmanager.JobManager and
// dispatcher.Dispatcher hold no Emitter and emit nothing themselves.
// Adapted from the teacher's graph/emit package, generalized from a single
// workflow run's node/step identifiers to FlowDAG's job/execution/operator
// identifiers.
package telemetry

// Event is one observability event emitted during dataflow execution.
type Event struct {
	// JobId identifies the job this event belongs to. Empty for events
	// not scoped to a job (e.g. cluster-wide probe results).
	JobId string

	// ExecutionId identifies the subdataflow execution that emitted this
	// event, if any.
	ExecutionId string

	// OperatorId identifies the operator that emitted this event. Zero
	// for execution- or job-level events (deploy, terminate, sweep).
	OperatorId int

	// Msg is a short machine-matchable event name, e.g. "deploy_accepted",
	// "heartbeat_missed", "operator_panic".
	Msg string

	// Meta carries event-specific structured data: "duration_ms",
	// "error", "reason", "sequence", and so on.
	Meta map[string]interface{}
}
