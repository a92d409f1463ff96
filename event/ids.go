// Package event defines the wire-level event and dataflow-graph types that
// flow between the coordinator and worker processes: KeyedDataEvent,
// OperatorInfo, Dataflow, Subdataflow, ExecutionId, and JobId (spec §3).
package event

import "fmt"

// JobId identifies a submitted job. ResourceId is expected to be globally
// unique (the apiserver mints it, typically from github.com/google/uuid);
// Namespace is an optional multi-tenancy scope.
type JobId struct {
	ResourceId string
	Namespace  string
}

// String renders a JobId for logs and map keys.
func (j JobId) String() string {
	if j.Namespace == "" {
		return j.ResourceId
	}
	return j.Namespace + "/" + j.ResourceId
}

// ExecutionId identifies one subdataflow's execution on a worker. It is
// stable from deployment to termination (spec §3).
type ExecutionId struct {
	JobId JobId
	SubId int
}

// String renders an ExecutionId for logs and map keys.
func (e ExecutionId) String() string {
	return fmt.Sprintf("%s#%d", e.JobId.String(), e.SubId)
}
