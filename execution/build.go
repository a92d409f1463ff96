package execution

import (
	"context"
	"fmt"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/operator"
	"github.com/flowdag/flowdag/script"
	"github.com/flowdag/flowdag/state"
)

// RuntimeFactory returns a fresh script.Runtime scoped to one operator
// instance — Runtime is explicitly not safe to share across operators
// (script package doc, "Runtime isolation"), so an Execution asks for a
// new one per node rather than reusing a single Runtime across its
// operator table.
type RuntimeFactory func(kind event.DetailsKind) script.Runtime

// ConnectorResolver builds the Source.Generate or Sink.Write a Source/Sink
// operator needs from its ConnectorTarget string. Concrete wiring (opening
// a file, dialing a queue, pointing an HTTPSink at a URL) lives with the
// caller that knows the deployment's connector conventions; this package
// only needs the resulting function.
type ConnectorResolver interface {
	Source(connectorTarget string) operator.Generator
	Sink(connectorTarget string) func(ctx context.Context, in event.KeyedDataEvent) error
}

// buildOperator constructs the operator.Operator for one OperatorInfo node,
// per its Details.Kind (spec §4.1). Store is shared across every Reduce in
// the subdataflow — consistent with state.Store being one logical backend
// per worker, keyed per-operator via state.ReduceKey.
func buildOperator(jobID event.JobId, info event.OperatorInfo, runtimes RuntimeFactory, store state.Store, connectors ConnectorResolver) (operator.Operator, error) {
	id := info.OperatorId
	body := info.Details.FuncBody

	switch info.Details.Kind {
	case event.DetailsMap:
		return &operator.Map{OperatorID: id, Runtime: runtimes(info.Details.Kind), FuncBody: body}, nil
	case event.DetailsFilter:
		return &operator.Filter{OperatorID: id, Runtime: runtimes(info.Details.Kind), FuncBody: body}, nil
	case event.DetailsKeyBy:
		return &operator.KeyBy{OperatorID: id, Runtime: runtimes(info.Details.Kind), FuncBody: body}, nil
	case event.DetailsReducer:
		return &operator.Reduce{OperatorID: id, Runtime: runtimes(info.Details.Kind), Store: store, FuncBody: body}, nil
	case event.DetailsFlatMap:
		return &operator.FlatMap{OperatorID: id, Runtime: runtimes(info.Details.Kind), FuncBody: body}, nil
	case event.DetailsSource:
		if connectors == nil {
			return nil, fmt.Errorf("execution: operator %d is a Source but no ConnectorResolver was supplied", id)
		}
		return &operator.Source{OperatorID: id, JobID: jobID, Generate: connectors.Source(info.Details.ConnectorTarget)}, nil
	case event.DetailsSink:
		if connectors == nil {
			return nil, fmt.Errorf("execution: operator %d is a Sink but no ConnectorResolver was supplied", id)
		}
		return &operator.Sink{OperatorID: id, Write: connectors.Sink(info.Details.ConnectorTarget)}, nil
	default:
		return &operator.Empty{OperatorID: id}, nil
	}
}
