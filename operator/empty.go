package operator

import (
	"context"

	"github.com/flowdag/flowdag/event"
)

// ErrEmptyOperator is returned if an Empty operator is ever asked to
// process an event — it should be unreachable, since event.Validate
// rejects a Dataflow containing a Details.Kind of DetailsEmpty at
// submission (see event.ErrInvalidOperator). Empty exists only so an
// Execution's operator table has a safe placeholder to fall back to if a
// validated-elsewhere invariant is ever violated, rather than a nil
// interface causing a panic.
type emptyError struct{}

func (emptyError) Error() string { return "operator: Empty operator invoked" }

// ErrEmptyOperator is the sentinel Empty.Process always returns.
var ErrEmptyOperator error = emptyError{}

// Empty is the zero-value placeholder operator.Operator. It is never
// constructed by a correctly validated dataflow.
type Empty struct {
	OperatorID int
}

// Process implements Operator by always failing.
func (e *Empty) Process(_ context.Context, _ event.KeyedDataEvent) ([]event.KeyedDataEvent, error) {
	return nil, ErrEmptyOperator
}
