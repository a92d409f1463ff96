package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flowdag/flowdag/event"
)

// DataflowStore persists submitted Dataflows keyed by job id, reusing
// whichever Store backend the coordinator is configured with (spec §4.5,
// step 1: "persists dataflow"). The wire representation is the Dataflow's
// JSON-marshaled form — JSON rather than value's canonical binary
// encoding, since a Dataflow is a control-plane document read back whole,
// not a TaggedValue crossing the operator data plane.
type DataflowStore struct {
	backend Store
}

// NewDataflowStore wraps backend as a dataflow store.
func NewDataflowStore(backend Store) *DataflowStore {
	return &DataflowStore{backend: backend}
}

func dataflowKey(jobID string) string { return "dataflow-" + jobID }

// Put persists df under its JobId.
func (s *DataflowStore) Put(ctx context.Context, df event.Dataflow) error {
	encoded, err := json.Marshal(df)
	if err != nil {
		return fmt.Errorf("state: marshaling dataflow %s: %w", df.JobId, err)
	}
	return s.backend.Set(ctx, dataflowKey(df.JobId.String()), encoded)
}

// Get retrieves the Dataflow persisted for jobID. ok is false if none was
// ever persisted — the read-through behavior spec.md's Design Notes leave
// as an open question for Dispatcher.GetDataflow ("currently not
// implemented"), resolved here by simply reading the store.
func (s *DataflowStore) Get(ctx context.Context, jobID string) (df event.Dataflow, ok bool, err error) {
	raw, ok, err := s.backend.Get(ctx, dataflowKey(jobID))
	if err != nil || !ok {
		return event.Dataflow{}, ok, err
	}
	if err := json.Unmarshal(raw, &df); err != nil {
		return event.Dataflow{}, false, fmt.Errorf("state: unmarshaling dataflow %s: %w", jobID, err)
	}
	return df, true, nil
}
