package cluster

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/flowdag/flowdag/event"
)

// ErrNoWorkers is returned by Partition when called against an empty
// worker set.
var ErrNoWorkers = errors.New("cluster: no live workers to partition onto")

// Partition assigns every operator in df a HostAddr: a consistent hash of
// (job_id, operator_id) modulo len(workers), grounded on the teacher's
// ComputeOrderKey (graph/scheduler.go) — same sha256-prefix-to-uint64
// technique, repurposed from a deterministic work-item sort key to a
// deterministic worker assignment. Because the hash is a pure function of
// its inputs, redeploying the same job against an unchanged worker set
// reproduces the same assignment (spec §4.5, "sticky across redeploys").
// Partition returns a copy of df with Nodes replaced; df itself is
// untouched.
func Partition(df event.Dataflow, workers []event.HostAddr) (event.Dataflow, error) {
	if len(workers) == 0 {
		return event.Dataflow{}, ErrNoWorkers
	}

	out := df
	out.Nodes = make(map[int]event.OperatorInfo, len(df.Nodes))
	for id, info := range df.Nodes {
		idx := assignmentIndex(df.JobId, id, len(workers))
		addr := workers[idx]
		info.HostAddr = &addr
		out.Nodes[id] = info
	}
	return out, nil
}

func assignmentIndex(jobID event.JobId, operatorID int, n int) int {
	h := sha256.New()
	h.Write([]byte(jobID.String()))
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(operatorID))
	h.Write(buf)
	sum := h.Sum(nil)
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}
