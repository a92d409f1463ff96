package cluster

import "github.com/flowdag/flowdag/event"

// Split cuts a partitioned Dataflow (every node's HostAddr already
// assigned, see Partition) into one Subdataflow per distinct HostAddr.
// Each Subdataflow's Nodes holds the full OperatorInfo for the operators
// that worker runs, plus an address-only stub entry for every operator
// reachable by a local-to-remote adjacency edge — just enough for
// execution.Execution.outEdgeTo to dial the right peer (spec §4.5, "cross-
// worker edges become Remote at both ends"). The full Adjacency list is
// copied into every Subdataflow unchanged: downstreamsOf only needs to find
// a Center match, and carrying edges that don't touch this worker costs
// nothing but map lookups that never fire.
//
// df must already be Validate()-clean and Partition-assigned; Split does
// not itself check either.
func Split(df event.Dataflow) map[string]event.Subdataflow {
	subs := make(map[string]event.Subdataflow)

	get := func(addr event.HostAddr) event.Subdataflow {
		key := addr.String()
		sub, ok := subs[key]
		if !ok {
			sub = event.Subdataflow{JobId: df.JobId, Target: addr, Nodes: map[int]event.OperatorInfo{}, Adjacency: df.Adjacency}
			subs[key] = sub
		}
		return sub
	}

	for id, info := range df.Nodes {
		if info.HostAddr == nil {
			continue // unassigned: Partition was skipped or failed upstream
		}
		sub := get(*info.HostAddr)
		sub.Nodes[id] = info
	}

	for _, entry := range df.Adjacency {
		center, ok := df.Nodes[entry.Center]
		if !ok || center.HostAddr == nil {
			continue
		}
		centerSub := get(*center.HostAddr)
		for _, n := range entry.Neighbors {
			neighbor, ok := df.Nodes[n]
			if !ok || neighbor.HostAddr == nil || *neighbor.HostAddr == *center.HostAddr {
				continue // same worker: no stub needed, the full entry already covers it
			}
			if _, exists := centerSub.Nodes[n]; !exists {
				centerSub.Nodes[n] = event.OperatorInfo{OperatorId: n, HostAddr: neighbor.HostAddr}
			}
		}
	}

	return subs
}
