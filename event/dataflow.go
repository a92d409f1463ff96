package event

import "errors"

// AdjacencyEntry is one row of a Dataflow's adjacency list: the ordered set
// of operator ids reachable directly downstream of Center.
type AdjacencyEntry struct {
	Center    int
	Neighbors []int
}

// Dataflow is a job's operator DAG (spec §3). Nodes maps operator_id to its
// OperatorInfo; Adjacency lists, together, must describe a DAG referencing
// only ids present in Nodes, with every operator's Upstreams the inverse of
// Adjacency — Validate checks all three.
type Dataflow struct {
	JobId     JobId
	Nodes     map[int]OperatorInfo
	Adjacency []AdjacencyEntry
}

// Subdataflow is the portion of a Dataflow assigned to one worker: the same
// shape as Dataflow, restricted to operators whose HostAddr resolves to
// Target. Cross-worker edges named in the parent Dataflow's adjacency
// become Remote edges at both ends once split (cluster.Split).
type Subdataflow struct {
	JobId     JobId
	Target    HostAddr
	Nodes     map[int]OperatorInfo
	Adjacency []AdjacencyEntry
}

var (
	// ErrEmptyDataflow is returned by Validate for a Dataflow with no
	// operators.
	ErrEmptyDataflow = errors.New("event: dataflow has no operators")
	// ErrDanglingNeighbor is returned by Validate when an adjacency entry
	// names an operator id absent from Nodes — resolves the Design Notes
	// open question by rejecting such dataflows at submission.
	ErrDanglingNeighbor = errors.New("event: adjacency references unknown operator id")
	// ErrCyclicGraph is returned by Validate when the adjacency describes a
	// cycle.
	ErrCyclicGraph = errors.New("event: dataflow graph contains a cycle")
	// ErrUpstreamsMismatch is returned by Validate when an operator's
	// Upstreams set does not match the inverse of Adjacency.
	ErrUpstreamsMismatch = errors.New("event: operator upstreams do not match adjacency")
	// ErrInvalidOperator is returned by Validate for a node whose
	// Details.Kind is Empty or otherwise unrecognized — resolves the
	// "operator variants panic in the source" open question as a
	// submission-time error instead.
	ErrInvalidOperator = errors.New("event: operator has an invalid or empty details kind")
	// ErrSelfLoop is returned by Validate when an operator lists itself as
	// its own neighbor — supplemented from original_source's dataflow.rs,
	// which rejects this case explicitly; the distilled spec omits it.
	ErrSelfLoop = errors.New("event: operator cannot be its own neighbor")
)

// Validate checks the structural invariants spec §3 requires of a Dataflow
// before it may be persisted or deployed: non-empty, referentially intact
// adjacency, no cycles, no self-loops, upstreams matching adjacency, and
// every node carrying a recognized, non-Empty operator kind.
func (d Dataflow) Validate() error {
	if len(d.Nodes) == 0 {
		return ErrEmptyDataflow
	}

	for id, info := range d.Nodes {
		if info.Details.Kind <= DetailsEmpty || info.Details.Kind > DetailsSink {
			return ErrInvalidOperator
		}
		_ = id
	}

	downstreams := make(map[int]map[int]struct{}, len(d.Nodes))
	for _, entry := range d.Adjacency {
		if _, ok := d.Nodes[entry.Center]; !ok {
			return ErrDanglingNeighbor
		}
		for _, n := range entry.Neighbors {
			if n == entry.Center {
				return ErrSelfLoop
			}
			if _, ok := d.Nodes[n]; !ok {
				return ErrDanglingNeighbor
			}
			if downstreams[entry.Center] == nil {
				downstreams[entry.Center] = make(map[int]struct{})
			}
			downstreams[entry.Center][n] = struct{}{}
		}
	}

	// Upstreams must be exactly the inverse of Adjacency.
	computedUpstreams := make(map[int]map[int]struct{}, len(d.Nodes))
	for center, neighbors := range downstreams {
		for n := range neighbors {
			if computedUpstreams[n] == nil {
				computedUpstreams[n] = make(map[int]struct{})
			}
			computedUpstreams[n][center] = struct{}{}
		}
	}
	for id, info := range d.Nodes {
		want := computedUpstreams[id]
		if len(want) != len(info.Upstreams) {
			return ErrUpstreamsMismatch
		}
		for u := range info.Upstreams {
			if _, ok := want[u]; !ok {
				return ErrUpstreamsMismatch
			}
		}
	}

	if hasCycle(d.Nodes, downstreams) {
		return ErrCyclicGraph
	}

	return nil
}

// hasCycle runs a standard three-color DFS over the adjacency to detect
// cycles.
func hasCycle(nodes map[int]OperatorInfo, downstreams map[int]map[int]struct{}) bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[int]int, len(nodes))
	var visit func(id int) bool
	visit = func(id int) bool {
		color[id] = gray
		for n := range downstreams[id] {
			switch color[n] {
			case gray:
				return true
			case white:
				if visit(n) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}
	for id := range nodes {
		if color[id] == white {
			if visit(id) {
				return true
			}
		}
	}
	return false
}

// Downstreams returns, for each operator id, the set of operator ids
// immediately reachable from it — the inverse view of Upstreams, derived
// from Adjacency. Supplemented from original_source/src/stream/src/dataflow.rs.
// Nothing is cached: every call re-scans Adjacency and builds a new map.
func (d Dataflow) Downstreams() map[int][]int {
	out := make(map[int][]int, len(d.Nodes))
	for _, entry := range d.Adjacency {
		out[entry.Center] = append(out[entry.Center], entry.Neighbors...)
	}
	return out
}
