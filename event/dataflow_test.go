package event

import "testing"

func mapDetails() OperatorDetails { return OperatorDetails{Kind: DetailsMap, FuncBody: "a => a+1"} }

func TestValidateEmptyDataflow(t *testing.T) {
	var df Dataflow
	if err := df.Validate(); err != ErrEmptyDataflow {
		t.Fatalf("expected ErrEmptyDataflow, got %v", err)
	}
}

func TestValidateDanglingNeighbor(t *testing.T) {
	df := Dataflow{
		Nodes: map[int]OperatorInfo{
			0: {OperatorId: 0, Details: mapDetails()},
		},
		Adjacency: []AdjacencyEntry{{Center: 0, Neighbors: []int{7}}},
	}
	if err := df.Validate(); err != ErrDanglingNeighbor {
		t.Fatalf("expected ErrDanglingNeighbor, got %v", err)
	}
}

func TestValidateCycle(t *testing.T) {
	df := Dataflow{
		Nodes: map[int]OperatorInfo{
			0: {OperatorId: 0, Details: mapDetails(), Upstreams: map[int]struct{}{1: {}}},
			1: {OperatorId: 1, Details: mapDetails(), Upstreams: map[int]struct{}{0: {}}},
		},
		Adjacency: []AdjacencyEntry{
			{Center: 0, Neighbors: []int{1}},
			{Center: 1, Neighbors: []int{0}},
		},
	}
	if err := df.Validate(); err != ErrCyclicGraph {
		t.Fatalf("expected ErrCyclicGraph, got %v", err)
	}
}

func TestValidateSelfLoop(t *testing.T) {
	df := Dataflow{
		Nodes: map[int]OperatorInfo{
			0: {OperatorId: 0, Details: mapDetails()},
		},
		Adjacency: []AdjacencyEntry{{Center: 0, Neighbors: []int{0}}},
	}
	if err := df.Validate(); err != ErrSelfLoop {
		t.Fatalf("expected ErrSelfLoop, got %v", err)
	}
}

func TestValidateInvalidOperatorKind(t *testing.T) {
	df := Dataflow{
		Nodes: map[int]OperatorInfo{
			0: {OperatorId: 0, Details: OperatorDetails{Kind: DetailsEmpty}},
		},
	}
	if err := df.Validate(); err != ErrInvalidOperator {
		t.Fatalf("expected ErrInvalidOperator, got %v", err)
	}
}

func TestValidateUpstreamsMismatch(t *testing.T) {
	df := Dataflow{
		Nodes: map[int]OperatorInfo{
			0: {OperatorId: 0, Details: mapDetails()},
			1: {OperatorId: 1, Details: mapDetails()}, // missing Upstreams: {0}
		},
		Adjacency: []AdjacencyEntry{{Center: 0, Neighbors: []int{1}}},
	}
	if err := df.Validate(); err != ErrUpstreamsMismatch {
		t.Fatalf("expected ErrUpstreamsMismatch, got %v", err)
	}
}

func TestValidateAcceptsValidDAG(t *testing.T) {
	df := Dataflow{
		Nodes: map[int]OperatorInfo{
			0: {OperatorId: 0, Details: mapDetails()},
			1: {OperatorId: 1, Details: mapDetails(), Upstreams: map[int]struct{}{0: {}}},
		},
		Adjacency: []AdjacencyEntry{{Center: 0, Neighbors: []int{1}}},
	}
	if err := df.Validate(); err != nil {
		t.Fatalf("expected valid DAG to pass, got %v", err)
	}
	down := df.Downstreams()
	if len(down[0]) != 1 || down[0][0] != 1 {
		t.Errorf("unexpected downstreams: %+v", down)
	}
}
